package flights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const (
	DefaultSearchPageSize = 10
	MaxSearchPageSize     = 50
	searchDateLayout      = "2006-01-02"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	ListInventory(ctx context.Context, flightID int64) ([]domain.SeatClassInventory, error)
	Search(ctx context.Context, input SearchInput) (*domain.FlightPage, error)
	CreateFlight(ctx context.Context, input CreateFlightInput) (*domain.Flight, error)
}

// FlightCache holds the serialized flight catalog. A nil slice from GetFlights means a miss.
type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type SearchInput struct {
	From     string `form:"departure_airport" validate:"required,len=3,alpha"`
	To       string `form:"arrival_airport" validate:"required,len=3,alpha"`
	Date     string `form:"departure_date" validate:"required,datetime=2006-01-02"`
	Page     int    `form:"page" validate:"gte=0"`
	PageSize int    `form:"page_size" validate:"gte=0,lte=50"`
}

// CreateFlightInput registers a flight with its cabin layout; Seats maps a seat
// class name to the number of seats sold in it.
type CreateFlightInput struct {
	FlightNumber  string         `json:"flight_number" validate:"required,max=10"`
	FromAirport   string         `json:"from_airport" validate:"required,len=3,alpha"`
	ToAirport     string         `json:"to_airport" validate:"required,len=3,alpha,nefield=FromAirport"`
	DepartureTime time.Time      `json:"departure_time" validate:"required"`
	ArrivalTime   time.Time      `json:"arrival_time" validate:"required,gtfield=DepartureTime"`
	BaseFareCents int64          `json:"base_fare_cents" validate:"gte=0"`
	Status        string         `json:"status" validate:"omitempty,oneof=scheduled on_time delayed"`
	Seats         map[string]int `json:"seats" validate:"required,min=1,dive,gte=0"`
}

type FlightService struct {
	store    repository.Store
	cache    FlightCache
	validate *validator.Validate
	logger   *logrus.Logger
}

func NewFlightService(store repository.Store, cache FlightCache, logger *logrus.Logger) *FlightService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FlightService{store: store, cache: cache, validate: validator.New(), logger: logger}
}

// List serves the catalog from cache when possible. Cache errors degrade to a
// store read; they never fail the request.
func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		cached, err := s.cache.GetFlights(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("flights cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	flights, err := s.store.Flights().List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.logger.WithError(err).Warn("flights cache write failed")
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: flight id must be positive", domain.ErrInvalidArgument)
	}
	return s.store.Flights().GetByID(ctx, id)
}

// ListInventory returns the seat-class rows of a flight in fare order.
func (s *FlightService) ListInventory(ctx context.Context, flightID int64) ([]domain.SeatClassInventory, error) {
	if _, err := s.GetByID(ctx, flightID); err != nil {
		return nil, err
	}
	return s.store.Inventory().ListByFlight(ctx, flightID)
}

// Search pages through scheduled and on-time flights on a route for one
// departure day. Airport codes are matched case-insensitively.
func (s *FlightService) Search(ctx context.Context, input SearchInput) (*domain.FlightPage, error) {
	input.From = normalizeAirport(input.From)
	input.To = normalizeAirport(input.To)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	date, err := time.Parse(searchDateLayout, input.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: departure_date: %w", domain.ErrInvalidArgument, err)
	}
	if input.Page == 0 {
		input.Page = 1
	}
	if input.PageSize == 0 {
		input.PageSize = DefaultSearchPageSize
	}

	query := domain.FlightSearch{
		From:     input.From,
		To:       input.To,
		Date:     date,
		Page:     input.Page,
		PageSize: input.PageSize,
	}
	flights, total, err := s.store.Flights().Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return &domain.FlightPage{
		Flights:    flights,
		TotalCount: total,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}, nil
}

// CreateFlight stores a flight and its seat inventory atomically, then drops
// the cached catalog.
func (s *FlightService) CreateFlight(ctx context.Context, input CreateFlightInput) (*domain.Flight, error) {
	input.FlightNumber = strings.ToUpper(strings.TrimSpace(input.FlightNumber))
	input.FromAirport = normalizeAirport(input.FromAirport)
	input.ToAirport = normalizeAirport(input.ToAirport)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	seats := make(map[domain.SeatClass]int, len(input.Seats))
	for raw, n := range input.Seats {
		class, err := domain.ParseSeatClass(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seats[class]; dup {
			return nil, fmt.Errorf("%w: seat class %s given twice", domain.ErrInvalidArgument, class)
		}
		seats[class] = n
	}

	flight := &domain.Flight{
		FlightNumber:  input.FlightNumber,
		FromAirport:   input.FromAirport,
		ToAirport:     input.ToAirport,
		DepartureTime: input.DepartureTime.UTC(),
		ArrivalTime:   input.ArrivalTime.UTC(),
		BaseFareCents: input.BaseFareCents,
		Status:        domain.FlightStatus(input.Status),
	}
	if err := repository.CreateFlight(ctx, s.store, flight, seats); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"flight_id":     flight.ID,
		"flight_number": flight.FlightNumber,
		"total_seats":   flight.TotalSeats,
	}).Info("flight created")

	if s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			s.logger.WithError(err).Warn("failed to invalidate flights cache")
		}
	}
	return flight, nil
}

func normalizeAirport(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

var _ FlightUseCase = (*FlightService)(nil)
