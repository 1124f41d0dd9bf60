package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/randsrc"
	"github.com/Domenick1991/airreserve/internal/repository"
	"github.com/Domenick1991/airreserve/internal/service/inventory"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultIdentifierAttempts = 10
	DefaultConflictAttempts   = 3
	DefaultPageSize           = 20
	MaxPageSize               = 100
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.BookingConfirmation, error)
	CancelBooking(ctx context.Context, pnr string) (*domain.BookingConfirmation, error)
	GetBookingByPNR(ctx context.Context, pnr string) (*domain.BookingConfirmation, error)
	GetBookingHistory(ctx context.Context, email string) ([]domain.BookingConfirmation, error)
	ListBookings(ctx context.Context, page, pageSize int) ([]domain.BookingConfirmation, error)
	Stats(ctx context.Context) (*domain.BookingStats, error)
}

// Pricer quotes a seat from records already loaded inside the booking
// transaction. Record is called once the transaction has committed.
type Pricer interface {
	Price(ctx context.Context, flight *domain.Flight, class domain.SeatClass, inv *domain.SeatClassInventory, asOf time.Time) (*domain.PriceQuote, error)
	Record(ctx context.Context, quote *domain.PriceQuote)
}

type Cache interface {
	InvalidateFlights(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	store              repository.Store
	inventory          *inventory.InventoryService
	pricer             Pricer
	cache              Cache
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	rnd                randsrc.Source
	ids                *IdentifierGenerator
	validate           *validator.Validate
	logger             *logrus.Logger
	now                func() time.Time
	identifierAttempts int
	conflictAttempts   int
}

type BookingServiceOption func(*BookingService)

func WithLogger(logger *logrus.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

// WithRandSource drives both identifier generation and seat assignment.
func WithRandSource(rnd randsrc.Source) BookingServiceOption {
	return func(s *BookingService) {
		s.rnd = rnd
	}
}

func WithCache(cache Cache) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = cache
	}
}

func WithProducer(producer Producer, bookingTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = bookingTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithIdentifierAttempts(n int) BookingServiceOption {
	return func(s *BookingService) {
		if n > 0 {
			s.identifierAttempts = n
		}
	}
}

func WithConflictAttempts(n int) BookingServiceOption {
	return func(s *BookingService) {
		if n > 0 {
			s.conflictAttempts = n
		}
	}
}

func NewBookingService(
	store repository.Store,
	inventoryService *inventory.InventoryService,
	pricer Pricer,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		store:              store,
		inventory:          inventoryService,
		pricer:             pricer,
		validate:           newInputValidator(),
		logger:             logrus.StandardLogger(),
		now:                time.Now,
		identifierAttempts: DefaultIdentifierAttempts,
		conflictAttempts:   DefaultConflictAttempts,
	}
	for _, opt := range opts {
		opt(service)
	}
	if service.rnd == nil {
		service.rnd = randsrc.New(0)
	}
	service.ids = NewIdentifierGenerator(service.rnd)
	return service
}

// CreateBooking reserves one seat, prices it and stores a confirmed booking in a
// single transaction. A failure at any step rolls the reservation back.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.BookingConfirmation, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	class, err := domain.ParseSeatClass(input.SeatClass)
	if err != nil {
		return nil, err
	}

	var (
		confirmation *domain.BookingConfirmation
		quote        *domain.PriceQuote
	)
	err = s.withConflictRetry(ctx, "create_booking", func() error {
		var err error
		confirmation, quote, err = s.createOnce(ctx, input, class)
		return err
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"flight_id":  input.FlightID,
			"seat_class": class,
		}).Info("booking rejected")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"pnr":        confirmation.PNR,
		"flight_id":  confirmation.FlightID,
		"seat_class": confirmation.SeatClass,
		"price":      confirmation.PricePaidCents,
	}).Info("booking confirmed")

	s.pricer.Record(ctx, quote)
	s.afterCommit(ctx, domain.EventBookingCreated, confirmation)
	return confirmation, nil
}

func (s *BookingService) createOnce(ctx context.Context, input CreateBookingInput, class domain.SeatClass) (*domain.BookingConfirmation, *domain.PriceQuote, error) {
	var (
		confirmation *domain.BookingConfirmation
		quote        *domain.PriceQuote
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		flight, err := tx.Flights().GetByID(ctx, input.FlightID)
		if err != nil {
			return err
		}
		if !flight.Status.Bookable() {
			return fmt.Errorf("flight %d is %s: %w", flight.ID, flight.Status, domain.ErrFlightNotBookable)
		}

		reserved, err := s.inventory.WithStore(tx).Reserve(ctx, flight.ID, class, 1)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientInventory) || errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("flight %d/%s: %w", flight.ID, class, domain.ErrNoSeatsAvailable)
			}
			return err
		}

		// Price against the inventory as the passenger found it.
		before := *reserved
		before.AvailableSeats++
		before.BookedSeats--
		quote, err = s.pricer.Price(ctx, flight, class, &before, s.now())
		if err != nil {
			return err
		}

		booking := &domain.Booking{
			FlightID: flight.ID,
			Passenger: domain.Passenger{
				Name:  input.PassengerName,
				Email: input.PassengerEmail,
				Phone: input.PassengerPhone,
			},
			SeatClass:      class,
			SeatNumber:     pickSeat(s.rnd, class),
			PricePaidCents: quote.CurrentPriceCents,
			Status:         domain.BookingStatusConfirmed,
		}
		if err := s.insertWithUniqueIdentifiers(ctx, tx, booking); err != nil {
			return err
		}
		if err := tx.Flights().AdjustAvailableSeats(ctx, flight.ID, -1); err != nil {
			return err
		}
		flight.AvailableSeats--

		confirmation = &domain.BookingConfirmation{Booking: *booking, Flight: flight}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return confirmation, quote, nil
}

// insertWithUniqueIdentifiers draws identifiers until the store accepts the row.
// The existence check avoids most collisions; the unique constraint settles races.
func (s *BookingService) insertWithUniqueIdentifiers(ctx context.Context, tx repository.Store, booking *domain.Booking) error {
	for attempt := 1; attempt <= s.identifierAttempts; attempt++ {
		pnr, reference := s.ids.PNR(), s.ids.Reference()

		exists, err := tx.Bookings().IdentifierExists(ctx, pnr, reference)
		if err != nil {
			return err
		}
		if exists {
			s.logger.WithFields(logrus.Fields{"pnr": pnr, "attempt": attempt}).Debug("identifier collision")
			continue
		}

		booking.PNR, booking.BookingReference = pnr, reference
		err = tx.Bookings().Create(ctx, booking)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateKey) {
			return err
		}
		s.logger.WithFields(logrus.Fields{"pnr": pnr, "attempt": attempt}).Warn("identifier taken at insert")
	}
	booking.PNR, booking.BookingReference = "", ""
	return fmt.Errorf("%d attempts: %w", s.identifierAttempts, domain.ErrIdentifierExhaustion)
}

// CancelBooking flips a booking to cancelled and returns its seat to inventory atomically.
func (s *BookingService) CancelBooking(ctx context.Context, pnr string) (*domain.BookingConfirmation, error) {
	if pnr == "" {
		return nil, fmt.Errorf("%w: pnr is required", domain.ErrInvalidArgument)
	}

	var confirmation *domain.BookingConfirmation
	err := s.withConflictRetry(ctx, "cancel_booking", func() error {
		return s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
			current, err := tx.Bookings().GetByPNR(ctx, pnr)
			if err != nil {
				return err
			}
			if !current.Status.CanTransitionTo(domain.BookingStatusCancelled) {
				return fmt.Errorf("booking %s is %s: %w", pnr, current.Status, domain.ErrNotCancellable)
			}

			updated, err := tx.Bookings().UpdateStatus(ctx, pnr, current.Status, domain.BookingStatusCancelled)
			if err != nil {
				return err
			}
			if _, err := s.inventory.WithStore(tx).Release(ctx, updated.FlightID, updated.SeatClass, 1); err != nil {
				return err
			}
			if err := tx.Flights().AdjustAvailableSeats(ctx, updated.FlightID, 1); err != nil {
				return err
			}
			flight, err := tx.Flights().GetByID(ctx, updated.FlightID)
			if err != nil {
				return err
			}
			confirmation = &domain.BookingConfirmation{Booking: *updated, Flight: flight}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"pnr":        confirmation.PNR,
		"flight_id":  confirmation.FlightID,
		"seat_class": confirmation.SeatClass,
	}).Info("booking cancelled")

	s.afterCommit(ctx, domain.EventBookingCancelled, confirmation)
	return confirmation, nil
}

func (s *BookingService) GetBookingByPNR(ctx context.Context, pnr string) (*domain.BookingConfirmation, error) {
	booking, err := s.store.Bookings().GetByPNR(ctx, pnr)
	if err != nil {
		return nil, err
	}
	flight, err := s.store.Flights().GetByID(ctx, booking.FlightID)
	if err != nil {
		return nil, err
	}
	return &domain.BookingConfirmation{Booking: *booking, Flight: flight}, nil
}

// GetBookingHistory returns a passenger's bookings, newest first.
func (s *BookingService) GetBookingHistory(ctx context.Context, email string) ([]domain.BookingConfirmation, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidArgument)
	}
	bookings, err := s.store.Bookings().ListByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.withFlights(ctx, bookings)
}

func (s *BookingService) ListBookings(ctx context.Context, page, pageSize int) ([]domain.BookingConfirmation, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	bookings, err := s.store.Bookings().List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return s.withFlights(ctx, bookings)
}

// Stats summarises flights and bookings for the admin dashboard.
func (s *BookingService) Stats(ctx context.Context) (*domain.BookingStats, error) {
	flights, err := s.store.Flights().Count(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.Bookings().CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats := domain.NewBookingStats(flights, counts)
	return &stats, nil
}

func (s *BookingService) withFlights(ctx context.Context, bookings []domain.Booking) ([]domain.BookingConfirmation, error) {
	flights := make(map[int64]*domain.Flight)
	result := make([]domain.BookingConfirmation, 0, len(bookings))
	for _, b := range bookings {
		flight, ok := flights[b.FlightID]
		if !ok {
			var err error
			flight, err = s.store.Flights().GetByID(ctx, b.FlightID)
			if err != nil {
				return nil, err
			}
			flights[b.FlightID] = flight
		}
		result = append(result, domain.BookingConfirmation{Booking: b, Flight: flight})
	}
	return result, nil
}

// withConflictRetry reruns fn while it loses races to concurrent writers.
func (s *BookingService) withConflictRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.conflictAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, domain.ErrConcurrencyConflict) {
			return err
		}
		s.logger.WithError(err).WithFields(logrus.Fields{
			"op":      op,
			"attempt": attempt,
		}).Warn("concurrency conflict")
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

// afterCommit runs the side effects of a committed change. They are best effort:
// failures are logged and never undo the booking.
func (s *BookingService) afterCommit(ctx context.Context, eventType string, confirmation *domain.BookingConfirmation) {
	if s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			s.logger.WithError(err).Warn("failed to invalidate flights cache")
		}
	}
	if err := s.publish(ctx, eventType, confirmation); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"pnr":   confirmation.PNR,
			"event": eventType,
		}).Warn("failed to publish booking event")
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, confirmation *domain.BookingConfirmation) error {
	if s.producer == nil || s.bookingTopic == "" {
		return nil
	}
	event := domain.BookingEvent{
		EventID:          uuid.NewString(),
		Type:             eventType,
		PNR:              confirmation.PNR,
		BookingReference: confirmation.BookingReference,
		FlightID:         confirmation.FlightID,
		SeatClass:        confirmation.SeatClass,
		SeatNumber:       confirmation.SeatNumber,
		PassengerName:    confirmation.Passenger.Name,
		Email:            confirmation.Passenger.Email,
		PricePaidCents:   confirmation.PricePaidCents,
		Status:           confirmation.Status,
		OccurredAt:       s.now().UTC(),
	}
	if confirmation.Flight != nil {
		event.FlightNumber = confirmation.Flight.FlightNumber
	}

	if err := s.producer.Publish(ctx, s.bookingTopic, confirmation.PNR, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, confirmation.PNR, event)
	}
	return nil
}

var _ BookingUseCase = (*BookingService)(nil)
