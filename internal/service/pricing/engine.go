package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/repository"
	"github.com/sirupsen/logrus"
)

const DefaultTrendLookbackDays = 7

var classMultipliers = map[domain.SeatClass]float64{
	domain.SeatClassEconomy:        1.0,
	domain.SeatClassPremiumEconomy: 1.5,
	domain.SeatClassBusiness:       2.5,
	domain.SeatClassFirst:          4.0,
}

// ClassMultiplier scales the flight base fare for a cabin tier.
func ClassMultiplier(class domain.SeatClass) float64 {
	return classMultipliers[class]
}

type PricingUseCase interface {
	Quote(ctx context.Context, flightID int64, class domain.SeatClass, asOf time.Time) (*domain.PriceQuote, error)
	PriceTrend(ctx context.Context, flightID int64, class domain.SeatClass, lookbackDays int) ([]domain.PriceHistoryEntry, error)
	CompareClasses(ctx context.Context, flightID int64, asOf time.Time) ([]domain.PriceQuote, error)
}

type Engine struct {
	store        repository.Store
	history      repository.PriceHistoryRepository
	factors      FactorCalculator
	now          func() time.Time
	logger       *logrus.Logger
	trendDefault int
}

type EngineOption func(*Engine)

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func WithLogger(logger *logrus.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithTrendLookbackDays(days int) EngineOption {
	return func(e *Engine) {
		if days > 0 {
			e.trendDefault = days
		}
	}
}

func NewEngine(store repository.Store, history repository.PriceHistoryRepository, factors FactorCalculator, opts ...EngineOption) *Engine {
	e := &Engine{
		store:        store,
		history:      history,
		factors:      factors,
		now:          time.Now,
		logger:       logrus.StandardLogger(),
		trendDefault: DefaultTrendLookbackDays,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Quote prices one seat class of a flight as of asOf (now when zero) and records the quote.
func (e *Engine) Quote(ctx context.Context, flightID int64, class domain.SeatClass, asOf time.Time) (*domain.PriceQuote, error) {
	if !class.Valid() {
		return nil, fmt.Errorf("%w: unknown seat class %q", domain.ErrInvalidArgument, class)
	}
	flight, err := e.store.Flights().GetByID(ctx, flightID)
	if err != nil {
		return nil, err
	}
	inv, err := e.inventory(ctx, flightID, class)
	if err != nil {
		return nil, err
	}
	quote, err := e.Price(ctx, flight, class, inv, asOf)
	if err != nil {
		return nil, err
	}
	e.Record(ctx, quote)
	return quote, nil
}

// Price computes a quote from already-loaded records without recording it. The
// booking path calls it inside its transaction with the inventory snapshot it
// read; inv may be nil.
func (e *Engine) Price(ctx context.Context, flight *domain.Flight, class domain.SeatClass, inv *domain.SeatClassInventory, asOf time.Time) (*domain.PriceQuote, error) {
	multiplier, ok := classMultipliers[class]
	if !ok {
		return nil, fmt.Errorf("%w: unknown seat class %q", domain.ErrInvalidArgument, class)
	}
	if asOf.IsZero() {
		asOf = e.now()
	}

	factors := e.factors.Factors(flight, inv, asOf)
	// Round once at the end; the displayed base is rounded on its own.
	base := float64(flight.BaseFareCents) * multiplier
	return &domain.PriceQuote{
		FlightID:          flight.ID,
		SeatClass:         class,
		BasePriceCents:    int64(math.Round(base)),
		CurrentPriceCents: int64(math.Round(base * factors.Combined())),
		Factors:           factors,
		CalculatedAt:      asOf.UTC(),
	}, nil
}

func (e *Engine) PriceTrend(ctx context.Context, flightID int64, class domain.SeatClass, lookbackDays int) ([]domain.PriceHistoryEntry, error) {
	if !class.Valid() {
		return nil, fmt.Errorf("%w: unknown seat class %q", domain.ErrInvalidArgument, class)
	}
	if lookbackDays <= 0 {
		lookbackDays = e.trendDefault
	}
	if _, err := e.store.Flights().GetByID(ctx, flightID); err != nil {
		return nil, err
	}

	since := e.now().AddDate(0, 0, -lookbackDays)
	entries, err := e.history.ListSince(ctx, flightID, class, since)
	if err != nil {
		return nil, fmt.Errorf("price trend for flight %d/%s: %w", flightID, class, err)
	}
	return entries, nil
}

// CompareClasses quotes every cabin tier of a flight, cheapest tier first.
func (e *Engine) CompareClasses(ctx context.Context, flightID int64, asOf time.Time) ([]domain.PriceQuote, error) {
	flight, err := e.store.Flights().GetByID(ctx, flightID)
	if err != nil {
		return nil, err
	}
	inventories, err := e.store.Inventory().ListByFlight(ctx, flightID)
	if err != nil {
		return nil, err
	}
	byClass := make(map[domain.SeatClass]*domain.SeatClassInventory, len(inventories))
	for i := range inventories {
		byClass[inventories[i].SeatClass] = &inventories[i]
	}

	if asOf.IsZero() {
		asOf = e.now()
	}
	quotes := make([]domain.PriceQuote, 0, len(domain.SeatClasses))
	for _, class := range domain.SeatClasses {
		quote, err := e.Price(ctx, flight, class, byClass[class], asOf)
		if err != nil {
			return nil, err
		}
		e.Record(ctx, quote)
		quotes = append(quotes, *quote)
	}
	return quotes, nil
}

func (e *Engine) inventory(ctx context.Context, flightID int64, class domain.SeatClass) (*domain.SeatClassInventory, error) {
	inv, err := e.store.Inventory().Get(ctx, flightID, class)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return inv, err
}

// Record appends the quote to price history. The history is audit data, so a
// failed write is logged and never surfaces to the caller. Callers holding a
// store transaction record after it ends.
func (e *Engine) Record(ctx context.Context, quote *domain.PriceQuote) {
	if e.history == nil {
		return
	}
	entry := quote.HistoryEntry()
	if err := e.history.Append(ctx, &entry); err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"flight_id":  quote.FlightID,
			"seat_class": quote.SeatClass,
		}).Warn("failed to record price history")
	}
}

var _ PricingUseCase = (*Engine)(nil)
