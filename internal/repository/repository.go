package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
)

var (
	// ErrInsufficientInventory means the conditional decrement found fewer seats than requested.
	ErrInsufficientInventory = errors.New("insufficient inventory")
	// ErrDuplicateKey is returned when a unique constraint (PNR, booking reference) rejects a write.
	ErrDuplicateKey = errors.New("duplicate key")
)

type FlightRepository interface {
	Create(ctx context.Context, flight *domain.Flight) error
	List(ctx context.Context) ([]domain.Flight, error)
	// Search returns one page of matching flights by departure time and the
	// number of matches across all pages.
	Search(ctx context.Context, query domain.FlightSearch) ([]domain.Flight, int, error)
	Count(ctx context.Context) (int, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	AdjustAvailableSeats(ctx context.Context, flightID int64, delta int) error
}

// InventoryRepository mutates seat-class counters. Reserve and Release fuse the
// precondition check with the update so concurrent callers cannot oversell.
type InventoryRepository interface {
	Create(ctx context.Context, inv *domain.SeatClassInventory) error
	Get(ctx context.Context, flightID int64, class domain.SeatClass) (*domain.SeatClassInventory, error)
	ListByFlight(ctx context.Context, flightID int64) ([]domain.SeatClassInventory, error)
	Reserve(ctx context.Context, flightID int64, class domain.SeatClass, count int) (*domain.SeatClassInventory, error)
	Release(ctx context.Context, flightID int64, class domain.SeatClass, count int) (*domain.SeatClassInventory, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	IdentifierExists(ctx context.Context, pnr, reference string) (bool, error)
	GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Booking, error)
	List(ctx context.Context, limit, offset int) ([]domain.Booking, error)
	// UpdateStatus moves a booking from one status to another; it fails with
	// domain.ErrConcurrencyConflict when the stored status is no longer from.
	UpdateStatus(ctx context.Context, pnr string, from, to domain.BookingStatus) (*domain.Booking, error)
	CountByStatus(ctx context.Context) (map[domain.BookingStatus]int, error)
}

type PriceHistoryRepository interface {
	Append(ctx context.Context, entry *domain.PriceHistoryEntry) error
	ListSince(ctx context.Context, flightID int64, class domain.SeatClass, since time.Time) ([]domain.PriceHistoryEntry, error)
}

// Store groups the transactional repositories. Repositories obtained from the
// Store passed to fn take part in the same transaction; a nested WithinTx call
// behaves like a savepoint.
type Store interface {
	Flights() FlightRepository
	Inventory() InventoryRepository
	Bookings() BookingRepository
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// CreateFlight inserts a flight and one inventory row per seat class in a single
// transaction. The flight's seat counters are derived from the per-class totals.
func CreateFlight(ctx context.Context, store Store, flight *domain.Flight, seats map[domain.SeatClass]int) error {
	total := 0
	for class, n := range seats {
		if !class.Valid() || n < 0 {
			return fmt.Errorf("%w: %s=%d", domain.ErrInvalidArgument, class, n)
		}
		total += n
	}
	flight.TotalSeats = total
	flight.AvailableSeats = total
	if flight.Status == "" {
		flight.Status = domain.FlightStatusScheduled
	}

	return store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.Flights().Create(ctx, flight); err != nil {
			return err
		}
		for _, class := range domain.SeatClasses {
			n, ok := seats[class]
			if !ok {
				continue
			}
			inv := &domain.SeatClassInventory{
				FlightID:       flight.ID,
				SeatClass:      class,
				TotalSeats:     n,
				AvailableSeats: n,
			}
			if err := tx.Inventory().Create(ctx, inv); err != nil {
				return err
			}
		}
		return nil
	})
}
