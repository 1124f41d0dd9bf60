package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFlight(t *testing.T, store *MemoryStore, seats map[domain.SeatClass]int) *domain.Flight {
	t.Helper()
	flight := &domain.Flight{
		FlightNumber:  "SU1234",
		FromAirport:   "SVO",
		ToAirport:     "LED",
		DepartureTime: time.Date(2026, 11, 20, 8, 0, 0, 0, time.UTC),
		ArrivalTime:   time.Date(2026, 11, 20, 9, 30, 0, 0, time.UTC),
		BaseFareCents: 450000,
	}
	require.NoError(t, store.CreateFlight(context.Background(), flight, seats))
	return flight
}

func TestMemoryStore_CreateFlight(t *testing.T) {
	store := NewMemoryStore()
	flight := seedFlight(t, store, map[domain.SeatClass]int{domain.SeatClassEconomy: 100, domain.SeatClassBusiness: 20})

	got, err := store.Flights().GetByID(context.Background(), flight.ID)
	require.NoError(t, err)
	assert.Equal(t, 120, got.TotalSeats)
	assert.Equal(t, 120, got.AvailableSeats)
	assert.Equal(t, domain.FlightStatusScheduled, got.Status)

	inventories, err := store.Inventory().ListByFlight(context.Background(), flight.ID)
	require.NoError(t, err)
	require.Len(t, inventories, 2)
	assert.Equal(t, domain.SeatClassEconomy, inventories[0].SeatClass)
	assert.Equal(t, domain.SeatClassBusiness, inventories[1].SeatClass)
}

func TestMemoryStore_CreateFlight_RejectsBadSeatsAtomically(t *testing.T) {
	store := NewMemoryStore()
	flight := &domain.Flight{FlightNumber: "SU1", FromAirport: "SVO", ToAirport: "LED"}
	err := store.CreateFlight(context.Background(), flight, map[domain.SeatClass]int{domain.SeatClass("cargo"): 5})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	n, err := store.Flights().Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateFlight_RollsBackFlightWhenInventoryFails(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seeded := seedFlight(t, store, map[domain.SeatClass]int{domain.SeatClassEconomy: 10})

	failing := failingInventoryStore{Store: store}
	flight := &domain.Flight{FlightNumber: "SU2", FromAirport: "SVO", ToAirport: "AER"}
	err := CreateFlight(ctx, failing, flight, map[domain.SeatClass]int{domain.SeatClassEconomy: 5})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	n, err := store.Flights().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = store.Flights().GetByID(ctx, seeded.ID+1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// failingInventoryStore rejects every inventory insert as a duplicate.
type failingInventoryStore struct {
	Store
}

func (s failingInventoryStore) Inventory() InventoryRepository {
	return failingInventory{InventoryRepository: s.Store.Inventory()}
}

func (s failingInventoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		return fn(ctx, failingInventoryStore{Store: tx})
	})
}

type failingInventory struct {
	InventoryRepository
}

func (failingInventory) Create(context.Context, *domain.SeatClassInventory) error {
	return ErrDuplicateKey
}

func TestMemoryStore_InventoryCreate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	flight := seedFlight(t, store, map[domain.SeatClass]int{domain.SeatClassEconomy: 10})

	first := &domain.SeatClassInventory{FlightID: flight.ID, SeatClass: domain.SeatClassFirst, TotalSeats: 4, AvailableSeats: 4}
	require.NoError(t, store.Inventory().Create(ctx, first))

	dup := &domain.SeatClassInventory{FlightID: flight.ID, SeatClass: domain.SeatClassEconomy, TotalSeats: 1, AvailableSeats: 1}
	assert.ErrorIs(t, store.Inventory().Create(ctx, dup), ErrDuplicateKey)

	orphan := &domain.SeatClassInventory{FlightID: flight.ID + 1, SeatClass: domain.SeatClassEconomy, TotalSeats: 1, AvailableSeats: 1}
	assert.ErrorIs(t, store.Inventory().Create(ctx, orphan), domain.ErrNotFound)

	broken := &domain.SeatClassInventory{FlightID: flight.ID, SeatClass: domain.SeatClassBusiness, TotalSeats: 3, AvailableSeats: 1}
	assert.ErrorIs(t, store.Inventory().Create(ctx, broken), domain.ErrInvariantViolation)
}

func TestMemoryStore_SearchFlights(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	day := time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC)
	add := func(number, from, to string, departure time.Time, status domain.FlightStatus) {
		t.Helper()
		f := &domain.Flight{FlightNumber: number, FromAirport: from, ToAirport: to, DepartureTime: departure, ArrivalTime: departure.Add(time.Hour), Status: status}
		require.NoError(t, store.CreateFlight(ctx, f, map[domain.SeatClass]int{domain.SeatClassEconomy: 5}))
	}
	add("SU3", "SVO", "LED", day.Add(18*time.Hour), domain.FlightStatusScheduled)
	add("SU1", "SVO", "LED", day.Add(6*time.Hour), domain.FlightStatusScheduled)
	add("SU2", "SVO", "LED", day.Add(12*time.Hour), domain.FlightStatusOnTime)
	add("SU4", "SVO", "LED", day.Add(14*time.Hour), domain.FlightStatusDelayed)
	add("SU5", "SVO", "LED", day.Add(30*time.Hour), domain.FlightStatusScheduled)
	add("SU6", "LED", "SVO", day.Add(9*time.Hour), domain.FlightStatusScheduled)

	query := domain.FlightSearch{From: "SVO", To: "LED", Date: day, Page: 1, PageSize: 2}
	page, total, err := store.Flights().Search(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "SU1", page[0].FlightNumber)
	assert.Equal(t, "SU2", page[1].FlightNumber)

	query.Page = 2
	page, total, err = store.Flights().Search(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "SU3", page[0].FlightNumber)

	query.Page = 3
	page, _, err = store.Flights().Search(ctx, query)
	require.NoError(t, err)
	assert.Empty(t, page)

	n, err := store.Flights().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestMemoryStore_ReserveRelease(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	flight := seedFlight(t, store, map[domain.SeatClass]int{domain.SeatClassEconomy: 2})

	inv, err := store.Inventory().Reserve(ctx, flight.ID, domain.SeatClassEconomy, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, inv.AvailableSeats)
	assert.Equal(t, 2, inv.BookedSeats)

	_, err = store.Inventory().Reserve(ctx, flight.ID, domain.SeatClassEconomy, 1)
	assert.ErrorIs(t, err, ErrInsufficientInventory)

	inv, err = store.Inventory().Release(ctx, flight.ID, domain.SeatClassEconomy, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, inv.AvailableSeats)
	assert.Equal(t, 0, inv.BookedSeats)

	_, err = store.Inventory().Release(ctx, flight.ID, domain.SeatClassEconomy, 1)
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)

	_, err = store.Inventory().Reserve(ctx, flight.ID, domain.SeatClassFirst, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_WithinTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	flight := seedFlight(t, store, map[domain.SeatClass]int{domain.SeatClassEconomy: 5})
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := tx.Inventory().Reserve(ctx, flight.ID, domain.SeatClassEconomy, 1); err != nil {
			return err
		}
		if err := tx.Flights().AdjustAvailableSeats(ctx, flight.ID, -1); err != nil {
			return err
		}
		if err := tx.Bookings().Create(ctx, &domain.Booking{PNR: "ABC123", BookingReference: "ABCDEFGHIJ", FlightID: flight.ID}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	inv, err := store.Inventory().Get(ctx, flight.ID, domain.SeatClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, 5, inv.AvailableSeats)
	assert.Equal(t, 0, inv.BookedSeats)

	f, err := store.Flights().GetByID(ctx, flight.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, f.AvailableSeats)

	exists, err := store.Bookings().IdentifierExists(ctx, "ABC123", "ABCDEFGHIJ")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStore_NestedTxActsAsSavepoint(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	flight := seedFlight(t, store, map[domain.SeatClass]int{domain.SeatClassEconomy: 5})

	err := store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := tx.Inventory().Reserve(ctx, flight.ID, domain.SeatClassEconomy, 1); err != nil {
			return err
		}
		nestedErr := tx.WithinTx(ctx, func(ctx context.Context, inner Store) error {
			if _, err := inner.Inventory().Reserve(ctx, flight.ID, domain.SeatClassEconomy, 1); err != nil {
				return err
			}
			return errors.New("inner failure")
		})
		assert.Error(t, nestedErr)
		return nil
	})
	require.NoError(t, err)

	inv, err := store.Inventory().Get(ctx, flight.ID, domain.SeatClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, 4, inv.AvailableSeats)
	assert.Equal(t, 1, inv.BookedSeats)
}

func TestMemoryStore_EscapedTxStoreIsClosed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	flight := seedFlight(t, store, map[domain.SeatClass]int{domain.SeatClassEconomy: 1})

	var escaped Store
	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		escaped = tx
		return nil
	}))

	_, err := escaped.Inventory().Reserve(ctx, flight.ID, domain.SeatClassEconomy, 1)
	assert.ErrorIs(t, err, errTxClosed)
}

func TestMemoryStore_ConcurrentReserveNeverOversells(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	flight := seedFlight(t, store, map[domain.SeatClass]int{domain.SeatClassEconomy: 10})

	var succeeded, rejected int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Inventory().Reserve(ctx, flight.ID, domain.SeatClassEconomy, 1)
			switch {
			case err == nil:
				atomic.AddInt32(&succeeded, 1)
			case errors.Is(err, ErrInsufficientInventory):
				atomic.AddInt32(&rejected, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), succeeded)
	assert.Equal(t, int32(40), rejected)

	inv, err := store.Inventory().Get(ctx, flight.ID, domain.SeatClassEconomy)
	require.NoError(t, err)
	assert.True(t, inv.Consistent())
	assert.Equal(t, 0, inv.AvailableSeats)
}

func TestMemoryStore_Bookings(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(WithMemoryClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	flight := seedFlight(t, store, map[domain.SeatClass]int{domain.SeatClassEconomy: 10})

	first := &domain.Booking{PNR: "AAAAAA", BookingReference: "AAAAAAAAAA", FlightID: flight.ID, Passenger: domain.Passenger{Email: "a@example.com"}, Status: domain.BookingStatusConfirmed}
	second := &domain.Booking{PNR: "BBBBBB", BookingReference: "BBBBBBBBBB", FlightID: flight.ID, Passenger: domain.Passenger{Email: "a@example.com"}, Status: domain.BookingStatusConfirmed}
	require.NoError(t, store.Bookings().Create(ctx, first))
	require.NoError(t, store.Bookings().Create(ctx, second))

	dup := &domain.Booking{PNR: "AAAAAA", BookingReference: "CCCCCCCCCC", FlightID: flight.ID}
	assert.ErrorIs(t, store.Bookings().Create(ctx, dup), ErrDuplicateKey)
	dup = &domain.Booking{PNR: "CCCCCC", BookingReference: "BBBBBBBBBB", FlightID: flight.ID}
	assert.ErrorIs(t, store.Bookings().Create(ctx, dup), ErrDuplicateKey)

	history, err := store.Bookings().ListByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "BBBBBB", history[0].PNR)
	assert.Equal(t, "AAAAAA", history[1].PNR)

	page, err := store.Bookings().List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "AAAAAA", page[0].PNR)

	updated, err := store.Bookings().UpdateStatus(ctx, "AAAAAA", domain.BookingStatusConfirmed, domain.BookingStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, updated.Status)

	_, err = store.Bookings().UpdateStatus(ctx, "AAAAAA", domain.BookingStatusConfirmed, domain.BookingStatusCancelled)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	_, err = store.Bookings().GetByPNR(ctx, "ZZZZZZ")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	counts, err := store.Bookings().CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[domain.BookingStatus]int{
		domain.BookingStatusConfirmed: 1,
		domain.BookingStatusCancelled: 1,
	}, counts)
}

func TestMemoryPriceHistory_ListSince(t *testing.T) {
	ctx := context.Background()
	history := NewMemoryPriceHistory()
	base := time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)

	for _, offset := range []int{5, 1, 3, 10} {
		require.NoError(t, history.Append(ctx, &domain.PriceHistoryEntry{
			FlightID:     1,
			SeatClass:    domain.SeatClassEconomy,
			PriceCents:   int64(offset * 100),
			CalculatedAt: base.AddDate(0, 0, offset),
		}))
	}
	require.NoError(t, history.Append(ctx, &domain.PriceHistoryEntry{FlightID: 1, SeatClass: domain.SeatClassFirst, CalculatedAt: base.AddDate(0, 0, 4)}))

	entries, err := history.ListSince(ctx, 1, domain.SeatClassEconomy, base.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(300), entries[0].PriceCents)
	assert.Equal(t, int64(500), entries[1].PriceCents)
	assert.Equal(t, int64(1000), entries[2].PriceCents)
}
