package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
)

var errTxClosed = errors.New("transaction already closed")

type inventoryKey struct {
	flightID int64
	class    domain.SeatClass
}

type memState struct {
	mu            sync.Mutex
	flights       map[int64]domain.Flight
	inventory     map[inventoryKey]domain.SeatClassInventory
	bookings      map[int64]domain.Booking
	pnrIndex      map[string]int64
	refIndex      map[string]int64
	nextFlightID  int64
	nextBookingID int64
}

type memTx struct {
	undo   []func()
	closed bool
}

func (tx *memTx) rollbackTo(mark int) {
	for i := len(tx.undo) - 1; i >= mark; i-- {
		tx.undo[i]()
	}
	tx.undo = tx.undo[:mark]
}

// MemoryStore is an in-process Store. A transaction holds the store-wide lock
// for its whole duration and keeps an undo log, so a failed transaction leaves
// no trace.
type MemoryStore struct {
	state *memState
	tx    *memTx
	now   func() time.Time
}

type MemoryStoreOption func(*MemoryStore)

func WithMemoryClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		state: &memState{
			flights:   make(map[int64]domain.Flight),
			inventory: make(map[inventoryKey]domain.SeatClassInventory),
			bookings:  make(map[int64]domain.Booking),
			pnrIndex:  make(map[string]int64),
			refIndex:  make(map[string]int64),
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Flights() FlightRepository {
	return &memFlightRepository{store: s}
}

func (s *MemoryStore) Inventory() InventoryRepository {
	return &memInventoryRepository{store: s}
}

func (s *MemoryStore) Bookings() BookingRepository {
	return &memBookingRepository{store: s}
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		if s.tx.closed {
			return errTxClosed
		}
		mark := len(s.tx.undo)
		if err := fn(ctx, s); err != nil {
			s.tx.rollbackTo(mark)
			return err
		}
		return nil
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	tx := &memTx{}
	defer func() { tx.closed = true }()

	scoped := &MemoryStore{state: s.state, tx: tx, now: s.now}
	if err := fn(ctx, scoped); err != nil {
		tx.rollbackTo(0)
		return err
	}
	return nil
}

// CreateFlight registers a flight together with its seat-class inventory rows.
func (s *MemoryStore) CreateFlight(ctx context.Context, flight *domain.Flight, seats map[domain.SeatClass]int) error {
	return CreateFlight(ctx, s, flight, seats)
}

// SetFlightStatus is used by catalog tooling and tests; the booking core never changes flight status.
func (s *MemoryStore) SetFlightStatus(ctx context.Context, flightID int64, status domain.FlightStatus) error {
	return s.exec(ctx, func(st *memState) error {
		f, ok := st.flights[flightID]
		if !ok {
			return fmt.Errorf("flight %d: %w", flightID, domain.ErrNotFound)
		}
		f.Status = status
		f.UpdatedAt = s.now()
		st.flights[flightID] = f
		return nil
	})
}

func (s *MemoryStore) exec(ctx context.Context, fn func(st *memState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		if s.tx.closed {
			return errTxClosed
		}
		return fn(s.state)
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return fn(s.state)
}

func (s *MemoryStore) onRollback(undo func()) {
	if s.tx != nil {
		s.tx.undo = append(s.tx.undo, undo)
	}
}

type memFlightRepository struct {
	store *MemoryStore
}

func (r *memFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	return r.store.exec(ctx, func(st *memState) error {
		now := r.store.now()
		st.nextFlightID++
		flight.ID = st.nextFlightID
		flight.CreatedAt = now
		flight.UpdatedAt = now
		st.flights[flight.ID] = *flight

		id := flight.ID
		r.store.onRollback(func() { delete(st.flights, id) })
		return nil
	})
}

func (r *memFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	var flights []domain.Flight
	err := r.store.exec(ctx, func(st *memState) error {
		flights = make([]domain.Flight, 0, len(st.flights))
		for _, f := range st.flights {
			flights = append(flights, f)
		}
		return nil
	})
	sort.Slice(flights, func(i, j int) bool {
		if flights[i].DepartureTime.Equal(flights[j].DepartureTime) {
			return flights[i].ID < flights[j].ID
		}
		return flights[i].DepartureTime.Before(flights[j].DepartureTime)
	})
	return flights, err
}

func (r *memFlightRepository) Search(ctx context.Context, query domain.FlightSearch) ([]domain.Flight, int, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	matched := make([]domain.Flight, 0)
	for _, f := range all {
		if query.Matches(f) {
			matched = append(matched, f)
		}
	}

	total := len(matched)
	offset := query.Offset()
	if offset >= total {
		return []domain.Flight{}, total, nil
	}
	matched = matched[offset:]
	if query.PageSize > 0 && query.PageSize < len(matched) {
		matched = matched[:query.PageSize]
	}
	return matched, total, nil
}

func (r *memFlightRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.store.exec(ctx, func(st *memState) error {
		n = len(st.flights)
		return nil
	})
	return n, err
}

func (r *memFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	var flight domain.Flight
	err := r.store.exec(ctx, func(st *memState) error {
		f, ok := st.flights[id]
		if !ok {
			return fmt.Errorf("flight %d: %w", id, domain.ErrNotFound)
		}
		flight = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &flight, nil
}

func (r *memFlightRepository) AdjustAvailableSeats(ctx context.Context, flightID int64, delta int) error {
	return r.store.exec(ctx, func(st *memState) error {
		prev, ok := st.flights[flightID]
		if !ok {
			return fmt.Errorf("flight %d: %w", flightID, domain.ErrNotFound)
		}
		next := prev
		next.AvailableSeats += delta
		if next.AvailableSeats < 0 || next.AvailableSeats > next.TotalSeats {
			return fmt.Errorf("flight %d available seats %d: %w", flightID, next.AvailableSeats, domain.ErrInvariantViolation)
		}
		next.UpdatedAt = r.store.now()
		st.flights[flightID] = next
		r.store.onRollback(func() { st.flights[flightID] = prev })
		return nil
	})
}

type memInventoryRepository struct {
	store *MemoryStore
}

func (r *memInventoryRepository) Create(ctx context.Context, inv *domain.SeatClassInventory) error {
	return r.store.exec(ctx, func(st *memState) error {
		if !inv.Consistent() {
			return fmt.Errorf("inventory %d/%s: %w", inv.FlightID, inv.SeatClass, domain.ErrInvariantViolation)
		}
		if _, ok := st.flights[inv.FlightID]; !ok {
			return fmt.Errorf("flight %d: %w", inv.FlightID, domain.ErrNotFound)
		}
		key := inventoryKey{inv.FlightID, inv.SeatClass}
		if _, taken := st.inventory[key]; taken {
			return fmt.Errorf("inventory %d/%s: %w", inv.FlightID, inv.SeatClass, ErrDuplicateKey)
		}
		inv.LastUpdated = r.store.now()
		st.inventory[key] = *inv
		r.store.onRollback(func() { delete(st.inventory, key) })
		return nil
	})
}

func (r *memInventoryRepository) Get(ctx context.Context, flightID int64, class domain.SeatClass) (*domain.SeatClassInventory, error) {
	var inv domain.SeatClassInventory
	err := r.store.exec(ctx, func(st *memState) error {
		row, ok := st.inventory[inventoryKey{flightID, class}]
		if !ok {
			return fmt.Errorf("inventory %d/%s: %w", flightID, class, domain.ErrNotFound)
		}
		inv = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *memInventoryRepository) ListByFlight(ctx context.Context, flightID int64) ([]domain.SeatClassInventory, error) {
	inventories := make([]domain.SeatClassInventory, 0, len(domain.SeatClasses))
	err := r.store.exec(ctx, func(st *memState) error {
		for _, class := range domain.SeatClasses {
			if row, ok := st.inventory[inventoryKey{flightID, class}]; ok {
				inventories = append(inventories, row)
			}
		}
		return nil
	})
	return inventories, err
}

func (r *memInventoryRepository) Reserve(ctx context.Context, flightID int64, class domain.SeatClass, count int) (*domain.SeatClassInventory, error) {
	return r.mutate(ctx, flightID, class, func(row *domain.SeatClassInventory) error {
		if row.AvailableSeats < count {
			return fmt.Errorf("inventory %d/%s: %w", flightID, class, ErrInsufficientInventory)
		}
		row.AvailableSeats -= count
		row.BookedSeats += count
		return nil
	})
}

func (r *memInventoryRepository) Release(ctx context.Context, flightID int64, class domain.SeatClass, count int) (*domain.SeatClassInventory, error) {
	return r.mutate(ctx, flightID, class, func(row *domain.SeatClassInventory) error {
		if row.BookedSeats < count {
			return fmt.Errorf("release %d seat(s) on %d/%s: %w", count, flightID, class, domain.ErrInvariantViolation)
		}
		row.AvailableSeats += count
		row.BookedSeats -= count
		return nil
	})
}

func (r *memInventoryRepository) mutate(ctx context.Context, flightID int64, class domain.SeatClass, apply func(*domain.SeatClassInventory) error) (*domain.SeatClassInventory, error) {
	var result domain.SeatClassInventory
	err := r.store.exec(ctx, func(st *memState) error {
		key := inventoryKey{flightID, class}
		prev, ok := st.inventory[key]
		if !ok {
			return fmt.Errorf("inventory %d/%s: %w", flightID, class, domain.ErrNotFound)
		}
		next := prev
		if err := apply(&next); err != nil {
			return err
		}
		if !next.Consistent() {
			return fmt.Errorf("inventory %d/%s: %w", flightID, class, domain.ErrInvariantViolation)
		}
		next.LastUpdated = r.store.now()
		st.inventory[key] = next
		r.store.onRollback(func() { st.inventory[key] = prev })
		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type memBookingRepository struct {
	store *MemoryStore
}

func (r *memBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return r.store.exec(ctx, func(st *memState) error {
		if _, taken := st.pnrIndex[booking.PNR]; taken {
			return fmt.Errorf("pnr %s: %w", booking.PNR, ErrDuplicateKey)
		}
		if _, taken := st.refIndex[booking.BookingReference]; taken {
			return fmt.Errorf("booking reference %s: %w", booking.BookingReference, ErrDuplicateKey)
		}
		if _, ok := st.flights[booking.FlightID]; !ok {
			return fmt.Errorf("flight %d: %w", booking.FlightID, domain.ErrNotFound)
		}

		st.nextBookingID++
		now := r.store.now()
		booking.ID = st.nextBookingID
		booking.CreatedAt = now
		booking.UpdatedAt = now

		st.bookings[booking.ID] = *booking
		st.pnrIndex[booking.PNR] = booking.ID
		st.refIndex[booking.BookingReference] = booking.ID

		id, pnr, ref := booking.ID, booking.PNR, booking.BookingReference
		r.store.onRollback(func() {
			delete(st.bookings, id)
			delete(st.pnrIndex, pnr)
			delete(st.refIndex, ref)
		})
		return nil
	})
}

func (r *memBookingRepository) IdentifierExists(ctx context.Context, pnr, reference string) (bool, error) {
	var exists bool
	err := r.store.exec(ctx, func(st *memState) error {
		_, pnrTaken := st.pnrIndex[pnr]
		_, refTaken := st.refIndex[reference]
		exists = pnrTaken || refTaken
		return nil
	})
	return exists, err
}

func (r *memBookingRepository) GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error) {
	var booking domain.Booking
	err := r.store.exec(ctx, func(st *memState) error {
		id, ok := st.pnrIndex[pnr]
		if !ok {
			return fmt.Errorf("booking %s: %w", pnr, domain.ErrNotFound)
		}
		booking = st.bookings[id]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *memBookingRepository) ListByEmail(ctx context.Context, email string) ([]domain.Booking, error) {
	return r.filter(ctx, func(b domain.Booking) bool { return b.Passenger.Email == email }, 0, 0)
}

func (r *memBookingRepository) List(ctx context.Context, limit, offset int) ([]domain.Booking, error) {
	return r.filter(ctx, func(domain.Booking) bool { return true }, limit, offset)
}

// filter returns matching bookings newest first; limit <= 0 means no limit.
func (r *memBookingRepository) filter(ctx context.Context, keep func(domain.Booking) bool, limit, offset int) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0)
	err := r.store.exec(ctx, func(st *memState) error {
		for _, b := range st.bookings {
			if keep(b) {
				bookings = append(bookings, b)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].ID > bookings[j].ID
		}
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})

	if offset > 0 {
		if offset >= len(bookings) {
			return []domain.Booking{}, nil
		}
		bookings = bookings[offset:]
	}
	if limit > 0 && limit < len(bookings) {
		bookings = bookings[:limit]
	}
	return bookings, nil
}

func (r *memBookingRepository) UpdateStatus(ctx context.Context, pnr string, from, to domain.BookingStatus) (*domain.Booking, error) {
	var updated domain.Booking
	err := r.store.exec(ctx, func(st *memState) error {
		id, ok := st.pnrIndex[pnr]
		if !ok {
			return fmt.Errorf("booking %s: %w", pnr, domain.ErrNotFound)
		}
		prev := st.bookings[id]
		if prev.Status != from {
			return fmt.Errorf("booking %s is no longer %s: %w", pnr, from, domain.ErrConcurrencyConflict)
		}
		next := prev
		next.Status = to
		next.UpdatedAt = r.store.now()
		st.bookings[id] = next
		r.store.onRollback(func() { st.bookings[id] = prev })
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *memBookingRepository) CountByStatus(ctx context.Context) (map[domain.BookingStatus]int, error) {
	counts := make(map[domain.BookingStatus]int)
	err := r.store.exec(ctx, func(st *memState) error {
		for _, b := range st.bookings {
			counts[b.Status]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// MemoryPriceHistory is the in-process PriceHistoryRepository. It has its own
// lock so quotes can be recorded while a store transaction is open.
type MemoryPriceHistory struct {
	mu      sync.Mutex
	entries []domain.PriceHistoryEntry
}

func NewMemoryPriceHistory() *MemoryPriceHistory {
	return &MemoryPriceHistory{}
}

func (h *MemoryPriceHistory) Append(ctx context.Context, entry *domain.PriceHistoryEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	entry.ID = int64(len(h.entries) + 1)
	h.entries = append(h.entries, *entry)
	return nil
}

func (h *MemoryPriceHistory) ListSince(ctx context.Context, flightID int64, class domain.SeatClass, since time.Time) ([]domain.PriceHistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := make([]domain.PriceHistoryEntry, 0)
	for _, e := range h.entries {
		if e.FlightID == flightID && e.SeatClass == class && !e.CalculatedAt.Before(since) {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CalculatedAt.Before(entries[j].CalculatedAt)
	})
	return entries, nil
}

var (
	_ Store                  = (*MemoryStore)(nil)
	_ PriceHistoryRepository = (*MemoryPriceHistory)(nil)
)
