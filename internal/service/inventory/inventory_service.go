package inventory

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/repository"
	"github.com/sirupsen/logrus"
)

type InventoryUseCase interface {
	Reserve(ctx context.Context, flightID int64, class domain.SeatClass, count int) (*domain.SeatClassInventory, error)
	Release(ctx context.Context, flightID int64, class domain.SeatClass, count int) (*domain.SeatClassInventory, error)
	Snapshot(ctx context.Context, flightID int64, class domain.SeatClass) (*domain.SeatClassInventory, error)
	List(ctx context.Context, flightID int64) ([]domain.SeatClassInventory, error)
}

// InventoryService guards the per-class seat counters. The repository does the
// conditional update; the service validates input and re-checks the returned row.
type InventoryService struct {
	store  repository.Store
	logger *logrus.Logger
}

func NewInventoryService(store repository.Store, logger *logrus.Logger) *InventoryService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &InventoryService{store: store, logger: logger}
}

// WithStore returns a service bound to store, typically the transaction scope handed out by WithinTx.
func (s *InventoryService) WithStore(store repository.Store) *InventoryService {
	return &InventoryService{store: store, logger: s.logger}
}

func (s *InventoryService) Reserve(ctx context.Context, flightID int64, class domain.SeatClass, count int) (*domain.SeatClassInventory, error) {
	if err := validate(class, count); err != nil {
		return nil, err
	}
	inv, err := s.store.Inventory().Reserve(ctx, flightID, class, count)
	if err != nil {
		return nil, err
	}
	if err := s.check(inv); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"flight_id":  flightID,
		"seat_class": class,
		"count":      count,
		"available":  inv.AvailableSeats,
	}).Debug("seats reserved")
	return inv, nil
}

func (s *InventoryService) Release(ctx context.Context, flightID int64, class domain.SeatClass, count int) (*domain.SeatClassInventory, error) {
	if err := validate(class, count); err != nil {
		return nil, err
	}
	inv, err := s.store.Inventory().Release(ctx, flightID, class, count)
	if err != nil {
		return nil, err
	}
	if err := s.check(inv); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"flight_id":  flightID,
		"seat_class": class,
		"count":      count,
		"available":  inv.AvailableSeats,
	}).Debug("seats released")
	return inv, nil
}

func (s *InventoryService) Snapshot(ctx context.Context, flightID int64, class domain.SeatClass) (*domain.SeatClassInventory, error) {
	if !class.Valid() {
		return nil, fmt.Errorf("%w: unknown seat class %q", domain.ErrInvalidArgument, class)
	}
	return s.store.Inventory().Get(ctx, flightID, class)
}

func (s *InventoryService) List(ctx context.Context, flightID int64) ([]domain.SeatClassInventory, error) {
	return s.store.Inventory().ListByFlight(ctx, flightID)
}

func (s *InventoryService) check(inv *domain.SeatClassInventory) error {
	if inv.Consistent() {
		return nil
	}
	s.logger.WithFields(logrus.Fields{
		"flight_id":  inv.FlightID,
		"seat_class": inv.SeatClass,
		"total":      inv.TotalSeats,
		"available":  inv.AvailableSeats,
		"booked":     inv.BookedSeats,
	}).Error("inventory counters out of balance")
	return fmt.Errorf("inventory %d/%s: %w", inv.FlightID, inv.SeatClass, domain.ErrInvariantViolation)
}

func validate(class domain.SeatClass, count int) error {
	if !class.Valid() {
		return fmt.Errorf("%w: unknown seat class %q", domain.ErrInvalidArgument, class)
	}
	if count <= 0 {
		return fmt.Errorf("%w: seat count must be positive, got %d", domain.ErrInvalidArgument, count)
	}
	return nil
}

var _ InventoryUseCase = (*InventoryService)(nil)
