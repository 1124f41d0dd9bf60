package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/jackc/pgx/v5"
)

const inventoryColumns = `flight_id, seat_class, total_seats, available_seats, booked_seats, last_updated`

type PGInventoryRepository struct {
	db querier
}

func scanInventory(row pgx.Row) (*domain.SeatClassInventory, error) {
	var inv domain.SeatClassInventory
	if err := row.Scan(&inv.FlightID, &inv.SeatClass, &inv.TotalSeats, &inv.AvailableSeats, &inv.BookedSeats, &inv.LastUpdated); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *PGInventoryRepository) Create(ctx context.Context, inv *domain.SeatClassInventory) error {
	err := r.db.QueryRow(ctx, `INSERT INTO seat_inventory (flight_id, seat_class, total_seats, available_seats, booked_seats)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING last_updated`,
		inv.FlightID, inv.SeatClass, inv.TotalSeats, inv.AvailableSeats, inv.BookedSeats).Scan(&inv.LastUpdated)
	if err != nil {
		return fmt.Errorf("inventory %d/%s: %w", inv.FlightID, inv.SeatClass, classifyPGError(err))
	}
	return nil
}

func (r *PGInventoryRepository) Get(ctx context.Context, flightID int64, class domain.SeatClass) (*domain.SeatClassInventory, error) {
	inv, err := scanInventory(r.db.QueryRow(ctx, `SELECT `+inventoryColumns+` FROM seat_inventory WHERE flight_id=$1 AND seat_class=$2`, flightID, class))
	if err != nil {
		return nil, fmt.Errorf("inventory %d/%s: %w", flightID, class, classifyPGError(err))
	}
	return inv, nil
}

func (r *PGInventoryRepository) ListByFlight(ctx context.Context, flightID int64) ([]domain.SeatClassInventory, error) {
	rows, err := r.db.Query(ctx, `SELECT `+inventoryColumns+` FROM seat_inventory WHERE flight_id=$1
		ORDER BY array_position(ARRAY['economy','premium_economy','business','first'], seat_class::text)`, flightID)
	if err != nil {
		return nil, classifyPGError(err)
	}
	defer rows.Close()

	inventories := make([]domain.SeatClassInventory, 0, len(domain.SeatClasses))
	for rows.Next() {
		inv, err := scanInventory(rows)
		if err != nil {
			return nil, err
		}
		inventories = append(inventories, *inv)
	}
	return inventories, classifyPGError(rows.Err())
}

// Reserve decrements available and increments booked in one conditional UPDATE.
// The row lock taken by the UPDATE serialises concurrent reservations on the same key.
func (r *PGInventoryRepository) Reserve(ctx context.Context, flightID int64, class domain.SeatClass, count int) (*domain.SeatClassInventory, error) {
	inv, err := scanInventory(r.db.QueryRow(ctx, `UPDATE seat_inventory
		SET available_seats = available_seats - $3, booked_seats = booked_seats + $3, last_updated = now()
		WHERE flight_id=$1 AND seat_class=$2 AND available_seats >= $3
		RETURNING `+inventoryColumns, flightID, class, count))
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, classifyPGError(err)
	}
	if _, err := r.Get(ctx, flightID, class); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("inventory %d/%s: %w", flightID, class, ErrInsufficientInventory)
}

func (r *PGInventoryRepository) Release(ctx context.Context, flightID int64, class domain.SeatClass, count int) (*domain.SeatClassInventory, error) {
	inv, err := scanInventory(r.db.QueryRow(ctx, `UPDATE seat_inventory
		SET available_seats = available_seats + $3, booked_seats = booked_seats - $3, last_updated = now()
		WHERE flight_id=$1 AND seat_class=$2 AND booked_seats >= $3
		RETURNING `+inventoryColumns, flightID, class, count))
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, classifyPGError(err)
	}
	if _, err := r.Get(ctx, flightID, class); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("release %d seat(s) on %d/%s: %w", count, flightID, class, domain.ErrInvariantViolation)
}

var _ InventoryRepository = (*PGInventoryRepository)(nil)
