package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/jackc/pgx/v5"
)

const flightColumns = `id, flight_number, from_airport, to_airport, departure_time, arrival_time, total_seats, available_seats, base_fare_cents, status, created_at, updated_at`

type PGFlightRepository struct {
	db querier
}

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.FlightNumber, &f.FromAirport, &f.ToAirport, &f.DepartureTime, &f.ArrivalTime, &f.TotalSeats, &f.AvailableSeats, &f.BaseFareCents, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	err := r.db.QueryRow(ctx, `INSERT INTO flights (flight_number, from_airport, to_airport, departure_time, arrival_time, total_seats, available_seats, base_fare_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		flight.FlightNumber, flight.FromAirport, flight.ToAirport, flight.DepartureTime, flight.ArrivalTime,
		flight.TotalSeats, flight.AvailableSeats, flight.BaseFareCents, flight.Status).
		Scan(&flight.ID, &flight.CreatedAt, &flight.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create flight %s: %w", flight.FlightNumber, classifyPGError(err))
	}
	return nil
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	return r.collect(r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time`))
}

const searchFilter = ` FROM flights WHERE from_airport=$1 AND to_airport=$2
	AND departure_time >= $3 AND departure_time < $4 AND status IN ('scheduled', 'on_time')`

func (r *PGFlightRepository) Search(ctx context.Context, query domain.FlightSearch) ([]domain.Flight, int, error) {
	start, end := query.Window()

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*)`+searchFilter, query.From, query.To, start, end).Scan(&total); err != nil {
		return nil, 0, classifyPGError(err)
	}
	flights, err := r.collect(r.db.Query(ctx, `SELECT `+flightColumns+searchFilter+` ORDER BY departure_time, id LIMIT $5 OFFSET $6`,
		query.From, query.To, start, end, query.PageSize, query.Offset()))
	if err != nil {
		return nil, 0, err
	}
	return flights, total, nil
}

func (r *PGFlightRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM flights`).Scan(&n)
	return n, classifyPGError(err)
}

func (r *PGFlightRepository) collect(rows pgx.Rows, err error) ([]domain.Flight, error) {
	if err != nil {
		return nil, classifyPGError(err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, classifyPGError(rows.Err())
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	f, err := scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id))
	if err != nil {
		return nil, fmt.Errorf("flight %d: %w", id, classifyPGError(err))
	}
	return f, nil
}

// AdjustAvailableSeats applies delta to the aggregate counter. The table's CHECK
// constraint rejects a result outside [0, total_seats].
func (r *PGFlightRepository) AdjustAvailableSeats(ctx context.Context, flightID int64, delta int) error {
	res, err := r.db.Exec(ctx, `UPDATE flights SET available_seats = available_seats + $2, updated_at = now() WHERE id=$1`, flightID, delta)
	if err != nil {
		return classifyPGError(err)
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("flight %d: %w", flightID, domain.ErrNotFound)
	}
	return nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
