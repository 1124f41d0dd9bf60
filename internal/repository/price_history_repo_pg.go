package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGPriceHistoryRepository struct {
	db *pgxpool.Pool
}

func NewPriceHistoryRepository(db *pgxpool.Pool) *PGPriceHistoryRepository {
	return &PGPriceHistoryRepository{db: db}
}

func (r *PGPriceHistoryRepository) Append(ctx context.Context, entry *domain.PriceHistoryEntry) error {
	err := r.db.QueryRow(ctx, `INSERT INTO price_history (flight_id, seat_class, price_cents, demand_factor, time_factor, seat_availability_factor, calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		entry.FlightID, entry.SeatClass, entry.PriceCents, entry.Factors.Demand, entry.Factors.Time, entry.Factors.Availability, entry.CalculatedAt).
		Scan(&entry.ID)
	return classifyPGError(err)
}

func (r *PGPriceHistoryRepository) ListSince(ctx context.Context, flightID int64, class domain.SeatClass, since time.Time) ([]domain.PriceHistoryEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT id, flight_id, seat_class, price_cents, demand_factor, time_factor, seat_availability_factor, calculated_at
		FROM price_history WHERE flight_id=$1 AND seat_class=$2 AND calculated_at >= $3
		ORDER BY calculated_at, id`, flightID, class, since)
	if err != nil {
		return nil, classifyPGError(err)
	}
	defer rows.Close()

	entries := make([]domain.PriceHistoryEntry, 0)
	for rows.Next() {
		var e domain.PriceHistoryEntry
		if err := rows.Scan(&e.ID, &e.FlightID, &e.SeatClass, &e.PriceCents, &e.Factors.Demand, &e.Factors.Time, &e.Factors.Availability, &e.CalculatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, classifyPGError(rows.Err())
}

var _ PriceHistoryRepository = (*PGPriceHistoryRepository)(nil)
