package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `id, pnr, booking_reference, flight_id, passenger_name, passenger_email, passenger_phone, seat_class, COALESCE(seat_number, ''), price_paid_cents, status, created_at, updated_at`

type PGBookingRepository struct {
	db querier
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.PNR, &b.BookingReference, &b.FlightID, &b.Passenger.Name, &b.Passenger.Email, &b.Passenger.Phone, &b.SeatClass, &b.SeatNumber, &b.PricePaidCents, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) collect(rows pgx.Rows, err error) ([]domain.Booking, error) {
	if err != nil {
		return nil, classifyPGError(err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, classifyPGError(rows.Err())
}

// Create inserts the booking. The insert runs under a savepoint so a unique
// violation on pnr or booking_reference leaves the surrounding transaction usable.
func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	sp, err := r.db.Begin(ctx)
	if err != nil {
		return classifyPGError(err)
	}
	defer sp.Rollback(ctx)

	if err := sp.QueryRow(ctx, `INSERT INTO bookings (pnr, booking_reference, flight_id, passenger_name, passenger_email, passenger_phone, seat_class, seat_number, price_paid_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10)
		RETURNING id, created_at, updated_at`,
		booking.PNR, booking.BookingReference, booking.FlightID, booking.Passenger.Name, booking.Passenger.Email, booking.Passenger.Phone,
		booking.SeatClass, booking.SeatNumber, booking.PricePaidCents, booking.Status).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return classifyPGError(err)
	}
	return classifyPGError(sp.Commit(ctx))
}

func (r *PGBookingRepository) IdentifierExists(ctx context.Context, pnr, reference string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE pnr=$1 OR booking_reference=$2)`, pnr, reference).Scan(&exists)
	return exists, classifyPGError(err)
}

func (r *PGBookingRepository) GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE pnr=$1`, pnr))
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", pnr, classifyPGError(err))
	}
	return b, nil
}

func (r *PGBookingRepository) ListByEmail(ctx context.Context, email string) ([]domain.Booking, error) {
	return r.collect(r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE passenger_email=$1 ORDER BY created_at DESC, id DESC`, email))
}

func (r *PGBookingRepository) List(ctx context.Context, limit, offset int) ([]domain.Booking, error) {
	return r.collect(r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset))
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, pnr string, from, to domain.BookingStatus) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `UPDATE bookings SET status=$3, updated_at=now() WHERE pnr=$1 AND status=$2 RETURNING `+bookingColumns, pnr, from, to))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, classifyPGError(err)
	}
	if _, err := r.GetByPNR(ctx, pnr); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("booking %s is no longer %s: %w", pnr, from, domain.ErrConcurrencyConflict)
}

func (r *PGBookingRepository) CountByStatus(ctx context.Context) (map[domain.BookingStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, count(*) FROM bookings GROUP BY status`)
	if err != nil {
		return nil, classifyPGError(err)
	}
	defer rows.Close()

	counts := make(map[domain.BookingStatus]int)
	for rows.Next() {
		var (
			status domain.BookingStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, classifyPGError(rows.Err())
}

var _ BookingRepository = (*PGBookingRepository)(nil)
