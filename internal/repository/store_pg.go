package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx. Begin on a pgx.Tx opens a savepoint.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PGStore struct {
	db querier
}

func NewStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Flights() FlightRepository {
	return &PGFlightRepository{db: s.db}
}

func (s *PGStore) Inventory() InventoryRepository {
	return &PGInventoryRepository{db: s.db}
}

func (s *PGStore) Bookings() BookingRepository {
	return &PGBookingRepository{db: s.db}
}

func (s *PGStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", classifyPGError(err))
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &PGStore{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", classifyPGError(err))
	}
	return nil
}

// classifyPGError maps driver errors onto the sentinel errors the services match on.
func classifyPGError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%w: %w", domain.ErrConcurrencyConflict, err)
		case "23514":
			return fmt.Errorf("%w: %w", domain.ErrInvariantViolation, err)
		}
	}
	return err
}

var _ Store = (*PGStore)(nil)
