package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewStore(t *testing.T) {
	pool := &pgxpool.Pool{}
	store := NewStore(pool)
	assert.NotNil(t, store)
	assert.NotNil(t, store.Flights())
	assert.NotNil(t, store.Inventory())
	assert.NotNil(t, store.Bookings())
}

func TestNewPriceHistoryRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewPriceHistoryRepository(pool)
	assert.NotNil(t, repo)
}

func TestClassifyPGError(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		target error
	}{
		{name: "no rows", err: pgx.ErrNoRows, target: domain.ErrNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505", ConstraintName: "bookings_pnr_key"}, target: ErrDuplicateKey},
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, target: domain.ErrConcurrencyConflict},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, target: domain.ErrConcurrencyConflict},
		{name: "check violation", err: &pgconn.PgError{Code: "23514", ConstraintName: "seat_inventory_conservation"}, target: domain.ErrInvariantViolation},
		{name: "wrapped unique violation", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), target: ErrDuplicateKey},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyPGError(tc.err)
			assert.True(t, errors.Is(got, tc.target), "got %v", got)
			assert.True(t, errors.Is(got, tc.err) || errors.As(got, new(*pgconn.PgError)))
		})
	}

	t.Run("passthrough", func(t *testing.T) {
		plain := errors.New("connection refused")
		assert.Equal(t, plain, classifyPGError(plain))
		assert.Nil(t, classifyPGError(nil))
	})
}
