package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/airreserve/config"
	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisCache(t *testing.T) {
	c := NewRedisCache(config.RedisConfig{Addr: "localhost:6379", DB: 2}, time.Minute)
	require.NotNil(t, c)
	assert.Equal(t, time.Minute, c.flightsTTL)
	assert.Equal(t, "localhost:6379", c.client.Options().Addr)
	assert.Equal(t, 2, c.client.Options().DB)
	assert.NoError(t, c.Close())
}

func TestRedisCache_UnreachableServerReturnsErrors(t *testing.T) {
	c := NewRedisCache(config.RedisConfig{Addr: "127.0.0.1:1", DialTimeoutMS: 100}, time.Minute)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	flights, err := c.GetFlights(ctx)
	assert.Error(t, err)
	assert.Nil(t, flights)
	assert.Error(t, c.SetFlights(ctx, []domain.Flight{{ID: 1}}))
	assert.Error(t, c.InvalidateFlights(ctx))
}
