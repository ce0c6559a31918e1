package redis

import (
	"context"
	"testing"
	"time"

	"btc-fund-manager/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuote(price string) *domain.PriceQuote {
	return &domain.PriceQuote{
		Price:     decimal.RequireFromString(price),
		Currency:  "BRL",
		Source:    "coingecko",
		FetchedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPriceCache_SetAndGet(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewPriceCache(client)
	ctx := context.Background()

	result, err := cache.Get(ctx, "bitcoin:brl")
	assert.NoError(t, err)
	assert.Nil(t, result)

	require.NoError(t, cache.Set(ctx, "bitcoin:brl", newQuote("312345.67"), time.Minute))

	result, err = cache.Get(ctx, "bitcoin:brl")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, decimal.RequireFromString("312345.67").Equal(result.Price))
	assert.Equal(t, "BRL", result.Currency)
	assert.Equal(t, "coingecko", result.Source)
	assert.True(t, result.FetchedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
	assert.True(t, s.Exists("price:bitcoin:brl"))
}

func TestPriceCache_TTLExpiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewPriceCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "bitcoin:brl", newQuote("300000.00"), 30*time.Second))

	s.FastForward(31 * time.Second)

	result, err := cache.Get(ctx, "bitcoin:brl")
	assert.NoError(t, err)
	assert.Nil(t, result, "expired quote should return nil")
}

func TestPriceCache_CorruptEntry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewPriceCache(client)

	require.NoError(t, s.Set("price:bitcoin:brl", "not-json"))

	_, err := cache.Get(context.Background(), "bitcoin:brl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode cached quote")
}

func TestPriceCache_ServerDown(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr(), MaxRetries: -1})
	cache := NewPriceCache(client)
	s.Close()

	_, err := cache.Get(context.Background(), "bitcoin:brl")
	assert.Error(t, err)
}
