package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"btc-fund-manager/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// PriceCache implements ports.PriceCache using Redis.
type PriceCache struct {
	client *goredis.Client
	prefix string
}

// NewPriceCache creates a new Redis-backed spot price cache.
func NewPriceCache(client *goredis.Client) *PriceCache {
	return &PriceCache{
		client: client,
		prefix: "price:",
	}
}

// Get retrieves a cached quote.
// Returns nil, nil if the key does not exist or has expired.
func (c *PriceCache) Get(ctx context.Context, key string) (*domain.PriceQuote, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis price get: %w", err)
	}

	var q domain.PriceQuote
	if err := json.Unmarshal(val, &q); err != nil {
		return nil, fmt.Errorf("decode cached quote: %w", err)
	}
	return &q, nil
}

// Set stores a quote with TTL.
func (c *PriceCache) Set(ctx context.Context, key string, quote *domain.PriceQuote, ttl time.Duration) error {
	val, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("encode quote: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis price set: %w", err)
	}
	return nil
}
