package service

import (
	"context"
	"time"

	"btc-fund-manager/internal/core/domain"
	"btc-fund-manager/internal/core/ports"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// sharedFetchTimeout bounds an upstream fetch shared by concurrent misses.
// The fetch outlives the caller that started it.
const sharedFetchTimeout = 15 * time.Second

// CachedPriceSource decorates a PriceSource with a shared Redis cache.
// Concurrent misses share one upstream request. Cache failures are logged
// and bypassed, never returned.
type CachedPriceSource struct {
	source ports.PriceSource
	cache  ports.PriceCache
	key    string
	ttl    time.Duration
	group  singleflight.Group
	log    zerolog.Logger
}

// NewCachedPriceSource creates a caching price source. A nil cache or a zero
// ttl turns caching off.
func NewCachedPriceSource(source ports.PriceSource, cache ports.PriceCache, key string, ttl time.Duration, log zerolog.Logger) *CachedPriceSource {
	return &CachedPriceSource{
		source: source,
		cache:  cache,
		key:    key,
		ttl:    ttl,
		log:    log,
	}
}

// SpotPrice returns the cached quote when fresh, otherwise asks the source.
func (s *CachedPriceSource) SpotPrice(ctx context.Context) (*domain.PriceQuote, error) {
	if !s.enabled() {
		return s.source.SpotPrice(ctx)
	}

	if q, err := s.cache.Get(ctx, s.key); err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("price cache read failed")
	} else if q != nil {
		return q, nil
	}

	ch := s.group.DoChan(s.key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()

		q, err := s.source.SpotPrice(fetchCtx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(fetchCtx, s.key, q, s.ttl); err != nil {
			s.log.Warn().Err(err).Str("key", s.key).Msg("price cache write failed")
		}
		return q, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.PriceQuote), nil
	}
}

func (s *CachedPriceSource) enabled() bool {
	return s.cache != nil && s.ttl > 0
}
