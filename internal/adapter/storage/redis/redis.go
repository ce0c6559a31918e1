package redis

import (
	"context"
	"fmt"
	"time"

	"btc-fund-manager/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	clientName     = "btc-fund-manager"
	healthCheckKey = "bfm:health"
	healthCheckTTL = 10 * time.Second
)

// NewClient creates a Redis client and verifies connectivity.
func NewClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:       cfg.Addr(),
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: clientName,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr(), err)
	}

	log.Info().Str("addr", cfg.Addr()).Int("db", cfg.DB).Msg("redis connected")
	return client, nil
}

// HealthCheck implements ports.HealthChecker. It writes a short-lived key,
// so a read-only replica or a full instance reports unhealthy.
type HealthCheck struct {
	client *goredis.Client
}

// NewHealthCheck creates a Redis health checker.
func NewHealthCheck(client *goredis.Client) *HealthCheck {
	return &HealthCheck{client: client}
}

func (h *HealthCheck) Ping(ctx context.Context) error {
	if err := h.client.Set(ctx, healthCheckKey, time.Now().Unix(), healthCheckTTL).Err(); err != nil {
		return fmt.Errorf("redis health write: %w", err)
	}
	return nil
}

func (h *HealthCheck) Name() string {
	return "redis"
}
