package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck_WritesHealthKey(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	hc := NewHealthCheck(client)

	require.NoError(t, hc.Ping(context.Background()))
	assert.Equal(t, "redis", hc.Name())
	assert.True(t, mr.Exists(healthCheckKey))
	assert.Equal(t, healthCheckTTL, mr.TTL(healthCheckKey))
}

func TestHealthCheck_Down(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	mr.Close()

	err := NewHealthCheck(client).Ping(context.Background())
	assert.ErrorContains(t, err, "redis health write")
}
