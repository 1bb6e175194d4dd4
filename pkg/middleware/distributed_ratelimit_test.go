package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestDistributedRateLimiter_Allow(t *testing.T) {
	mr, client := setupRedis(t)
	limiter := NewDistributedRateLimiter(client, LoginRateLimitConfig(), "login")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, err := limiter.Allow(ctx, "a@example.com")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := limiter.Allow(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	ttl := mr.TTL("login:a@example.com")
	assert.True(t, ttl > 0 && ttl <= time.Minute, "unexpected ttl %v", ttl)

	mr.FastForward(time.Minute)
	ok, err = limiter.Allow(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDistributedRateLimiter_WindowNotExtended(t *testing.T) {
	mr, client := setupRedis(t)
	limiter := NewDistributedRateLimiter(client, LoginRateLimitConfig(), "login")
	ctx := context.Background()

	_, _ = limiter.Allow(ctx, "k")
	mr.FastForward(40 * time.Second)
	_, _ = limiter.Allow(ctx, "k")

	assert.Equal(t, 20*time.Second, mr.TTL("login:k"))
}

func TestDistributedRateLimiter_RemainingAndReset(t *testing.T) {
	_, client := setupRedis(t)
	limiter := NewDistributedRateLimiter(client, nil, "")
	ctx := context.Background()

	remaining, err := limiter.Remaining(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)

	_, _ = limiter.Allow(ctx, "k")
	_, _ = limiter.Allow(ctx, "k")
	remaining, err = limiter.Remaining(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	ttl, err := limiter.TTL(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ttl > 0)

	require.NoError(t, limiter.Reset(ctx, "k"))
	remaining, err = limiter.Remaining(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)
	assert.NoError(t, limiter.HealthCheck(ctx))
}

func TestDistributedRateLimiter_FailsOpen(t *testing.T) {
	mr, client := setupRedis(t)
	limiter := NewDistributedRateLimiter(client, nil, "login")
	mr.Close()

	ok, err := limiter.Allow(context.Background(), "k")
	assert.Error(t, err)
	assert.True(t, ok)
}
