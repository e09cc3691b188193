package ratelimit

import (
	"context"
	"testing"
	"time"

	"tours/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_DeniesBeyondBudget(t *testing.T) {
	limiter := NewMemoryLimiter(3, time.Hour)
	ctx := context.Background()

	for i := range 3 {
		allowed, err := limiter.Allow(ctx, "a@b.com")
		require.NoError(t, err)
		assert.True(t, allowed, "hit %d", i+1)
	}

	allowed, err := limiter.Allow(ctx, "a@b.com")
	require.NoError(t, err)
	assert.False(t, allowed)

	other, err := limiter.Allow(ctx, "c@d.com")
	require.NoError(t, err)
	assert.True(t, other)
}

func TestMemoryLimiter_NewWindowResetsBudget(t *testing.T) {
	limiter := NewMemoryLimiter(1, time.Minute).(*memoryLimiter)
	now := time.Date(2024, 5, 1, 12, 0, 10, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	allowed, _ := limiter.Allow(ctx, "a@b.com")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "a@b.com")
	assert.False(t, allowed)

	now = now.Add(time.Minute)
	allowed, _ = limiter.Allow(ctx, "a@b.com")
	assert.True(t, allowed)
}

func TestWindowKey(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 34, 56, 0, time.UTC)

	assert.Equal(t, "rl:reset:a_b:1714564800", windowKey("a b", now, time.Hour))
	assert.Equal(t, windowKey("x", now, time.Hour), windowKey("x", now.Add(20*time.Minute), time.Hour))
}

func TestNew_SelectsBackend(t *testing.T) {
	cfg := &config.Config{RateLimit: &config.RateLimitConfig{Backend: config.RateLimitMemory, Max: 5, Window: time.Hour}}
	limiter, err := New(Params{Config: cfg})
	require.NoError(t, err)
	assert.IsType(t, &memoryLimiter{}, limiter)

	cfg.RateLimit.Backend = config.RateLimitRedis
	_, err = New(Params{Config: cfg})
	assert.ErrorContains(t, err, "redis client is required")
}
