package ratelimit

import (
	"context"
	"time"

	"tours/internal/domain/service"

	gocache "github.com/patrickmn/go-cache"
)

type memoryLimiter struct {
	hits   *gocache.Cache
	max    int64
	window time.Duration
	now    func() time.Time
}

// NewMemoryLimiter counts hits in process memory. Counters expire with their window.
func NewMemoryLimiter(maxHits int, window time.Duration) service.RateLimiter {
	return &memoryLimiter{
		hits:   gocache.New(window, time.Minute),
		max:    int64(maxHits),
		window: window,
		now:    time.Now,
	}
}

func (l *memoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	k := windowKey(key, l.now(), l.window)

	if err := l.hits.Add(k, int64(1), l.window); err == nil {
		return l.max >= 1, nil
	}

	hits, err := l.hits.IncrementInt64(k, 1)
	if err != nil {
		// The counter expired between Add and Increment; start a new one.
		l.hits.Set(k, int64(1), l.window)

		return l.max >= 1, nil
	}

	return hits <= l.max, nil
}
