package service

import "context"

// RateLimiter throttles repeated actions per key.
type RateLimiter interface {
	// Allow records one hit for key and reports whether it is within budget.
	Allow(ctx context.Context, key string) (bool, error)
}
