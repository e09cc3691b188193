// Package ratelimit provides fixed-window limiters keyed by an arbitrary string.
package ratelimit

import (
	"fmt"
	"strings"
	"time"

	"tours/config"
	"tours/internal/domain/service"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const keyPrefix = "rl:reset:"

// Params defines the required parameters
type Params struct {
	fx.In

	Config *config.Config
	Redis  *redis.Client `optional:"true"`
}

// New returns the limiter for the configured backend.
func New(params Params) (service.RateLimiter, error) {
	cfg := params.Config.RateLimit
	switch cfg.Backend {
	case config.RateLimitMemory:
		return NewMemoryLimiter(cfg.Max, cfg.Window), nil
	case config.RateLimitRedis:
		if params.Redis == nil {
			return nil, errors.New("redis client is required for the redis rate limiter")
		}

		return NewRedisLimiter(params.Redis, cfg.Max, cfg.Window), nil
	default:
		return nil, errors.Errorf("unknown rate limit backend %q", cfg.Backend)
	}
}

// windowKey buckets key into the fixed window containing now.
func windowKey(key string, now time.Time, window time.Duration) string {
	start := now.UTC().Truncate(window)

	return fmt.Sprintf("%s%s:%d", keyPrefix, strings.ReplaceAll(key, " ", "_"), start.Unix())
}
