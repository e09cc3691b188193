package ratelimit

import (
	"context"
	"time"

	"tours/config"
	"tours/internal/domain/service"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

type redisLimiter struct {
	client *redis.Client
	max    int64
	window time.Duration
	now    func() time.Time
}

// NewRedisLimiter shares counters across instances: INCR plus EXPIRE NX in one transaction.
func NewRedisLimiter(client *redis.Client, maxHits int, window time.Duration) service.RateLimiter {
	return &redisLimiter{
		client: client,
		max:    int64(maxHits),
		window: window,
		now:    time.Now,
	}
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := windowKey(key, l.now(), l.window)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, errors.Wrap(err, "redis rate limit")
	}

	return incr.Val() <= l.max, nil
}

// NewRedisClient connects to redis when the redis backend is selected and returns nil otherwise.
func NewRedisClient(cfg *config.Config, lc fx.Lifecycle) *redis.Client {
	if cfg.RateLimit == nil || cfg.RateLimit.Backend != config.RateLimitRedis || cfg.Redis == nil {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return errors.Wrap(client.Ping(ctx).Err(), "failed to ping redis")
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return client
}
