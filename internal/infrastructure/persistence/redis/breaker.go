package redis

import (
	"context"
	"errors"
	"time"

	"github.com/mentorship-hub/mentorship-engine/pkg/circuitbreaker"
	"github.com/mentorship-hub/mentorship-engine/pkg/logger"
)

// guardedCache stops reading and writing Redis for a while after repeated
// failures. Deletes bypass the breaker so invalidations are always attempted.
type guardedCache struct {
	next    jsonCache
	breaker *circuitbreaker.CircuitBreaker
}

// NewCacheBreaker builds the breaker used in front of the profile cache.
func NewCacheBreaker(log *logger.Logger, opts ...circuitbreaker.Option) *circuitbreaker.CircuitBreaker {
	if log == nil {
		log = logger.Nop()
	}
	defaults := []circuitbreaker.Option{
		circuitbreaker.WithFailureThreshold(5),
		circuitbreaker.WithTimeout(30 * time.Second),
		circuitbreaker.WithIsFailure(func(err error) bool {
			return !errors.Is(err, ErrCacheMiss)
		}),
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			log.Warn("cache circuit state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		}),
	}
	return circuitbreaker.New("redis_profile_cache", append(defaults, opts...)...)
}

func newGuardedCache(next jsonCache, breaker *circuitbreaker.CircuitBreaker) *guardedCache {
	return &guardedCache{next: next, breaker: breaker}
}

func (c *guardedCache) Get(ctx context.Context, key string, dest interface{}) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.next.Get(ctx, key, dest)
	})
}

func (c *guardedCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.next.Set(ctx, key, value, ttl)
	})
}

func (c *guardedCache) Delete(ctx context.Context, keys ...string) error {
	return c.next.Delete(ctx, keys...)
}
