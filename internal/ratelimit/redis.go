package ratelimit

import (
	"context"
	"time"
)

type fixedWindowStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RedisLimiter shares the fixed-window quota across processes. Same policy
// as MemoryLimiter, but the counter lives in redis with a TTL.
type RedisLimiter struct {
	store  fixedWindowStore
	limit  int64
	window time.Duration
}

// NewRedisLimiter builds a redis-backed limiter with the supplied policy.
func NewRedisLimiter(store fixedWindowStore, limit int, window time.Duration) *RedisLimiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisLimiter{
		store:  store,
		limit:  int64(limit),
		window: window,
	}
}

// Allow consumes one unit of the identity's quota.
func (l *RedisLimiter) Allow(ctx context.Context, identity string) (bool, error) {
	allowed, _, err := l.store.FixedWindowAllow(ctx, "cart:"+identity, l.limit, l.window)
	if err != nil {
		return false, err
	}
	return allowed, nil
}
