package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter guards the durable cart surface with a per-identity quota.
type Limiter interface {
	Allow(ctx context.Context, identity string) (bool, error)
}

const (
	// DefaultWindow is the fixed window length for cart calls.
	DefaultWindow = time.Minute
	// DefaultLimit is how many cart calls one identity gets per window.
	DefaultLimit = 10
)

type rateWindow struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is the process-local fixed-window limiter. Windows reset
// lazily on first access after expiry; entries for inactive identities are
// retained until restart.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	windows map[string]*rateWindow
}

// NewMemoryLimiter builds an in-process limiter with the supplied policy.
// Non-positive values fall back to the defaults.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: make(map[string]*rateWindow),
	}
}

// Allow performs the atomic read-check-increment for one identity.
func (l *MemoryLimiter) Allow(_ context.Context, identity string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	win, ok := l.windows[identity]
	if !ok || now.After(win.resetAt) {
		win = &rateWindow{resetAt: now.Add(l.window)}
		l.windows[identity] = win
	}

	win.count++
	return win.count <= l.limit, nil
}
