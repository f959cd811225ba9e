package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is an in-process sliding-window limiter for tests and
// single-node development. Timestamps per key, pruned on access.
type MemoryLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewMemoryLimiter creates a limiter admitting limit calls per window per key.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// SetClock overrides the limiter's time source. Test hook.
func (l *MemoryLimiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	live := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			live = append(live, t)
		}
	}

	if len(live) < l.limit {
		l.hits[key] = append(live, now)
		return Decision{Allowed: true, Remaining: l.limit - len(live) - 1}, nil
	}

	l.hits[key] = live
	retry := live[0].Add(l.window).Sub(now)
	if retry <= 0 {
		retry = time.Millisecond
	}
	return Decision{Allowed: false, RetryAfter: retry}, nil
}
