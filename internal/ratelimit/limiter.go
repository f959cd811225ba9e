// Package ratelimit implements a sliding-window limiter for public-facing
// submissions (lead intake). Each identifier (client IP, email) gets N
// requests per window; rejected callers receive the time until the window
// frees a slot, surfaced as a Retry-After hint.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long until a slot frees. Zero when Allowed.
	RetryAfter time.Duration
}

// Limiter is the rate limiting contract. Implementations must be atomic:
// concurrent Allow calls for the same key must never over-admit.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}
