package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterCap(t *testing.T) {
	l := NewMemoryLimiter(5, time.Hour)
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	l.SetClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d, err := l.Allow(ctx, "203.0.113.9")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "submission %d should be admitted", i+1)
		now = now.Add(time.Minute)
	}

	// The 6th submission inside the hour is rejected with a positive hint.
	d, err := l.Allow(ctx, "203.0.113.9")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))

	// A different identifier is unaffected.
	d, err = l.Allow(ctx, "198.51.100.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestMemoryLimiterWindowSlides(t *testing.T) {
	l := NewMemoryLimiter(5, time.Hour)
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	now := start
	l.SetClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d, err := l.Allow(ctx, "ip")
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}

	d, err := l.Allow(ctx, "ip")
	require.NoError(t, err)
	require.False(t, d.Allowed)

	// Once the first submission ages out, submission 6 succeeds.
	now = start.Add(time.Hour + time.Second)
	d, err = l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestMemoryLimiterRetryAfterMatchesOldest(t *testing.T) {
	l := NewMemoryLimiter(2, time.Hour)
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	now := start
	l.SetClock(func() time.Time { return now })
	ctx := context.Background()

	l.Allow(ctx, "ip")
	now = start.Add(10 * time.Minute)
	l.Allow(ctx, "ip")

	now = start.Add(20 * time.Minute)
	d, err := l.Allow(ctx, "ip")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	// Oldest hit was at T+0; slot frees at T+60m, i.e. 40m from now.
	assert.Equal(t, 40*time.Minute, d.RetryAfter)
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	l := NewRedisLimiter(client, "leads", 5, time.Hour)
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	now := start
	l.SetClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d, err := l.Allow(ctx, "203.0.113.9")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "submission %d should be admitted", i+1)
	}

	d, err := l.Allow(ctx, "203.0.113.9")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, time.Hour)

	// Different key, separate window.
	d, err = l.Allow(ctx, "farmer@example.com")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	// After the window slides past the earliest submissions, space frees.
	now = start.Add(time.Hour + time.Minute)
	d, err = l.Allow(ctx, "203.0.113.9")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
