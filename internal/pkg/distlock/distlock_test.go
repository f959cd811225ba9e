package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisLockAcquireRelease(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	l1 := NewRedisLock(client, "revenue:p1:2026-08", time.Minute)
	ok, err := l1.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second holder for the same key is rejected while l1 holds it.
	l2 := NewRedisLock(client, "revenue:p1:2026-08", time.Minute)
	ok, err = l2.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l1.Release(ctx))

	ok, err = l2.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockReleaseOnlyIfOwned(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	l1 := NewRedisLock(client, "revenue:p2:2026-08", 50*time.Millisecond)
	ok, err := l1.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// TTL expires and another process takes the lock.
	mr.FastForward(time.Second)
	l2 := NewRedisLock(client, "revenue:p2:2026-08", time.Minute)
	ok, err = l2.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// The stale holder's release must not free l2's lock.
	require.NoError(t, l1.Release(ctx))
	l3 := NewRedisLock(client, "revenue:p2:2026-08", time.Minute)
	ok, err = l3.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
