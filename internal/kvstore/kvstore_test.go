package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreTTL(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	val, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)

	now = now.Add(61 * time.Second)
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreSetNX(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })
	ctx := context.Background()

	ok, err := s.SetNX(ctx, "dedupe", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetNX(ctx, "dedupe", "1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// After expiry the key is free again.
	now = now.Add(2 * time.Minute)
	ok, err = s.SetNX(ctx, "dedupe", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreNoExpiry(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", 0))
	now = now.Add(24 * time.Hour)
	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, "test")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	val, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)

	// Prefixing keeps components from colliding.
	assert.True(t, mr.Exists("test:k"))

	ok, err = s.SetNX(ctx, "k", "other", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.SetNX(ctx, "k", "other", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "k"))
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
