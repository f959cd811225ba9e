package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lua script for an atomic sliding-window check. One sorted set per key,
// member scores are submission timestamps in milliseconds. The script
// prunes entries older than the window, admits if the live count is under
// the limit, and otherwise returns the oldest live timestamp so the caller
// can compute when a slot frees. Evaluating inside Redis avoids the
// GET → check → INCR race of doing this client-side.
const slidingWindowScript = `
local key = KEYS[1]
local nowMs = tonumber(ARGV[1])
local windowMs = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call("ZREMRANGEBYSCORE", key, 0, nowMs - windowMs)

local count = redis.call("ZCARD", key)
if count < limit then
    redis.call("ZADD", key, nowMs, nowMs .. "-" .. count)
    redis.call("PEXPIRE", key, windowMs)
    return {1, limit - count - 1, 0}
end

local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
return {0, 0, tonumber(oldest[2])}
`

// RedisLimiter is a Redis-backed sliding-window limiter shared across
// service instances.
type RedisLimiter struct {
	client *redis.Client
	script *redis.Script
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisLimiter creates a limiter admitting limit calls per window per key.
func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		script: redis.NewScript(slidingWindowScript),
		limit:  limit,
		window: window,
		prefix: prefix,
		now:    time.Now,
	}
}

// SetClock overrides the limiter's time source. Test hook.
func (l *RedisLimiter) SetClock(now func() time.Time) { l.now = now }

// Allow atomically consumes a slot for key, or reports when one frees.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	nowMs := l.now().UnixMilli()
	res, err := l.script.Run(ctx, l.client,
		[]string{fmt.Sprintf("ratelimit:%s:%s", l.prefix, key)},
		nowMs, l.window.Milliseconds(), l.limit,
	).Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit check for %s: %w", key, err)
	}

	allowed := res[0].(int64) == 1
	if allowed {
		return Decision{Allowed: true, Remaining: int(res[1].(int64))}, nil
	}

	oldestMs := res[2].(int64)
	retry := time.Duration(oldestMs+l.window.Milliseconds()-nowMs) * time.Millisecond
	if retry <= 0 {
		retry = time.Millisecond
	}
	return Decision{Allowed: false, RetryAfter: retry}, nil
}
