package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter keeps fixed-window counters in Redis so the quota holds
// across service instances. Keys carry the window index and expire on
// their own, so stale accounts never accumulate.
type RedisLimiter struct {
	client *redis.Client
	window time.Duration
	limit  int64
}

var acquireScript = redis.NewScript(`
local count = redis.call("INCRBY", KEYS[1], ARGV[1])
if count == tonumber(ARGV[1]) then
    redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return count
`)

func NewRedisLimiter(cacheDSN string, window time.Duration, limit int64) (*RedisLimiter, error) {
	if cacheDSN == "" {
		return nil, fmt.Errorf("redis cache_dsn is required")
	}

	options, err := redis.ParseURL(cacheDSN)
	if err != nil {
		return nil, fmt.Errorf("parse redis cache_dsn: %w", err)
	}

	if window <= 0 {
		window = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultMaxRequests
	}

	return &RedisLimiter{
		client: redis.NewClient(options),
		window: window,
		limit:  limit,
	}, nil
}

func (l *RedisLimiter) Acquire(ctx context.Context, accountID string, permits int64) (bool, error) {
	if permits <= 0 {
		permits = 1
	}

	key := l.windowKey(accountID, time.Now())
	count, err := acquireScript.Run(ctx, l.client, []string{key}, permits, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("acquire rate limit permit: %w", err)
	}

	return count <= l.limit, nil
}

func (l *RedisLimiter) windowKey(accountID string, now time.Time) string {
	windowIndex := now.UnixMilli() / l.window.Milliseconds()
	return fmt.Sprintf("ratelimit:%s:%d", accountID, windowIndex)
}

func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
