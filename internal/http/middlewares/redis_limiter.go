package middlewares

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisLimiterPrefix = "eventboard:ratelimit:"

// RedisLimiter is a fixed window counter shared by every instance behind
// the same redis: INCR the window key, set its expiry on first hit.
type RedisLimiter struct {
	rdb    redis.Cmdable
	limit  int
	window time.Duration
}

func NewRedisLimiter(rdb redis.Cmdable, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := redisLimiterPrefix + key

	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit incr: %w", err)
	}

	if n == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	if n <= int64(l.limit) {
		return true, 0, nil
	}

	ttl, err := l.rdb.TTL(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit ttl: %w", err)
	}

	// a key without expiry (-1) would block forever, put the window back on it
	if ttl < 0 {
		_ = l.rdb.Expire(ctx, k, l.window).Err()
		ttl = l.window
	}

	return false, ttl, nil
}
