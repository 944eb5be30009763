package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles how often a given key may perform an operation.
type RateLimiter interface {
	// Allow reports whether the key is within its budget for the current
	// window. The key should identify the actor and the operation bucket.
	Allow(ctx context.Context, key string) (bool, error)
}

const rateLimitKeyPrefix = "rl:"

// fixedWindowLimiter counts attempts per fixed window. INCR creates the
// counter on first use; the expiry set alongside bounds the window.
type fixedWindowLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewFixedWindowLimiter creates a RateLimiter over the given Redis client.
func NewFixedWindowLimiter(client *redis.Client, limit int, window time.Duration) RateLimiter {
	return &fixedWindowLimiter{client: client, limit: int64(limit), window: window}
}

func (l *fixedWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := rateLimitKeyPrefix + key
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("rate limiter incr for %s: %w", key, err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("rate limiter expire for %s: %w", key, err)
		}
	}
	return count <= l.limit, nil
}
