package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultLoginLimit  = 10
	defaultLoginWindow = 15 * time.Minute
)

// LoginLimiter is a fixed-window attempt counter backed by Redis.
// Key format: ratelimit:<key>
type LoginLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewLoginLimiter creates a limiter with the default budget of 10 attempts
// per 15-minute window.
func NewLoginLimiter(client *redis.Client) *LoginLimiter {
	return &LoginLimiter{client: client, limit: defaultLoginLimit, window: defaultLoginWindow}
}

// Allow counts one attempt on key and reports whether it is within budget.
// The window starts at the first attempt and is not sliding; INCR and the
// expiry are set atomically via a pipeline.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := "ratelimit:" + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}

	return incr.Val() <= l.limit, nil
}
