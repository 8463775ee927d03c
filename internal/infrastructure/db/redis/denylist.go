package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenDenylist records consumed single-use token ids backed by Redis.
// Key format: token_used:<jti>
type TokenDenylist struct {
	client *redis.Client
}

// NewTokenDenylist creates a TokenDenylist wrapping the given Redis client.
func NewTokenDenylist(client *redis.Client) *TokenDenylist {
	return &TokenDenylist{client: client}
}

// IsUsed reports whether this token id has already been consumed.
func (d *TokenDenylist) IsUsed(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("denylist check: %w", err)
	}
	return n > 0, nil
}

// MarkUsed records the token id as consumed. The entry expires with the
// token itself; after that the codec's expiry check takes over.
func (d *TokenDenylist) MarkUsed(ctx context.Context, jti string, ttl time.Duration) error {
	return d.client.Set(ctx, d.key(jti), "1", ttl).Err()
}

func (d *TokenDenylist) key(jti string) string {
	return "token_used:" + jti
}
