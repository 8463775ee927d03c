package ports

import (
	"context"
	"time"
)

// TokenDenylist records consumed single-use token ids (jti). Entries only
// need to live as long as the token itself; after expiry the codec rejects
// the token anyway.
type TokenDenylist interface {
	IsUsed(ctx context.Context, jti string) (bool, error)
	MarkUsed(ctx context.Context, jti string, ttl time.Duration) error
}

// RateLimiter bounds repeated attempts on a key within a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
