package domain

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss reports a key that is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache stores serialized published quiz definitions and listings.
// adapter.RedisCacheAdapter backs it in production and adapter.NoopCache when
// no redis address is configured.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	// Delete ignores missing keys.
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
