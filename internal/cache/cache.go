package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheUnavailable wraps every backend failure: connectivity, timeouts,
// a closed pool. A miss is not an error.
var ErrCacheUnavailable = errors.New("cache unavailable")

const articleKeyPrefix = "article:"

// Cache is a string key-value store with per-entry expiry. An expired entry
// is indistinguishable from one that was never written.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Key returns the cache key under which an article projection is stored.
func Key(articleID string) string {
	return articleKeyPrefix + articleID
}
