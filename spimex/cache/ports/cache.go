package cacheports

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned by Store.Get when the key is absent or expired.
// Any other error means the store itself could not answer.
var ErrCacheMiss = errors.New("cache: miss")

// Store is a key-value store whose entries expire on their own.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value for ttlSeconds. A ttl <= 0 expires the entry immediately.
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
	Close() error
}
