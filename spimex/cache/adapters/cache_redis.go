package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	ports "github.com/ParfinovichOlga/spimex-trading-microservice/spimex/cache/ports"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on top of a redis client (GET, SET EX, DEL).
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing client. The store owns the client from
// here on and closes it in Close.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Get retrieves a value from redis.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return val, nil
}

// Set stores a value with an expiry of ttlSeconds.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	// A zero expiration means "no expiry" to redis; an already-expired entry is a delete.
	if ttlSeconds <= 0 {
		return s.Delete(ctx, key)
	}
	if err := s.client.Set(ctx, key, value, time.Duration(ttlSeconds)*time.Second).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Delete removes a key from redis.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// Ping checks that the server is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ensure RedisStore implements the Store interface.
var _ ports.Store = (*RedisStore)(nil)
