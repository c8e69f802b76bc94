package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/cache/adapters"
	ports "github.com/ParfinovichOlga/spimex-trading-microservice/spimex/cache/ports"
	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Factory creates and wires cache components from configuration.
type Factory struct {
	cacheConfig *config.CacheConfig
	redisConfig *config.RedisConfig
	logger      zerolog.Logger
	now         func() time.Time
}

// NewFactory creates a new cache factory. A nil now uses time.Now.
func NewFactory(cacheConfig *config.CacheConfig, redisConfig *config.RedisConfig, logger zerolog.Logger, now func() time.Time) *Factory {
	if now == nil {
		now = time.Now
	}
	return &Factory{
		cacheConfig: cacheConfig,
		redisConfig: redisConfig,
		logger:      logger,
		now:         now,
	}
}

// CreateStore creates the store adapter selected by cache.backend.
// The caller owns the store and must Close it.
func (f *Factory) CreateStore(ctx context.Context) (ports.Store, error) {
	if !f.cacheConfig.Enabled {
		f.logger.Info().Msg("response cache disabled")
		return noOpStore{}, nil
	}

	switch f.cacheConfig.Backend {
	case "memory":
		f.logger.Info().Msg("using in-process response cache")
		return adapters.NewMemoryStore(f.now), nil
	case "redis", "":
		store := adapters.NewRedisStore(redis.NewClient(&redis.Options{
			Addr:         f.redisConfig.Addr(),
			Password:     f.redisConfig.Password,
			DB:           f.redisConfig.DB,
			DialTimeout:  f.redisConfig.DialTimeout,
			ReadTimeout:  f.redisConfig.ReadTimeout,
			WriteTimeout: f.redisConfig.WriteTimeout,
		}))
		// Unreachable redis is not fatal: every lookup becomes a miss.
		if err := store.Ping(ctx); err != nil {
			f.logger.Warn().Err(err).Str("addr", f.redisConfig.Addr()).Msg("redis not reachable at startup")
		} else {
			f.logger.Info().Str("addr", f.redisConfig.Addr()).Msg("connected to redis")
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", f.cacheConfig.Backend)
	}
}

// CreateTTLCalculator binds the configured cutoff and time zone.
func (f *Factory) CreateTTLCalculator() (*TTLCalculator, error) {
	cutoff, err := NewCutoff(f.cacheConfig.StorageTime)
	if err != nil {
		return nil, err
	}
	loc, err := f.cacheConfig.Location()
	if err != nil {
		return nil, err
	}
	return NewTTLCalculator(cutoff, loc, f.now), nil
}

// CreateWriter starts the background writer.
func (f *Factory) CreateWriter() *Writer {
	return NewWriter(f.cacheConfig.Workers, f.cacheConfig.QueueSize, f.cacheConfig.WriteTimeout, f.logger)
}

// noOpStore implements Store for a disabled cache: every lookup misses.
type noOpStore struct{}

func (noOpStore) Get(ctx context.Context, key string) ([]byte, error) { return nil, ports.ErrCacheMiss }
func (noOpStore) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	return nil
}
func (noOpStore) Delete(ctx context.Context, key string) error { return nil }
func (noOpStore) Close() error                                 { return nil }

// Ensure noOpStore implements the Store interface.
var _ ports.Store = noOpStore{}
