package cache

import (
	"context"
	"errors"

	ports "github.com/ParfinovichOlga/spimex-trading-microservice/spimex/cache/ports"
	"github.com/rs/zerolog"
)

// Observer receives cache outcomes, e.g. for metrics. Any method may be
// called from background goroutines.
type Observer interface {
	CacheHit()
	CacheMiss()
	CacheError(op string)
}

type nopObserver struct{}

func (nopObserver) CacheHit()         {}
func (nopObserver) CacheMiss()        {}
func (nopObserver) CacheError(string) {}

// ReadThrough puts a Store in front of request handlers. Reads fail open:
// a store error is reported and then treated like a miss.
type ReadThrough struct {
	store    ports.Store
	ttl      *TTLCalculator
	writer   *Writer
	observer Observer
	logger   zerolog.Logger
}

// NewReadThrough wires the store, TTL calculator and background writer.
// A nil observer discards outcomes.
func NewReadThrough(store ports.Store, ttl *TTLCalculator, writer *Writer, observer Observer, logger zerolog.Logger) *ReadThrough {
	if observer == nil {
		observer = nopObserver{}
	}
	return &ReadThrough{
		store:    store,
		ttl:      ttl,
		writer:   writer,
		observer: observer,
		logger:   logger.With().Str("component", "read_through").Logger(),
	}
}

// Lookup returns the cached payload for key, if any.
func (rt *ReadThrough) Lookup(ctx context.Context, key string) ([]byte, bool) {
	value, err := rt.store.Get(ctx, key)
	switch {
	case err == nil:
		rt.observer.CacheHit()
		return value, true
	case errors.Is(err, ports.ErrCacheMiss):
		rt.observer.CacheMiss()
		return nil, false
	default:
		rt.observer.CacheError("get")
		rt.logger.Warn().Err(err).Str("key", key).Msg("cache lookup failed, serving from store")
		return nil, false
	}
}

// Populate schedules a background write of payload under key. The TTL is
// computed when the write runs, so it always targets the next cutoff.
func (rt *ReadThrough) Populate(key string, payload []byte) {
	rt.writer.Submit(key, func(ctx context.Context) error {
		ttl := rt.ttl.Seconds()
		if err := rt.store.Set(ctx, key, payload, ttl); err != nil {
			rt.observer.CacheError("set")
			return err
		}
		return nil
	})
}
