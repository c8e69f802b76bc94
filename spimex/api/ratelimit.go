package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// TokenBucket limits requests per client key.
type TokenBucket struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	capacity   int           // max tokens per bucket
	refillRate time.Duration // time between token refills
	idleAfter  time.Duration // a bucket untouched this long is full again
	lastSweep  time.Time
	now        func() time.Time
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewTokenBucket creates a limiter allowing bursts of capacity requests and
// one more every refillRate. A nil now uses time.Now.
func NewTokenBucket(capacity int, refillRate time.Duration, now func() time.Time) *TokenBucket {
	if capacity <= 0 {
		capacity = 1
	}
	if refillRate <= 0 {
		refillRate = time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &TokenBucket{
		buckets:    make(map[string]*bucket),
		capacity:   capacity,
		refillRate: refillRate,
		idleAfter:  time.Duration(capacity) * refillRate,
		lastSweep:  now(),
		now:        now,
	}
}

// Allow consumes a token for key and reports whether one was available.
func (tb *TokenBucket) Allow(key string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	if now.Sub(tb.lastSweep) >= tb.idleAfter {
		tb.sweepLocked(now)
	}

	b, exists := tb.buckets[key]
	if !exists {
		b = &bucket{tokens: tb.capacity, lastRefill: now}
		tb.buckets[key] = b
	}

	// Refill tokens based on elapsed time
	tokensToAdd := int(now.Sub(b.lastRefill) / tb.refillRate)
	if tokensToAdd > 0 {
		b.tokens = min(b.tokens+tokensToAdd, tb.capacity)
		b.lastRefill = b.lastRefill.Add(time.Duration(tokensToAdd) * tb.refillRate)
	}

	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// Len returns the number of tracked clients.
func (tb *TokenBucket) Len() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(tb.buckets)
}

// sweepLocked drops buckets that have refilled completely. A dropped bucket
// is recreated full, so eviction never changes what Allow returns.
func (tb *TokenBucket) sweepLocked(now time.Time) {
	for key, b := range tb.buckets {
		if now.Sub(b.lastRefill) >= tb.idleAfter {
			delete(tb.buckets, key)
		}
	}
	tb.lastSweep = now
}

// Middleware rejects clients that ran out of tokens with 429.
func (tb *TokenBucket) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !tb.Allow(c.RealIP()) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests")
			}
			return next(c)
		}
	}
}
