package adapters

import (
	"context"
	"sync"
	"time"

	ports "github.com/ParfinovichOlga/spimex-trading-microservice/spimex/cache/ports"
)

// MemoryStore implements an in-process Store with per-entry expiry.
// Entries are only ever dropped once expired.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*cacheItem
	now   func() time.Time
}

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore creates an empty store. A nil now uses time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		items: make(map[string]*cacheItem),
		now:   now,
	}
}

// Get retrieves a value from the cache.
func (c *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()
	if !exists {
		return nil, ports.ErrCacheMiss
	}

	if !c.now().Before(item.expiresAt) {
		c.mu.Lock()
		// Re-check: a concurrent Set may have refreshed the entry.
		if cur, ok := c.items[key]; ok && cur == item {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, ports.ErrCacheMiss
	}

	return item.value, nil
}

// Set stores a value that expires ttlSeconds from now.
func (c *MemoryStore) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttlSeconds <= 0 {
		delete(c.items, key)
		return nil
	}

	buf := make([]byte, len(value))
	copy(buf, value)
	c.items[key] = &cacheItem{
		value:     buf,
		expiresAt: c.now().Add(time.Duration(ttlSeconds) * time.Second),
	}
	c.purgeExpiredLocked()
	return nil
}

// Delete removes a key from the cache.
func (c *MemoryStore) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

// Len reports the number of stored entries, expired or not.
func (c *MemoryStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close releases the entries.
func (c *MemoryStore) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*cacheItem)
	return nil
}

// purgeExpiredLocked drops expired entries. Must be called with mu held.
func (c *MemoryStore) purgeExpiredLocked() {
	now := c.now()
	for k, item := range c.items {
		if !now.Before(item.expiresAt) {
			delete(c.items, k)
		}
	}
}

// Ensure MemoryStore implements the Store interface.
var _ ports.Store = (*MemoryStore)(nil)
