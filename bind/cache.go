package bind

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// entry is one cached binding: the resolved Provider plus the absolute time
// at which it expires. Expiry is absolute, not sliding: entries are not
// refreshed on access.
type entry struct {
	provider  *Provider
	expiresAt time.Time
}

// Cache maps a cache key to a cached Provider binding. It guarantees at most
// one in-flight Factory call per key: concurrent getOrCreate calls for the
// same key that misses await the single in-flight call via singleflight
// rather than each invoking Factory.
//
// The clock is injectable so tests can advance time deterministically
// without sleeping. This package keeps its own minimal store (absolute
// per-entry expiry, singleflight-collapsed misses) rather than wrapping the
// LRU in cache/providers/inmemory.
type Cache struct {
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry
	group   singleflight.Group
}

// New returns an empty Cache using time.Now as its clock.
func New() *Cache {
	return &Cache{
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// NewWithClock returns an empty Cache using the given clock, for
// deterministic tests.
func NewWithClock(now func() time.Time) *Cache {
	c := New()
	c.now = now
	return c
}

// GetOrCreate returns the cached Provider for key if present and not
// expired. Otherwise it calls factory exactly once even under concurrent
// callers for the same key, stores the result, and returns it.
func (c *Cache) GetOrCreate(ctx context.Context, key string, factory Factory) (*Provider, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()

	if ok && c.now().Before(e.expiresAt) {
		return e.provider, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the singleflight call in case another caller's
		// in-flight factory populated the entry while we were waiting for
		// the lock above.
		c.mu.Lock()
		e, ok := c.entries[key]
		c.mu.Unlock()
		if ok && c.now().Before(e.expiresAt) {
			return e.provider, nil
		}

		provider, expiresAt, err := factory(ctx, key)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = entry{provider: provider, expiresAt: expiresAt}
		c.mu.Unlock()

		return provider, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Provider), nil
}

// Invalidate removes key's cached entry, if any. The next GetOrCreate for
// key calls factory again.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateAll drops every cached entry, forcing the next GetOrCreate for
// any key to rebind. Used when the configuration document a binding was
// derived from has changed underneath the cache, e.g. a watched manifest
// file edit.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Key derives the stable cache key for a (profile cacheKey, provider
// cacheKey) pair.
func Key(profileCacheKey, providerCacheKey string) string {
	return profileCacheKey + "|" + providerCacheKey
}
