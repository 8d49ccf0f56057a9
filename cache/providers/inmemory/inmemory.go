package inmemory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/superfaceai/one-sdk-go/cache"
)

func init() {
	cache.Register("inmemory", func(cfg cache.Config) (cache.Cache, error) {
		return New(cfg), nil
	})
}

// entry is one cache slot held in the LRU list.
type entry struct {
	key       string
	value     any
	expiresAt time.Time // zero means no expiration
}

// InMemoryCache is a thread-safe LRU cache with lazy TTL expiry,
// implementing cache.Cache.
type InMemoryCache struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	order      *list.List // front = most recently used, back = least
	defaultTTL time.Duration
	maxSize    int
	now        func() time.Time

	hits, misses, evictions int64
}

// Option configures an InMemoryCache at construction time.
type Option func(*InMemoryCache)

// WithClock overrides the cache's time source, for deterministic
// expiry tests without sleeping — the same pattern bind.Cache uses for its
// own injectable clock.
func WithClock(now func() time.Time) Option {
	return func(c *InMemoryCache) { c.now = now }
}

// New returns an InMemoryCache configured from cfg. A zero MaxSize grows
// the cache without bound.
func New(cfg cache.Config, opts ...Option) *InMemoryCache {
	c := &InMemoryCache{
		items:      make(map[string]*list.Element),
		order:      list.New(),
		defaultTTL: cfg.TTL,
		maxSize:    cfg.MaxSize,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get retrieves key. An entry found past its expiry is evicted on the spot
// and reported as a miss; a live hit is promoted to the front of the LRU
// list.
func (c *InMemoryCache) Get(_ context.Context, key string) (any, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false, nil
	}

	e := elem.Value.(*entry)
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.removeLocked(elem)
		c.misses++
		return nil, false, nil
	}

	c.order.MoveToFront(elem)
	c.hits++
	return e.value, true, nil
}

// Set stores value under key with ttl (zero uses the cache's default TTL,
// negative means never expire), promoting or inserting it at the front of
// the LRU list. Exceeding MaxSize evicts the least-recently-used entry.
func (c *InMemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.computeExpiry(ttl)

	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry)
		e.value = value
		e.expiresAt = expiresAt
		c.order.MoveToFront(elem)
		return nil
	}

	elem := c.order.PushFront(&entry{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = elem

	if c.maxSize > 0 && c.order.Len() > c.maxSize {
		c.evictLocked()
	}
	return nil
}

// Delete removes key, if present. Deleting an absent key is a no-op.
func (c *InMemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeLocked(elem)
	}
	return nil
}

// Clear empties the cache, resetting its LRU order but not its hit/miss
// counters.
func (c *InMemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order.Init()
	return nil
}

// Len reports the current entry count, including entries that have expired
// but have not yet been lazily evicted.
func (c *InMemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats reports cumulative hit/miss/eviction counts since construction, for
// a host process to expose as a health or metrics signal around the
// registry lookup cache.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// Stats returns the cache's cumulative counters.
func (c *InMemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Evictions: c.evictions}
}

func (c *InMemoryCache) computeExpiry(ttl time.Duration) time.Time {
	if ttl < 0 {
		return time.Time{}
	}
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	if ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(ttl)
}

// evictLocked drops the least-recently-used entry. Caller must hold mu.
func (c *InMemoryCache) evictLocked() {
	if back := c.order.Back(); back != nil {
		c.removeLocked(back)
		c.evictions++
	}
}

// removeLocked drops elem from both the list and the index. Caller must
// hold mu.
func (c *InMemoryCache) removeLocked(elem *list.Element) {
	e := elem.Value.(*entry)
	delete(c.items, e.key)
	c.order.Remove(elem)
}
