// Package inmemory is the cache registry's default backend: an in-process
// LRU with TTL-based expiry. It registers itself under the name "inmemory"
// via an init() side effect, and is what runtime.New wires up as the
// registry HTTP client's lookup cache (SPEC_FULL.md §4.10).
//
// A doubly-linked list plus a hash map gives O(1) get/set/eviction. Entries
// expire lazily on access rather than via a background sweep: an entry past
// its TTL is only ever observed as a miss, never proactively collected.
//
// # Key types
//
//   - InMemoryCache implements cache.Cache with thread-safe LRU eviction
//     and lazy TTL expiration.
//   - Stats reports cumulative hit/miss/eviction counters.
//
// # Usage
//
// Import for side-effect registration, then create via the cache registry:
//
//	import _ "github.com/superfaceai/one-sdk-go/cache/providers/inmemory"
//
//	c, err := cache.New("inmemory", cache.Config{
//	    TTL:     5 * time.Minute,
//	    MaxSize: 1000,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Or construct directly, optionally overriding the clock for tests:
//
//	c := inmemory.New(cache.Config{TTL: 5 * time.Minute, MaxSize: 1000},
//	    inmemory.WithClock(func() time.Time { return fixed }))
package inmemory
