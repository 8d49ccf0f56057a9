// Package cache defines the pluggable cache-backend registry the runtime
// uses for ambient, non-pipeline-critical lookups: currently the registry
// HTTP client's read-through cache for provider-info and map-source
// responses (SPEC_FULL.md §4.10). It is distinct from bind.Cache, which
// implements the bound-provider cache spec.md §4.7 requires with its own
// TTL-and-singleflight contract.
//
// # Cache interface
//
// Cache exposes four operations:
//
//   - Get retrieves a value by key, returning (value, found, error).
//   - Set stores a value with a key and TTL.
//   - Delete removes a key.
//   - Clear removes every entry.
//
// # Registry
//
// Backends register themselves by name via Register, typically from an
// init() function in their own package; New looks a name up and
// constructs it from a Config. Import a provider package for its
// side-effect registration, then create instances through New:
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
//	err = c.Set(ctx, "key", "value", 10*time.Minute)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	val, ok, err := c.Get(ctx, "key")
//
// Since Get returns any, callers that want a typed result without
// repeating a type assertion at every call site can use [GetTyped]
// instead, which reports a type mismatch as an ordinary miss:
//
//	providerDoc, ok, err := cache.GetTyped[ProviderJSON](ctx, c, "provider-info:foo")
package cache
