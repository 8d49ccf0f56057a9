// Package bind resolves and caches the immutable, ready-to-invoke triple of
// profile AST, map AST, and provider document that a use-case execution
// needs, keyed by a stable string derived from profile and provider config.
package bind

import (
	"context"
	"time"

	"github.com/superfaceai/one-sdk-go/eventbus"
	"github.com/superfaceai/one-sdk-go/security"
)

// ProfileAST is the parsed profile document. The runtime never interprets
// it directly; it is opaque here and passed through to the map interpreter.
type ProfileAST any

// MapAST is the parsed map document.
type MapAST any

// ProviderDocument is the parsed provider document (base URL, service list,
// declared security schemes).
type ProviderDocument any

// Provider is an immutable, cached triple ready to be invoked: profile AST,
// map AST, provider document, a selected service, resolved security, and the
// provider's integration parameters. A reference to the owning executor's
// event bus lets the map interpreter route outgoing requests through
// pre-fetch/post-fetch hooks.
type Provider struct {
	Profile    ProfileAST
	Map        MapAST
	Document   ProviderDocument
	Service    string
	Security   []security.Configuration
	Parameters map[string]string
	Bus        *eventbus.Bus
}

// Factory resolves (fetches and binds) the Provider for a cache key,
// returning the absolute time the binding should be considered stale. It is
// supplied by the caller at cache construction or call time so this package
// stays independent of the registry client and document parser.
type Factory func(ctx context.Context, key string) (*Provider, time.Time, error)
