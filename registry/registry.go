// Package registry declares the client-side interface to the remote
// profile/map/provider document registry: the wire-level request/response
// shapes and the Go interface the executor's bind factory calls through, so
// the executor stays independent of any concrete registry implementation.
// HTTPClient is this package's HTTP/JSON implementation of that interface.
package registry

import (
	"context"

	"github.com/superfaceai/one-sdk-go/security"
)

// ServiceJSON is one named base URL a provider document exposes.
type ServiceJSON struct {
	Id      string
	BaseURL string
}

// ProviderJSON is the provider document as returned by the registry: enough
// to select a service and resolve security, without committing to any
// particular on-the-wire representation.
type ProviderJSON struct {
	Name            string
	Services        []ServiceJSON
	DefaultService  string
	SecuritySchemes []security.Scheme
}

// MapDocument is the parsed map AST. The runtime never interprets it
// directly; it is opaque here and handed to the map interpreter.
type MapDocument any

// BindRequest names the (profile, provider) pair to resolve, plus the
// optional map selectors used when a provider exposes more than one map
// revision or variant for the same profile.
type BindRequest struct {
	ProfileId      string
	ProfileVersion string
	Provider       string
	MapVariant     string
	MapRevision    string
}

// BindResponse is fetchBind's result: the resolved provider document and,
// when the registry can supply it inline, the map AST. A nil MapAST means
// the caller must fall back to FetchMapSource and parse it locally
// (map source is a fallback for map validation failures on the server).
type BindResponse struct {
	Provider ProviderJson
	MapAST   MapDocument
}

// ProviderJson is an alias kept for the exact casing the wire protocol
// uses in its JSON payloads ("ProviderJson", matching the registry's own
// schema naming), while ProviderJSON is this package's idiomatic Go name.
type ProviderJson = ProviderJSON

// Client is the registry's client-side interface. Bind is the primary
// path; FetchMapSource and FetchProviderInfo back it up when a cached
// binding needs re-validation without a full rebind.
type Client interface {
	// FetchBind resolves a profile/provider/map triple in one round trip.
	FetchBind(ctx context.Context, req BindRequest) (BindResponse, error)

	// FetchMapSource returns the raw map source for mapId, used as a
	// fallback when server-side map validation rejects a cached AST.
	FetchMapSource(ctx context.Context, mapId string) (string, error)

	// FetchProviderInfo returns the provider document for providerName
	// without binding it to any particular profile.
	FetchProviderInfo(ctx context.Context, providerName string) (ProviderJSON, error)
}
