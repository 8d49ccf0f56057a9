// Package httpstage implements the HTTP request stage a map drives to
// perform one outgoing call: URL composition with path/query variable
// interpolation, content-type-aware body encoding, and application of a
// resolved security configuration. It is built on resty, the same HTTP
// client library the rest of the pack reaches for, rather than bare
// net/http: resty's request builder already knows how to carry query
// params, form data, and multipart parts, which is most of what this stage
// needs to do per call.
package httpstage

import (
	"net/http"

	"github.com/superfaceai/one-sdk-go/security"
)

// ContentType names a request body encoding this stage understands.
type ContentType string

const (
	ContentJSON           ContentType = "application/json"
	ContentFormURLEncoded ContentType = "application/x-www-form-urlencoded"
	ContentMultipart      ContentType = "multipart/form-data"
)

// QueryParam is one query-string entry. A slice, rather than a map, so the
// merged order (caller-provided first, then auth-injected) survives.
type QueryParam struct {
	Key   string
	Value any
}

// Request is the input to Stage.Do: everything a map needs to specify for
// one HTTP call.
type Request struct {
	// Method is the HTTP method, case-insensitive.
	Method string

	// URL is absolute, or a path to resolve against BaseURL when it begins
	// with "/".
	URL string

	// BaseURL is required when URL is relative.
	BaseURL string

	Headers map[string]string
	Query   []QueryParam
	Body    any

	// ContentType selects the body encoding. Required for POST/PUT/PATCH
	// whenever Body is non-nil.
	ContentType ContentType

	// Accept sets the Accept header and influences response body parsing.
	Accept string

	// PathParameters resolves "{dotted.name}" segments in URL. Values that
	// are not strings are stringified by JSON-encoding.
	PathParameters map[string]any

	// SecurityRequirements lists the scheme ids this call declares; every id
	// here must resolve to exactly one entry in SecurityConfiguration.
	SecurityRequirements []string

	SecurityConfiguration []security.Configuration

	// DigestChallenge resolves a full Authorization header value for a
	// digest scheme that supplied only a username/password pair, deferring
	// the challenge-response handshake to the caller. Unused for schemes
	// that carry a precomputed digest value.
	DigestChallenge func(method, url string) (string, error)
}

// DebugRequest snapshots the request actually sent, for inclusion in
// Response and in HTTPError diagnostics.
type DebugRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    any
}

// Response is the result of a successful (2xx) call.
type Response struct {
	StatusCode int
	Headers    http.Header

	// Body is a parsed JSON value (map[string]any, []any, or a scalar) when
	// the response content-type or the caller's Accept indicated JSON;
	// otherwise it is the raw response text as a string.
	Body any

	Debug struct {
		Request DebugRequest
	}
}
