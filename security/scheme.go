// Package security resolves a provider's declared security schemes against
// caller-supplied credential values into ready-to-apply SecurityConfiguration
// values through plain functions (Resolve, Merge); there is no scheme
// registry.
package security

import "fmt"

// SchemeKind names the variant of a SecurityScheme.
type SchemeKind string

const (
	KindAPIKey      SchemeKind = "apikey"
	KindHTTPBasic   SchemeKind = "http.basic"
	KindHTTPBearer  SchemeKind = "http.bearer"
	KindHTTPDigest  SchemeKind = "http.digest"
)

// APIKeyLocation names where an apikey-scheme credential is injected into a
// request.
type APIKeyLocation string

const (
	InHeader APIKeyLocation = "header"
	InBody   APIKeyLocation = "body"
	InQuery  APIKeyLocation = "query"
	InPath   APIKeyLocation = "path"
)

// Scheme is a tagged union describing one provider-declared security scheme.
type Scheme struct {
	Id   string
	Kind SchemeKind

	// APIKey fields, set when Kind == KindAPIKey.
	In   APIKeyLocation
	Name string
}

// Values is the caller- or configuration-supplied credential values for one
// scheme id. Exactly the fields matching the scheme's kind are set.
type Values struct {
	Id       string
	APIKey   string
	Username string
	Password string
	Token    string
	Digest   string
}

// Configuration is a resolved scheme+values pair ready to apply to an
// outgoing request.
type Configuration struct {
	Scheme Scheme
	Values Values
}

// shapeError reports that a Values entry does not carry the fields its
// matching Scheme requires.
type shapeError struct {
	id   string
	kind SchemeKind
}

func (e *shapeError) Error() string {
	return fmt.Sprintf("security: invalid security values for scheme %q (kind %s)", e.id, e.kind)
}

// notFoundError reports that no scheme matches a Values entry's id.
type notFoundError struct {
	id string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("security: security scheme not found: %q", e.id)
}
