// Package manifest models the on-disk configuration document (conventionally
// super.json) describing which profiles and providers a runtime knows about,
// and normalizes its permissive, shorthand-accepting input form into a
// canonical Document with no shorthands, all defaults materialized, and
// environment variables resolved.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ProfileId identifies a profile: an optional scope, a name, and a semantic
// version, rendered as "scope/name" or "name".
type ProfileId string

// ProviderId is an opaque provider name.
type ProviderId string

// RawDocument is the permissive document shape accepted on input: profile and
// provider entries may be shorthands (a bare version string, a file URI)
// instead of a full settings object. Normalize collapses these into Document.
type RawDocument struct {
	Profiles  map[ProfileId]json.RawMessage  `json:"profiles"`
	Providers map[ProviderId]json.RawMessage `json:"providers"`

	// ProvidersOrder preserves the insertion order of top-level providers
	// keys, which JSON object key order encodes but Go maps do not. Profile
	// priority inherits this order when neither priority nor the profile's
	// own providers are set.
	ProvidersOrder []ProviderId
}

// UnmarshalRawDocument parses data into a RawDocument, additionally capturing
// the insertion order of the top-level providers object's keys.
func UnmarshalRawDocument(data []byte) (RawDocument, error) {
	var doc RawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return RawDocument{}, fmt.Errorf("manifest: parse document: %w", err)
	}

	var shell struct {
		Providers json.RawMessage `json:"providers"`
	}
	if err := json.Unmarshal(data, &shell); err != nil {
		return RawDocument{}, fmt.Errorf("manifest: parse document: %w", err)
	}
	if len(shell.Providers) > 0 {
		order, err := objectKeyOrder(shell.Providers)
		if err != nil {
			return RawDocument{}, fmt.Errorf("manifest: parse providers order: %w", err)
		}
		for _, k := range order {
			doc.ProvidersOrder = append(doc.ProvidersOrder, ProviderId(k))
		}
	}
	return doc, nil
}

// objectKeyOrder returns the top-level keys of a JSON object in the order
// they appear in raw.
func objectKeyOrder(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var keys []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", keyTok)
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// Document is the normalized configuration document: the only form the
// runtime consumes.
type Document struct {
	Profiles  map[ProfileId]ProfileSettings
	Providers map[ProviderId]ProviderSettings
}

// ProfileSettings describes one profile entry. Exactly one of Version or File
// is set.
type ProfileSettings struct {
	Version   string                                  `json:"version,omitempty"`
	File      string                                  `json:"file,omitempty"`
	Priority  []ProviderId                            `json:"priority"`
	Defaults  map[string]UsecaseDefaults              `json:"defaults"`
	Providers map[ProviderId]ProfileProviderSettings  `json:"providers"`
}

// UsecaseDefaults holds the default input merged into calls for one use-case
// and whether failover across providers is permitted.
type UsecaseDefaults struct {
	Input            map[string]any `json:"input,omitempty"`
	ProviderFailover bool           `json:"providerFailover"`
}

// ProfileProviderSettings describes one provider's binding within a profile.
// Exactly one of File or {MapVariant, MapRevision} applies.
type ProfileProviderSettings struct {
	File        string                             `json:"file,omitempty"`
	MapVariant  string                             `json:"mapVariant,omitempty"`
	MapRevision string                             `json:"mapRevision,omitempty"`
	Defaults    map[string]ProfileProviderDefaults `json:"defaults"`
}

// ProfileProviderDefaults holds per-use-case, per-provider defaults.
type ProfileProviderDefaults struct {
	Input       map[string]any `json:"input,omitempty"`
	RetryPolicy RetryPolicy    `json:"retryPolicy"`
}

// RetryPolicyKind names the variant of a normalized RetryPolicy.
type RetryPolicyKind string

const (
	RetryNone           RetryPolicyKind = "none"
	RetryCircuitBreaker RetryPolicyKind = "circuit-breaker"
	RetrySimple         RetryPolicyKind = "simple"
)

// BackoffKind names the variant of a circuit breaker's backoff schedule.
type BackoffKind string

// BackoffExponential is the only backoff kind the spec defines.
const BackoffExponential BackoffKind = "exponential"

// BackoffSettings configures a circuit breaker's backoff schedule.
type BackoffSettings struct {
	Kind   BackoffKind `json:"kind"`
	Start  int         `json:"start"` // milliseconds
	Factor float64     `json:"factor"`
}

// RetryPolicy is a normalized, fully-defaulted retry policy: a tagged union
// over Kind.
type RetryPolicy struct {
	Kind                 RetryPolicyKind  `json:"kind"`
	MaxContiguousRetries int              `json:"maxContiguousRetries,omitempty"`
	RequestTimeout       int              `json:"requestTimeout,omitempty"` // milliseconds
	Backoff              *BackoffSettings `json:"backoff,omitempty"`
	OpenTime             int              `json:"openTime,omitempty"` // milliseconds, circuit-breaker only
}

// Default normalized values per the configuration data model.
const (
	DefaultMaxContiguousRetries = 5
	DefaultRequestTimeout       = 30_000
	DefaultBackoffStart         = 2_000
	DefaultBackoffFactor        = 2.0
	DefaultOpenTime             = 30_000
)

// ProviderSettings describes a normalized top-level provider entry.
type ProviderSettings struct {
	File       string            `json:"file,omitempty"`
	Security   []SecurityValues  `json:"security,omitempty"`
	Parameters map[string]string `json:"parameters"`
}

// SecurityValues is a resolved, environment-substituted set of credential
// values for one security scheme id. The value fields set are those the
// referenced scheme's kind uses (e.g. APIKey for an API key, Username and
// Password for HTTP basic).
type SecurityValues struct {
	Id       string `json:"id"`
	APIKey   string `json:"apikey,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`
	Digest   string `json:"digest,omitempty"`
}
