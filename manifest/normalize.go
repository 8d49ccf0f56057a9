package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`)

// Normalize converts a permissive RawDocument into a canonical Document: all
// shorthands collapsed, defaults materialized, retry policies fully
// specified, environment variables resolved in leaf string positions, and
// priorities populated. Normalize is idempotent: normalizing an
// already-normalized document (re-serialized and re-parsed) yields an equal
// Document.
func Normalize(raw RawDocument) (Document, error) {
	doc := Document{
		Profiles:  make(map[ProfileId]ProfileSettings, len(raw.Profiles)),
		Providers: make(map[ProviderId]ProviderSettings, len(raw.Providers)),
	}

	for id, rawProvider := range raw.Providers {
		settings, err := normalizeProvider(rawProvider)
		if err != nil {
			return Document{}, fmt.Errorf("manifest: provider %q: %w", id, err)
		}
		doc.Providers[id] = settings
	}

	for id, rawProfile := range raw.Profiles {
		settings, err := normalizeProfile(rawProfile, raw.ProvidersOrder)
		if err != nil {
			return Document{}, fmt.Errorf("manifest: profile %q: %w", id, err)
		}
		doc.Profiles[id] = settings
	}

	if err := validateReferences(doc); err != nil {
		return Document{}, err
	}

	return doc, nil
}

func validateReferences(doc Document) error {
	for profileId, profile := range doc.Profiles {
		for _, providerId := range profile.Priority {
			if _, ok := doc.Providers[providerId]; !ok {
				return fmt.Errorf("manifest: profile %q priority references unconfigured provider %q", profileId, providerId)
			}
		}
		for providerId := range profile.Providers {
			if _, ok := doc.Providers[providerId]; !ok {
				return fmt.Errorf("manifest: profile %q references unconfigured provider %q", profileId, providerId)
			}
		}
	}
	return nil
}

// normalizeProfile collapses shorthands and materializes defaults for one
// profile entry. topLevelOrder is the insertion order of top-level providers,
// used to populate priority when the profile declares neither its own
// priority nor its own providers.
func normalizeProfile(raw json.RawMessage, topLevelOrder []ProviderId) (ProfileSettings, error) {
	trimmed := strings.TrimSpace(string(raw))

	// Shorthand: a bare JSON string, either a semver version or a file:// URI.
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ProfileSettings{}, fmt.Errorf("parse string shorthand: %w", err)
		}
		if strings.HasPrefix(s, "file://") {
			return finalizeProfile(ProfileSettings{File: s}, nil, topLevelOrder), nil
		}
		if !semverPattern.MatchString(s) {
			return ProfileSettings{}, fmt.Errorf("profile shorthand %q is neither a file:// URI nor a valid semver version", s)
		}
		return finalizeProfile(ProfileSettings{Version: s}, nil, topLevelOrder), nil
	}

	var obj struct {
		Version  string                     `json:"version"`
		File     string                     `json:"file"`
		Priority []ProviderId               `json:"priority"`
		Defaults map[string]json.RawMessage `json:"defaults"`
		Providers map[ProviderId]json.RawMessage `json:"providers"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ProfileSettings{}, fmt.Errorf("parse profile object: %w", err)
	}
	if obj.File == "" && obj.Version != "" && !semverPattern.MatchString(obj.Version) {
		return ProfileSettings{}, fmt.Errorf("invalid semver version %q", obj.Version)
	}

	settings := ProfileSettings{
		Version:  obj.Version,
		File:     obj.File,
		Priority: obj.Priority,
		Defaults: make(map[string]UsecaseDefaults, len(obj.Defaults)),
		Providers: make(map[ProviderId]ProfileProviderSettings, len(obj.Providers)),
	}

	for useCase, rawDefaults := range obj.Defaults {
		d, err := normalizeUsecaseDefaults(rawDefaults)
		if err != nil {
			return ProfileSettings{}, fmt.Errorf("defaults[%q]: %w", useCase, err)
		}
		settings.Defaults[useCase] = d
	}

	var ownOrder []ProviderId
	if len(obj.Providers) > 0 {
		var shell struct {
			Providers json.RawMessage `json:"providers"`
		}
		_ = json.Unmarshal(raw, &shell)
		if order, err := objectKeyOrder(shell.Providers); err == nil {
			for _, k := range order {
				ownOrder = append(ownOrder, ProviderId(k))
			}
		}
	}

	for providerId, rawProviderSettings := range obj.Providers {
		ps, err := normalizeProfileProvider(rawProviderSettings)
		if err != nil {
			return ProfileSettings{}, fmt.Errorf("providers[%q]: %w", providerId, err)
		}
		settings.Providers[providerId] = ps
	}

	return finalizeProfile(settings, ownOrder, topLevelOrder), nil
}

// finalizeProfile materializes the priority field per the inheritance rule:
// a profile's own providers keys (in declaration order) take precedence;
// otherwise the top-level providers' insertion order is inherited.
func finalizeProfile(s ProfileSettings, ownProvidersOrder, topLevelOrder []ProviderId) ProfileSettings {
	if s.Defaults == nil {
		s.Defaults = map[string]UsecaseDefaults{}
	}
	if s.Providers == nil {
		s.Providers = map[ProviderId]ProfileProviderSettings{}
	}
	if len(s.Priority) == 0 {
		if len(ownProvidersOrder) > 0 {
			s.Priority = ownProvidersOrder
		} else {
			s.Priority = topLevelOrder
		}
	}
	return s
}

func normalizeUsecaseDefaults(raw json.RawMessage) (UsecaseDefaults, error) {
	var obj struct {
		Input            map[string]any `json:"input"`
		ProviderFailover *bool          `json:"providerFailover"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return UsecaseDefaults{}, err
	}
	d := UsecaseDefaults{Input: resolveEnvMap(obj.Input)}
	if obj.ProviderFailover != nil {
		d.ProviderFailover = *obj.ProviderFailover
	}
	return d, nil
}

func normalizeProfileProvider(raw json.RawMessage) (ProfileProviderSettings, error) {
	var obj struct {
		File        string                     `json:"file"`
		MapVariant  string                     `json:"mapVariant"`
		MapRevision string                     `json:"mapRevision"`
		Defaults    map[string]json.RawMessage `json:"defaults"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ProfileProviderSettings{}, err
	}
	s := ProfileProviderSettings{
		File:        obj.File,
		MapVariant:  obj.MapVariant,
		MapRevision: obj.MapRevision,
		Defaults:    make(map[string]ProfileProviderDefaults, len(obj.Defaults)),
	}
	for useCase, rawDefaults := range obj.Defaults {
		d, err := normalizeProfileProviderDefaults(rawDefaults)
		if err != nil {
			return ProfileProviderSettings{}, fmt.Errorf("defaults[%q]: %w", useCase, err)
		}
		s.Defaults[useCase] = d
	}
	return s, nil
}

func normalizeProfileProviderDefaults(raw json.RawMessage) (ProfileProviderDefaults, error) {
	var obj struct {
		Input       map[string]any  `json:"input"`
		RetryPolicy json.RawMessage `json:"retryPolicy"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ProfileProviderDefaults{}, err
	}
	policy, err := normalizeRetryPolicy(obj.RetryPolicy)
	if err != nil {
		return ProfileProviderDefaults{}, fmt.Errorf("retryPolicy: %w", err)
	}
	return ProfileProviderDefaults{Input: resolveEnvMap(obj.Input), RetryPolicy: policy}, nil
}

// normalizeRetryPolicy materializes a fully-defaulted RetryPolicy. An absent
// policy normalizes to {kind: none}.
func normalizeRetryPolicy(raw json.RawMessage) (RetryPolicy, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return RetryPolicy{Kind: RetryNone}, nil
	}

	var obj struct {
		Kind                 RetryPolicyKind `json:"kind"`
		MaxContiguousRetries *int            `json:"maxContiguousRetries"`
		RequestTimeout       *int            `json:"requestTimeout"`
		OpenTime             *int            `json:"openTime"`
		Backoff              *struct {
			Kind   BackoffKind `json:"kind"`
			Start  *int        `json:"start"`
			Factor *float64    `json:"factor"`
		} `json:"backoff"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return RetryPolicy{}, err
	}

	switch obj.Kind {
	case "", RetryNone:
		return RetryPolicy{Kind: RetryNone}, nil
	case RetrySimple:
		p := RetryPolicy{Kind: RetrySimple, MaxContiguousRetries: DefaultMaxContiguousRetries, RequestTimeout: DefaultRequestTimeout}
		if obj.MaxContiguousRetries != nil {
			p.MaxContiguousRetries = *obj.MaxContiguousRetries
		}
		if obj.RequestTimeout != nil {
			p.RequestTimeout = *obj.RequestTimeout
		}
		return p, nil
	case RetryCircuitBreaker:
		p := RetryPolicy{
			Kind:                 RetryCircuitBreaker,
			MaxContiguousRetries: DefaultMaxContiguousRetries,
			RequestTimeout:       DefaultRequestTimeout,
			OpenTime:             DefaultOpenTime,
			Backoff:              &BackoffSettings{Kind: BackoffExponential, Start: DefaultBackoffStart, Factor: DefaultBackoffFactor},
		}
		if obj.MaxContiguousRetries != nil {
			p.MaxContiguousRetries = *obj.MaxContiguousRetries
		}
		if obj.RequestTimeout != nil {
			p.RequestTimeout = *obj.RequestTimeout
		}
		if obj.OpenTime != nil {
			p.OpenTime = *obj.OpenTime
		}
		if obj.Backoff != nil {
			if obj.Backoff.Start != nil {
				p.Backoff.Start = *obj.Backoff.Start
			}
			if obj.Backoff.Factor != nil {
				p.Backoff.Factor = *obj.Backoff.Factor
			}
		}
		return p, nil
	default:
		return RetryPolicy{}, fmt.Errorf("unknown retry policy kind %q", obj.Kind)
	}
}

// normalizeProvider collapses shorthands for one top-level provider entry and
// resolves environment variables in parameter and security leaf strings.
func normalizeProvider(raw json.RawMessage) (ProviderSettings, error) {
	trimmed := strings.TrimSpace(string(raw))

	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ProviderSettings{}, fmt.Errorf("parse string shorthand: %w", err)
		}
		if !strings.HasPrefix(s, "file://") {
			return ProviderSettings{}, fmt.Errorf("provider shorthand %q must be a file:// URI", s)
		}
		return ProviderSettings{File: s}, nil
	}

	var obj struct {
		File       string            `json:"file"`
		Security   []json.RawMessage `json:"security"`
		Parameters map[string]string `json:"parameters"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ProviderSettings{}, fmt.Errorf("parse provider object: %w", err)
	}

	settings := ProviderSettings{
		File:       obj.File,
		Parameters: make(map[string]string, len(obj.Parameters)),
	}
	for k, v := range obj.Parameters {
		settings.Parameters[k] = resolveEnv(v)
	}

	for _, rawValues := range obj.Security {
		values, err := parseSecurityValues(rawValues)
		if err != nil {
			return ProviderSettings{}, fmt.Errorf("security: %w", err)
		}
		settings.Security = append(settings.Security, values)
	}

	return settings, nil
}

func parseSecurityValues(raw json.RawMessage) (SecurityValues, error) {
	var obj struct {
		Id       string `json:"id"`
		APIKey   string `json:"apikey"`
		Username string `json:"username"`
		Password string `json:"password"`
		Token    string `json:"token"`
		Digest   string `json:"digest"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return SecurityValues{}, err
	}
	return SecurityValues{
		Id:       obj.Id,
		APIKey:   resolveEnv(obj.APIKey),
		Username: resolveEnv(obj.Username),
		Password: resolveEnv(obj.Password),
		Token:    resolveEnv(obj.Token),
		Digest:   resolveEnv(obj.Digest),
	}, nil
}

// resolveEnvMap resolves environment variables in every leaf string
// position of a default-input map (§3: "Any string-valued field in
// ... default inputs whose value begins with $ is looked up in process
// environment"), recursing into nested maps and slices. A nil map passes
// through unchanged.
func resolveEnvMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	resolved := make(map[string]any, len(m))
	for k, v := range m {
		resolved[k] = resolveEnvValue(v)
	}
	return resolved
}

// resolveEnvValue applies resolveEnv to v if it is a string, or recurses
// into v if it is a map or slice produced by encoding/json's untyped
// decoding (map[string]any / []any); any other value is returned unchanged.
func resolveEnvValue(v any) any {
	switch val := v.(type) {
	case string:
		return resolveEnv(val)
	case map[string]any:
		return resolveEnvMap(val)
	case []any:
		resolved := make([]any, len(val))
		for i, item := range val {
			resolved[i] = resolveEnvValue(item)
		}
		return resolved
	default:
		return v
	}
}

// resolveEnv looks up s in the process environment when it begins with "$".
// An unset variable is left as the literal "$NAME".
func resolveEnv(s string) string {
	if !strings.HasPrefix(s, "$") {
		return s
	}
	name := strings.TrimPrefix(s, "$")
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return s
}
