package httpstage

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/superfaceai/one-sdk-go/core"
)

var pathVarPattern = regexp.MustCompile(`\{([A-Za-z0-9_.]+)\}`)

// interpolatePath resolves every "{dotted.name}" segment in raw against
// params, a flat map keyed by the dotted name (maps are not nested here;
// dots are part of the key itself, matching how a map interpreter flattens
// its path-parameter object). Missing values are fatal with a diagnostic
// listing every missing key, every key actually found, and the variables
// the template references.
func interpolatePath(op, raw string, params map[string]any) (string, error) {
	var missing []string
	found := make([]string, 0, len(params))
	for k := range params {
		found = append(found, k)
	}
	sort.Strings(found)

	resolved := pathVarPattern.ReplaceAllStringFunc(raw, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := params[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return stringifyPathValue(v)
	})

	if len(missing) > 0 {
		sort.Strings(missing)
		return "", core.NewConfigurationError(
			op,
			fmt.Sprintf("missing path parameter(s): %s", strings.Join(missing, ", ")),
			fmt.Sprintf("missing: %s", strings.Join(missing, ", ")),
			fmt.Sprintf("available variables: %s", strings.Join(found, ", ")),
			fmt.Sprintf("url template: %s", raw),
		)
	}
	return resolved, nil
}

// stringifyPathValue renders v for substitution into a URL path segment.
// Strings are used as-is; everything else is JSON-encoded, per the stage's
// contract that non-string path values are stringified by JSON-encoding.
func stringifyPathValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	// Strip the wrapping quotes from values that are not of type string but
	// encode as JSON strings (named string types, time.Time and other
	// marshalers); numbers, booleans and null are already bare.
	return strings.Trim(string(b), `"`)
}

// composeURL joins base and path. When path is absolute (http:// or
// https://) it is returned unchanged and base is ignored. A path beginning
// with "/" requires a non-empty base; trailing slashes are stripped from
// base and the path's leading slash is preserved.
func composeURL(op, base, path string) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path, nil
	}
	if !strings.HasPrefix(path, "/") {
		return "", core.NewConfigurationError(op, fmt.Sprintf("relative URL %q must begin with \"/\"", path))
	}
	if base == "" {
		return "", core.NewConfigurationError(op, fmt.Sprintf("URL %q is relative but no base URL is configured", path))
	}
	return strings.TrimRight(base, "/") + path, nil
}
