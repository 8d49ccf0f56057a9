package httpstage

import (
	"encoding/base64"
	"fmt"

	"github.com/superfaceai/one-sdk-go/core"
	"github.com/superfaceai/one-sdk-go/security"
)

// workingRequest holds the mutable pieces security application and body
// encoding touch, separate from the immutable Request the caller supplied.
type workingRequest struct {
	pathParams map[string]any
	query      []QueryParam
	headers    map[string]string
	body       any
}

// applySecurity injects every security.Configuration named by requirements
// into w, per the injection rule for its scheme kind. Every requirement id
// must resolve to exactly one configuration, or the call fails before
// anything is sent.
func applySecurity(op string, requirements []string, configs []security.Configuration, w *workingRequest, digestChallenge func(method, url string) (string, error), method, urlForChallenge string) error {
	byID := make(map[string]security.Configuration, len(configs))
	for _, c := range configs {
		byID[c.Scheme.Id] = c
	}

	for _, id := range requirements {
		cfg, ok := byID[id]
		if !ok {
			return core.NewConfigurationError(op, fmt.Sprintf("no security configuration resolvable for requirement %q", id))
		}
		if err := applyOne(op, cfg, w, digestChallenge, method, urlForChallenge); err != nil {
			return err
		}
	}
	return nil
}

func applyOne(op string, cfg security.Configuration, w *workingRequest, digestChallenge func(method, url string) (string, error), method, urlForChallenge string) error {
	switch cfg.Scheme.Kind {
	case security.KindAPIKey:
		return applyAPIKey(op, cfg, w)
	case security.KindHTTPBasic:
		token := base64.StdEncoding.EncodeToString([]byte(cfg.Values.Username + ":" + cfg.Values.Password))
		w.headers["Authorization"] = "Basic " + token
	case security.KindHTTPBearer:
		w.headers["Authorization"] = "Bearer " + cfg.Values.Token
	case security.KindHTTPDigest:
		return applyDigest(op, cfg, w, digestChallenge, method, urlForChallenge)
	default:
		return core.NewConfigurationError(op, fmt.Sprintf("unsupported security scheme kind %q", cfg.Scheme.Kind))
	}
	return nil
}

func applyAPIKey(op string, cfg security.Configuration, w *workingRequest) error {
	switch cfg.Scheme.In {
	case security.InHeader:
		w.headers[cfg.Scheme.Name] = cfg.Values.APIKey
	case security.InQuery:
		w.query = append(w.query, QueryParam{Key: cfg.Scheme.Name, Value: cfg.Values.APIKey})
	case security.InPath:
		w.pathParams[cfg.Scheme.Name] = cfg.Values.APIKey
	case security.InBody:
		obj, ok := w.body.(map[string]any)
		if !ok {
			return core.NewConfigurationError(op, fmt.Sprintf("security scheme %q requires a JSON object body to inject into", cfg.Scheme.Id))
		}
		obj[cfg.Scheme.Name] = cfg.Values.APIKey
		w.body = obj
	default:
		return core.NewConfigurationError(op, fmt.Sprintf("unknown apikey location %q", cfg.Scheme.In))
	}
	return nil
}

// applyDigest applies the resolved Authorization header for a digest
// scheme. A precomputed value (Values.Digest) is applied directly; the
// spec defers the full challenge-response handshake to an
// implementation-specific helper, invoked here only when the caller
// supplied one and no precomputed value is available.
func applyDigest(op string, cfg security.Configuration, w *workingRequest, digestChallenge func(method, url string) (string, error), method, urlForChallenge string) error {
	if cfg.Values.Digest != "" {
		w.headers["Authorization"] = cfg.Values.Digest
		return nil
	}
	if digestChallenge == nil {
		return core.NewConfigurationError(op, fmt.Sprintf("security scheme %q needs a digest challenge helper (none configured) and no precomputed digest value was supplied", cfg.Scheme.Id))
	}
	header, err := digestChallenge(method, urlForChallenge)
	if err != nil {
		return core.NewBindError(op, "digest challenge failed", err)
	}
	w.headers["Authorization"] = header
	return nil
}
