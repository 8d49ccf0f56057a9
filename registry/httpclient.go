package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/superfaceai/one-sdk-go/cache"
	"github.com/superfaceai/one-sdk-go/config"
	"github.com/superfaceai/one-sdk-go/internal/httpclient"
)

// defaultRetries is used when a config.ProviderConfig does not set a
// "retries" option.
const defaultRetries = 3

// HTTPClient is the default [Client] implementation: it talks to a remote
// registry over plain HTTP/JSON, retrying transient 429/503 responses with
// the shared internal httpclient. Provider and map-source lookups are
// read-through cached in an optional [cache.Cache]; bind responses are not,
// since a bound provider already has its own TTL in [bind.Cache].
type HTTPClient struct {
	http     *httpclient.Client
	cache    cache.Cache
	cacheTTL time.Duration
}

// HTTPClientOption configures an HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithLookupCache enables read-through caching of FetchProviderInfo and
// FetchMapSource responses in c, each entry held for ttl.
func WithLookupCache(c cache.Cache, ttl time.Duration) HTTPClientOption {
	return func(hc *HTTPClient) {
		hc.cache = c
		hc.cacheTTL = ttl
	}
}

// NewHTTPClient returns an HTTPClient against baseURL, authenticating with
// token when non-empty and retrying up to retries times.
func NewHTTPClient(baseURL, token string, retries int, opts ...HTTPClientOption) *HTTPClient {
	httpOpts := []httpclient.Option{
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRetries(retries),
	}
	if token != "" {
		httpOpts = append(httpOpts, httpclient.WithBearerToken(token))
	}
	c := &HTTPClient{http: httpclient.New(httpOpts...)}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewHTTPClientFromConfig returns an HTTPClient built from cfg: cfg.BaseURL
// is the registry's base URL, cfg.APIKey authenticates as a bearer token
// when non-empty, cfg.Timeout bounds each request, and a "retries" option
// (see [config.GetOption]) overrides the retry count, defaulting to
// [defaultRetries]. This is the loader-backed counterpart to [NewHTTPClient]
// for hosts that assemble their collaborators via
// [github.com/superfaceai/one-sdk-go/config.LoadProviderConfig].
func NewHTTPClientFromConfig(cfg config.ProviderConfig, opts ...HTTPClientOption) *HTTPClient {
	retries := defaultRetries
	if n, ok := config.GetOption[int](cfg, "retries"); ok {
		retries = n
	}

	httpOpts := []httpclient.Option{
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRetries(retries),
	}
	if cfg.APIKey != "" {
		httpOpts = append(httpOpts, httpclient.WithBearerToken(cfg.APIKey))
	}
	if cfg.Timeout > 0 {
		httpOpts = append(httpOpts, httpclient.WithTimeout(cfg.Timeout))
	}

	c := &HTTPClient{http: httpclient.New(httpOpts...)}
	for _, o := range opts {
		o(c)
	}
	return c
}

// bindWireRequest mirrors BindRequest with the registry's own JSON field
// names (camelCase, matching the wire protocol's "ProviderJson" convention).
type bindWireRequest struct {
	ProfileID      string `json:"profileId"`
	ProfileVersion string `json:"profileVersion,omitempty"`
	Provider       string `json:"provider"`
	MapVariant     string `json:"mapVariant,omitempty"`
	MapRevision    string `json:"mapRevision,omitempty"`
}

type bindWireResponse struct {
	Provider ProviderJSON `json:"provider"`
	MapAST   MapDocument  `json:"mapAst"`
}

// FetchBind resolves req against POST /registry/bind.
func (c *HTTPClient) FetchBind(ctx context.Context, req BindRequest) (BindResponse, error) {
	wire := bindWireRequest{
		ProfileID:      req.ProfileId,
		ProfileVersion: req.ProfileVersion,
		Provider:       req.Provider,
		MapVariant:     req.MapVariant,
		MapRevision:    req.MapRevision,
	}
	resp, err := httpclient.DoJSON[bindWireResponse](ctx, c.http, http.MethodPost, "/registry/bind", wire)
	if err != nil {
		return BindResponse{}, fmt.Errorf("registry: fetch bind: %w", err)
	}
	return BindResponse{Provider: resp.Provider, MapAST: resp.MapAST}, nil
}

// FetchMapSource fetches the raw map source from GET /registry/maps/{mapId},
// serving a cached copy when a lookup cache is configured.
func (c *HTTPClient) FetchMapSource(ctx context.Context, mapId string) (string, error) {
	cacheKey := "map-source:" + mapId
	if c.cache != nil {
		if s, ok, _ := cache.GetTyped[string](ctx, c.cache, cacheKey); ok {
			return s, nil
		}
	}

	resp, err := c.http.Do(ctx, http.MethodGet, "/registry/maps/"+mapId, nil, nil)
	if err != nil {
		return "", fmt.Errorf("registry: fetch map source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", &httpclient.APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("registry: read map source: %w", err)
	}

	source := string(body)
	if c.cache != nil {
		_ = c.cache.Set(ctx, cacheKey, source, c.cacheTTL)
	}
	return source, nil
}

// FetchProviderInfo fetches a provider document from GET
// /registry/providers/{providerName}, serving a cached copy when a lookup
// cache is configured.
func (c *HTTPClient) FetchProviderInfo(ctx context.Context, providerName string) (ProviderJSON, error) {
	cacheKey := "provider-info:" + providerName
	if c.cache != nil {
		if p, ok, _ := cache.GetTyped[ProviderJSON](ctx, c.cache, cacheKey); ok {
			return p, nil
		}
	}

	resp, err := httpclient.DoJSON[ProviderJSON](ctx, c.http, http.MethodGet, "/registry/providers/"+providerName, nil)
	if err != nil {
		return ProviderJSON{}, fmt.Errorf("registry: fetch provider info: %w", err)
	}

	if c.cache != nil {
		_ = c.cache.Set(ctx, cacheKey, resp, c.cacheTTL)
	}
	return resp, nil
}

var _ Client = (*HTTPClient)(nil)
