// Package executor implements the use-case executor (§4.8): it binds a
// (profile, provider) pair to a reusable invocable, composes and validates
// input, drives the map interpreter through the HTTP request stage, and
// validates the result — all wrapped by the event bus and governed by the
// failure-policy router so a single Perform call can retry, back off,
// switch provider, or abort per the profile's configured policy.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/superfaceai/one-sdk-go/bind"
	"github.com/superfaceai/one-sdk-go/config"
	"github.com/superfaceai/one-sdk-go/core"
	"github.com/superfaceai/one-sdk-go/eventbus"
	"github.com/superfaceai/one-sdk-go/httpstage"
	"github.com/superfaceai/one-sdk-go/manifest"
	"github.com/superfaceai/one-sdk-go/registry"
	"github.com/superfaceai/one-sdk-go/resilience"
	"github.com/superfaceai/one-sdk-go/router"
	"github.com/superfaceai/one-sdk-go/security"
	"github.com/superfaceai/one-sdk-go/telemetry"
)

// routerKey identifies one (profile, use-case) router, matching the
// router's documented scope: one instance per pair, reused across calls.
type routerKey struct {
	profile manifest.ProfileId
	useCase string
}

// Executor orchestrates perform calls for a single normalized configuration
// document. It owns the event bus, the bound-provider cache, and the
// lazily-constructed per-(profile,use-case) routers; none of these are
// shared globally, matching the "owned by a Runtime struct" design note.
type Executor struct {
	doc       manifest.Document
	bus       *eventbus.Bus
	cache     *bind.Cache
	stage     *httpstage.Stage
	registry  registry.Client
	mapInterp MapInterpreter
	validator Validator

	now           func() time.Time
	bindTTL       time.Duration
	policyFactory func(manifest.RetryPolicy) resilience.FailurePolicy

	mu      sync.Mutex
	routers map[routerKey]*router.Router
}

// Option configures an Executor at construction time.
type Option func(*Executor)

// WithClock overrides the executor's time source, for deterministic tests
// of cache expiry.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// WithBindTTL overrides how long a bound provider stays cached before the
// next perform call rebinds it. The default is 5 minutes.
func WithBindTTL(d time.Duration) Option {
	return func(e *Executor) { e.bindTTL = d }
}

// WithHTTPStage overrides the HTTP request stage used to execute fetch
// calls, e.g. to inject a resty client with custom transport settings.
func WithHTTPStage(s *httpstage.Stage) Option {
	return func(e *Executor) { e.stage = s }
}

// WithPolicyFactory overrides how a normalized retry policy becomes a
// resilience.FailurePolicy, for tests that need deterministic backoff.
func WithPolicyFactory(f func(manifest.RetryPolicy) resilience.FailurePolicy) Option {
	return func(e *Executor) { e.policyFactory = f }
}

// WithRuntimeSettings applies process-wide ambient settings loaded via
// [config.LoadRuntimeSettings]: the bind cache TTL and the HTTP client
// timeout backing the request stage.
func WithRuntimeSettings(settings *config.RuntimeSettings) Option {
	return func(e *Executor) {
		if settings == nil {
			return
		}
		e.bindTTL = settings.BindCacheTTL
		e.stage = httpstage.New(resty.New().SetTimeout(settings.HTTPTimeout))
	}
}

// New returns an Executor for doc, invoking mapInterp to run maps and
// validator to check composed input and results. registryClient resolves
// and binds profile/provider documents; when it is nil, every bind fails
// with a bind error, since the binding cache starts empty.
func New(doc manifest.Document, registryClient registry.Client, mapInterp MapInterpreter, validator Validator, opts ...Option) *Executor {
	e := &Executor{
		doc:           doc,
		bus:           eventbus.New(),
		stage:         httpstage.New(nil),
		registry:      registryClient,
		mapInterp:     mapInterp,
		validator:     validator,
		now:           time.Now,
		bindTTL:       5 * time.Minute,
		policyFactory: buildPolicy,
		routers:       make(map[routerKey]*router.Router),
	}
	for _, o := range opts {
		o(e)
	}
	e.cache = bind.NewWithClock(e.now)
	return e
}

var _ core.Lifecycle = (*Executor)(nil)

// Bus returns the executor's event bus, for registering pre/post hooks.
func (e *Executor) Bus() *eventbus.Bus { return e.bus }

// InvalidateBindings drops every cached provider binding, forcing the next
// Perform for any (profile, use-case, provider) to rebind from the
// configuration document. A host wires this to a config.Watcher so an
// on-disk document edit takes effect without a process restart.
func (e *Executor) InvalidateBindings() {
	e.cache.InvalidateAll()
}

// Start satisfies core.Lifecycle. The executor has no background work to
// launch; it validates that at least one profile is configured.
func (e *Executor) Start(ctx context.Context) error {
	if len(e.doc.Profiles) == 0 {
		return core.NewConfigurationError("executor.start", "document configures no profiles")
	}
	telemetry.FromContext(ctx).Info(ctx, "executor started", "profiles", len(e.doc.Profiles))
	return nil
}

// Stop satisfies core.Lifecycle. It logs the routers the executor holds and
// returns nil; cached bindings are left in place and expire on their TTL.
func (e *Executor) Stop(ctx context.Context) error {
	e.mu.Lock()
	keys := make([]routerKey, 0, len(e.routers))
	for k := range e.routers {
		keys = append(keys, k)
	}
	e.mu.Unlock()

	telemetry.FromContext(ctx).Info(ctx, "executor stopped", "routers", len(keys))
	return nil
}

// Health satisfies core.Lifecycle. The executor is healthy whenever it has
// a configuration document to serve.
func (e *Executor) Health() core.HealthStatus {
	status := core.HealthHealthy
	msg := "serving"
	if len(e.doc.Profiles) == 0 {
		status = core.HealthUnhealthy
		msg = "no profiles configured"
	}
	return core.HealthStatus{Status: status, Message: msg, Timestamp: e.now()}
}

// PerformOptions carries per-call overrides to Perform.
type PerformOptions struct {
	// Provider, when set, pins the provider for this call and disables
	// failover regardless of the profile's providerFailover default.
	Provider *manifest.ProviderId

	// Security carries per-call security value overrides, merged over the
	// provider's base security values (override wins on id collision).
	Security []security.Values
}

// Perform runs one use-case invocation: it selects a provider, binds it,
// composes and validates input, drives the map interpreter through the
// HTTP request stage, validates the result, and returns it — retrying,
// backing off, or failing over across providers per the active
// failure policy.
func (e *Executor) Perform(ctx context.Context, profileId manifest.ProfileId, useCase string, input map[string]any, opts PerformOptions) (any, error) {
	const op = "executor.perform"

	if core.GetRequestID(ctx) == "" {
		ctx = core.WithNewRequestID(ctx)
	}

	profile, ok := e.doc.Profiles[profileId]
	if !ok {
		return nil, core.NewConfigurationError(op, fmt.Sprintf("profile %q is not configured", profileId))
	}
	if opts.Provider == nil && len(profile.Priority) == 0 {
		return nil, core.NewConfigurationError(op, "no configured provider")
	}

	key := routerKey{profile: profileId, useCase: useCase}
	r := e.routerFor(key, profile)

	ud := profile.Defaults[useCase]

	var explicit *router.ProviderId
	if opts.Provider != nil {
		rp := router.ProviderId(*opts.Provider)
		explicit = &rp
	}
	r.SetAllowFailover(explicit == nil && ud.ProviderFailover)

	attempt := func(ctx context.Context, providerId router.ProviderId, timeout time.Duration) (any, error) {
		return e.attemptOnce(ctx, profileId, profile, useCase, manifest.ProviderId(providerId), input, opts, timeout)
	}

	log := telemetry.FromContext(ctx).With("profile", string(profileId), "useCase", useCase, "requestId", core.GetRequestID(ctx))
	log.Debug(ctx, "perform started")

	result, err := r.Perform(ctx, explicit, attempt)
	if err != nil {
		log.Error(ctx, "perform failed", "error", err)
	} else {
		log.Debug(ctx, "perform succeeded")
	}
	return result, err
}

// routerFor returns the router for key, constructing it lazily from the
// profile's priority and a policy factory derived from each provider's
// normalized per-use-case retry policy.
func (e *Executor) routerFor(key routerKey, profile manifest.ProfileSettings) *router.Router {
	e.mu.Lock()
	defer e.mu.Unlock()

	if r, ok := e.routers[key]; ok {
		return r
	}

	priority := make([]router.ProviderId, len(profile.Priority))
	for i, p := range profile.Priority {
		priority[i] = router.ProviderId(p)
	}

	factory := func(id router.ProviderId) resilience.FailurePolicy {
		providerId := manifest.ProviderId(id)
		pp := profile.Providers[providerId]
		rp := pp.Defaults[key.useCase].RetryPolicy
		return e.policyFactory(rp)
	}

	r := router.New(priority, factory)
	e.routers[key] = r
	return r
}

// performArgs is the pre-perform/post-perform event payload for a single
// attempt against one provider.
type performArgs struct {
	Profile  manifest.ProfileId
	UseCase  string
	Provider manifest.ProviderId
	Input    map[string]any
	Options  PerformOptions
}

// attemptOnce wraps one provider attempt's execution with the bus's
// pre-perform/post-perform hooks, per the design note that each perform
// boundary is an explicit (pre, post) wrapper applied by the bus.
func (e *Executor) attemptOnce(ctx context.Context, profileId manifest.ProfileId, profile manifest.ProfileSettings, useCase string, providerId manifest.ProviderId, input map[string]any, opts PerformOptions, timeout time.Duration) (any, error) {
	args := performArgs{Profile: profileId, UseCase: useCase, Provider: providerId, Input: input, Options: opts}

	return e.bus.Wrap(ctx, eventbus.PrePerform, string(profileId), useCase, args, 0, func(ctx context.Context, a any) (any, error) {
		pa := a.(performArgs)
		return e.execute(ctx, pa, profile, timeout)
	})
}

// execute runs steps 4-9 of perform for one bound provider: acquire the
// binding, compose and validate input, interpret the map, validate the
// result.
func (e *Executor) execute(ctx context.Context, pa performArgs, profile manifest.ProfileSettings, timeout time.Duration) (any, error) {
	const op = "executor.perform"

	providerSettings, ok := e.doc.Providers[pa.Provider]
	if !ok {
		return nil, core.NewConfigurationError(op, fmt.Sprintf("provider %q is not configured", pa.Provider))
	}
	pp := profile.Providers[pa.Provider]

	cacheKey := bind.Key(profileCacheKey(pa.Profile, profile), providerCacheKey(pa.Provider, pp))

	attemptCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	bound, err := e.cache.GetOrCreate(attemptCtx, cacheKey, e.bindFactory(pa.Profile, profile, pa.Provider, providerSettings, pp, pa.Options.Security))
	if err != nil {
		return nil, err
	}

	if lister, ok := bound.Profile.(UseCaseLister); ok && !containsString(lister.UseCases(), pa.UseCase) {
		return nil, core.NewConfigurationError(op, fmt.Sprintf("use case %q not found", pa.UseCase))
	}

	composed := deepMerge(profile.Defaults[pa.UseCase].Input, pp.Defaults[pa.UseCase].Input)
	composed = deepMerge(composed, pa.Input)

	if e.validator != nil {
		if err := e.validator.ValidateInput(attemptCtx, bound.Profile, pa.UseCase, composed); err != nil {
			return nil, core.NewInputValidationError(op, "input validation failed", err)
		}
	}

	fetch := e.fetchFunc(pa.Profile, pa.UseCase)

	result, err := e.mapInterp.Interpret(attemptCtx, bound, pa.UseCase, composed, fetch)
	if err != nil {
		return nil, err
	}

	if e.validator != nil {
		if err := e.validator.ValidateResult(attemptCtx, bound.Profile, pa.UseCase, result); err != nil {
			return nil, core.NewResultValidationError(op, "result validation failed", err)
		}
	}

	return result, nil
}

// fetchFunc returns a FetchFunc routing every HTTP call the map interpreter
// makes through the bus's pre-fetch/post-fetch hooks.
func (e *Executor) fetchFunc(profileId manifest.ProfileId, useCase string) FetchFunc {
	return func(ctx context.Context, req httpstage.Request) (httpstage.Response, error) {
		result, err := e.bus.Wrap(ctx, eventbus.PreFetch, string(profileId), useCase, req, 0, func(ctx context.Context, a any) (any, error) {
			rq := a.(httpstage.Request)
			resp, err := e.stage.Do(ctx, rq)
			return resp, err
		})
		if err != nil {
			return httpstage.Response{}, err
		}
		resp, _ := result.(httpstage.Response)
		return resp, nil
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
