// Package runtime assembles the executor and its collaborators into one
// managed process component: it loads the configuration document and
// ambient runtime settings, builds the registry HTTP client with its
// lookup cache, and registers everything with a core.App so a host
// program gets ordered start/stop and health reporting for free.
package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/superfaceai/one-sdk-go/cache"
	_ "github.com/superfaceai/one-sdk-go/cache/providers/inmemory"
	"github.com/superfaceai/one-sdk-go/config"
	"github.com/superfaceai/one-sdk-go/core"
	"github.com/superfaceai/one-sdk-go/executor"
	"github.com/superfaceai/one-sdk-go/manifest"
	"github.com/superfaceai/one-sdk-go/registry"
	"github.com/superfaceai/one-sdk-go/telemetry"
)

// Runtime is a fully wired executor plus its lifecycle-managed
// collaborators.
type Runtime struct {
	Executor *executor.Executor
	Settings *config.RuntimeSettings
	Logger   *telemetry.Logger

	app     *core.App
	watcher config.Watcher
}

// Options configures New.
type Options struct {
	// ManifestDir is the starting directory for configuration document
	// discovery; an empty value searches from the current working
	// directory, per manifest.Discover.
	ManifestDir string

	// SettingsPaths lists directories LoadRuntimeSettings searches for an
	// onesdk.yaml config file.
	SettingsPaths []string

	// SettingsEnvPrefix is the environment variable prefix runtime settings
	// are additionally read from (e.g. "ONESDK").
	SettingsEnvPrefix string

	// RegistryToken authenticates requests to the registry, when non-empty.
	// It overrides any api_key loaded via config.LoadProviderConfig.
	RegistryToken string

	// WatchInterval, when non-zero, starts a config.FileWatcher polling the
	// discovered configuration document at this interval; an edit drops
	// every cached binding so the next Perform rebinds from the file's new
	// contents. Zero disables watching.
	WatchInterval time.Duration

	MapInterpreter executor.MapInterpreter
	Validator      executor.Validator
}

// New discovers and loads the configuration document, loads ambient runtime
// settings, and assembles an Executor wired to a cache-backed registry
// HTTP client, ready to Start.
func New(opts Options) (*Runtime, error) {
	docPath, err := manifest.Discover(opts.ManifestDir)
	if err != nil {
		return nil, fmt.Errorf("runtime: discover configuration document: %w", err)
	}
	doc, err := manifest.Load(docPath)
	if err != nil {
		return nil, fmt.Errorf("runtime: load configuration document: %w", err)
	}

	settings, err := config.LoadRuntimeSettings(opts.SettingsPaths, opts.SettingsEnvPrefix)
	if err != nil {
		return nil, fmt.Errorf("runtime: load runtime settings: %w", err)
	}

	logger := telemetry.NewLogger(telemetry.WithLevel(settings.LogLevel))

	lookupCache, err := cache.New("inmemory", cache.Config{TTL: settings.BindCacheTTL, MaxSize: 1000})
	if err != nil {
		return nil, fmt.Errorf("runtime: build lookup cache: %w", err)
	}

	registryConfig, err := config.LoadProviderConfig("registry", opts.SettingsPaths, opts.SettingsEnvPrefix)
	if err != nil {
		return nil, fmt.Errorf("runtime: load registry provider config: %w", err)
	}
	if registryConfig.BaseURL == "" {
		registryConfig.BaseURL = settings.RegistryBaseURL
	}
	if opts.RegistryToken != "" {
		registryConfig.APIKey = opts.RegistryToken
	}

	registryClient := registry.NewHTTPClientFromConfig(
		*registryConfig,
		registry.WithLookupCache(lookupCache, settings.BindCacheTTL),
	)

	exec := executor.New(doc, registryClient, opts.MapInterpreter, opts.Validator, executor.WithRuntimeSettings(settings))

	app := core.NewApp()
	app.Register(exec)
	app.RegisterHooks(core.AppHooks{
		OnComponentError: func(ctx context.Context, err error) error {
			logger.Error(ctx, "component failed to start", "error", err)
			return nil
		},
		OnShutdown: func(ctx context.Context) {
			logger.Info(ctx, "runtime shut down")
		},
	})

	rt := &Runtime{Executor: exec, Settings: settings, Logger: logger, app: app}

	if opts.WatchInterval > 0 {
		rt.watcher = config.NewFileWatcher(docPath, opts.WatchInterval)
		go func() {
			ctx := context.Background()
			err := rt.watcher.Watch(ctx, func(_ any) {
				exec.InvalidateBindings()
				logger.Info(ctx, "configuration document changed, bindings invalidated", "path", docPath)
			})
			if err != nil && err != context.Canceled {
				logger.Error(ctx, "configuration watcher stopped", "error", err)
			}
		}()
	}

	return rt, nil
}

// Start starts every managed component (currently just the executor).
func (r *Runtime) Start(ctx context.Context) error {
	return r.app.Start(ctx)
}

// Shutdown stops every managed component in reverse order and, if a
// configuration watcher is running, closes it.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r.watcher != nil {
		_ = r.watcher.Close()
	}
	return r.app.Shutdown(ctx)
}

// Health reports the health of every managed component.
func (r *Runtime) Health() []core.HealthStatus {
	return r.app.HealthCheck()
}

// Perform runs one use-case invocation through the wired executor. It is a
// thin passthrough kept here so callers depend only on package runtime.
func (r *Runtime) Perform(ctx context.Context, profileId manifest.ProfileId, useCase string, input map[string]any, opts executor.PerformOptions) (any, error) {
	return r.Executor.Perform(ctx, profileId, useCase, input, opts)
}
