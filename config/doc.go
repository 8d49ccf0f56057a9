// Package config provides the runtime's ambient settings loader, per-
// collaborator provider configuration, and file watching for hot-reload.
//
// Configuration is loaded from YAML files and/or environment variables
// through [github.com/spf13/viper], then validated with
// [github.com/go-playground/validator/v10] struct tags — the same stack
// serves both [RuntimeSettings] and [ProviderConfig].
//
// # Runtime settings
//
// [LoadRuntimeSettings] reads the process-wide ambient settings (registry
// base URL, HTTP timeout, bind cache TTL, discovery depth, log level) from
// an "onesdk.yaml" file overlaid with environment variables:
//
//	settings, err := config.LoadRuntimeSettings([]string{"."}, "ONESDK")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Provider configuration
//
// [LoadProviderConfig] reads ambient configuration for one external
// collaborator (the registry client, a map interpreter, a validator) from a
// "<name>.yaml" file overlaid with environment variables, producing a
// [ProviderConfig]:
//
//	cfg, err := config.LoadProviderConfig("registry", []string{"."}, "ONESDK")
//	retries, ok := config.GetOption[int](*cfg, "retries")
//
// [GetOption] retrieves typed values from a ProviderConfig's Options map.
//
// # Validation
//
// Both loaders validate their result against go-playground/validator
// "validate" struct tags (e.g. `validate:"required,url"`) and translate the
// first failing field into a [*ValidationError].
//
// # File Watching
//
// The [Watcher] interface abstracts configuration change detection.
// [FileWatcher] polls a file at regular intervals using SHA-256 content
// hashing, invoking a callback when changes are detected. runtime.New wires
// one against the discovered super.json when given a non-zero
// WatchInterval, invalidating the executor's bound-provider cache on
// change:
//
//	watcher := config.NewFileWatcher("super.json", 5*time.Second)
//	err := watcher.Watch(ctx, func(newConfig any) {
//	    data := newConfig.([]byte)
//	    // re-parse and apply configuration
//	})
package config
