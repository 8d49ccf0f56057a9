package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// RuntimeSettings holds the ambient settings that tune the runtime itself —
// distinct from [ProviderConfig], which configures one external collaborator.
// These are typically loaded once at process startup from a config file and/or
// environment variables via [LoadRuntimeSettings].
type RuntimeSettings struct {
	// RegistryBaseURL is the base URL of the remote profile/map/provider
	// document registry.
	RegistryBaseURL string `mapstructure:"registry_base_url" validate:"required,url"`

	// HTTPTimeout bounds every outgoing HTTP request the runtime makes,
	// including registry lookups and provider calls without their own
	// per-use-case requestTimeout.
	HTTPTimeout time.Duration `mapstructure:"http_timeout" validate:"min=1ms"`

	// BindCacheTTL is how long a resolved (profile, provider) binding stays
	// cached before the next perform call rebinds it.
	BindCacheTTL time.Duration `mapstructure:"bind_cache_ttl" validate:"min=1s"`

	// MaxDiscoveryLevels bounds how many parent directories the
	// configuration document discovery walks before giving up.
	MaxDiscoveryLevels int `mapstructure:"max_discovery_levels" validate:"min=1"`

	// LogLevel controls the verbosity of the runtime's structured logging.
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// defaultRuntimeSettings seeds viper so every field resolves to a sane value
// even when no config file and no environment variables are present.
func defaultRuntimeSettings() map[string]any {
	return map[string]any{
		"registry_base_url":   "https://registry.superface.ai",
		"http_timeout":        30 * time.Second,
		"bind_cache_ttl":      5 * time.Minute,
		"max_discovery_levels": 16,
		"log_level":           "info",
	}
}

// LoadRuntimeSettings reads RuntimeSettings from a "onesdk" config file (YAML,
// searched in each of configPaths) overlaid with envPrefix-prefixed
// environment variables (e.g. envPrefix "ONESDK" binds ONESDK_HTTP_TIMEOUT to
// HTTPTimeout), and validates the result. A missing config file is not an
// error: defaults and environment variables still apply.
func LoadRuntimeSettings(configPaths []string, envPrefix string) (*RuntimeSettings, error) {
	v := viper.New()

	for key, val := range defaultRuntimeSettings() {
		v.SetDefault(key, val)
	}

	v.SetConfigName("onesdk")
	v.SetConfigType("yaml")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read runtime settings: %w", err)
		}
	}

	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var settings RuntimeSettings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("config: decode runtime settings: %w", err)
	}

	if err := validateRuntimeSettings(&settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// validateRuntimeSettings checks s against its validate tags, translating the
// first failing field into this package's *ValidationError so callers handle
// one error shape regardless of which loader produced it.
func validateRuntimeSettings(s *RuntimeSettings) error {
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		return translateValidationError(err)
	}
	return nil
}
