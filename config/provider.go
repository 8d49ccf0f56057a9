package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ValidationError reports a single field that failed validation, regardless
// of which loader in this package produced the failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: validation failed for %q: %s", e.Field, e.Message)
}

// translateValidationError converts the first go-playground/validator
// failure in err into a *ValidationError, so every loader in this package
// surfaces the same error shape regardless of which struct it validates.
// Non-validator errors (e.g. a malformed validate tag) pass through as-is.
func translateValidationError(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return &ValidationError{
		Field:   fe.Field(),
		Message: fmt.Sprintf("failed %q validation (got %v)", fe.Tag(), fe.Value()),
	}
}

// ProviderConfig holds common ambient configuration for an external
// collaborator such as the registry client or a map interpreter.
// Collaborator-specific options live in the Options map.
//
// Example YAML (registry.yaml):
//
//	provider: registry
//	api_key: sk-...
//	base_url: https://registry.superface.ai
//	timeout: 30s
//	options:
//	  retries: 3
type ProviderConfig struct {
	// Provider is the registered collaborator name (e.g. "registry").
	Provider string `mapstructure:"provider" validate:"required"`

	// APIKey is the authentication key, if the collaborator requires one.
	APIKey string `mapstructure:"api_key"`

	// Model is an optional collaborator-specific identifier.
	Model string `mapstructure:"model"`

	// BaseURL overrides the default API endpoint.
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`

	// Timeout is the maximum duration for a single request.
	Timeout time.Duration `mapstructure:"timeout"`

	// Options holds provider-specific key-value configuration.
	Options map[string]any `mapstructure:"options"`
}

// LoadProviderConfig reads a ProviderConfig for the named collaborator from
// a "<name>.yaml" file (searched in each of configPaths) overlaid with
// envPrefix-prefixed environment variables (e.g. name "registry", envPrefix
// "ONESDK" binds ONESDK_API_KEY to APIKey), using the same viper/validator
// stack [LoadRuntimeSettings] uses for the runtime's own ambient settings. A
// missing config file is not an error: Provider=name, Timeout=30s, and any
// set environment variables still apply.
func LoadProviderConfig(name string, configPaths []string, envPrefix string) (*ProviderConfig, error) {
	v := viper.New()
	v.SetDefault("provider", name)
	v.SetDefault("timeout", 30*time.Second)
	// Empty defaults make these keys known to viper, so AutomaticEnv picks
	// up their environment variables even when no file sets them.
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", "")
	v.SetDefault("model", "")

	v.SetConfigName(name)
	v.SetConfigType("yaml")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read provider config %q: %w", name, err)
		}
	}

	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg ProviderConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode provider config %q: %w", name, err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, translateValidationError(err)
	}
	return &cfg, nil
}

// GetOption retrieves a typed value from the provider's Options map.
// It returns the value and true if the key exists and the type assertion
// succeeds, or the zero value of T and false otherwise.
//
// Usage:
//
//	retries, ok := config.GetOption[int](cfg, "retries")
func GetOption[T any](cfg ProviderConfig, key string) (T, bool) {
	var zero T
	if cfg.Options == nil {
		return zero, false
	}
	v, ok := cfg.Options[key]
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
