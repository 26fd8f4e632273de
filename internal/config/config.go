package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "PROMPTCODER"

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	GoogleService GoogleServiceConfig `mapstructure:"google_service"`
	LLM           LLMConfigs          `mapstructure:"llm"`
	Resilience    ResilienceConfig    `mapstructure:"resilience"`
	RateLimit     RateLimitConfig     `mapstructure:"ratelimit"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Mock          MockConfig          `mapstructure:"mock"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port" validate:"gt=0,lte=65535"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type GoogleServiceConfig struct {
	ProjectId string `mapstructure:"project_id"`
	JsonKey   string `mapstructure:"json_key"`
}

type LLMConfigs struct {
	Provider          string       `mapstructure:"provider" validate:"oneof=gemini openai claude mock"`
	Model             string       `mapstructure:"model" validate:"required"`
	SystemInstruction string       `mapstructure:"system_instruction"`
	Temperature       float32      `mapstructure:"temperature" validate:"gte=0,lte=2"`
	TopP              float32      `mapstructure:"top_p" validate:"gt=0,lte=1"`
	MaxTokens         int          `mapstructure:"max_tokens" validate:"gt=0"`
	Gemini            GeminiConfig `mapstructure:"gemini"`
	OpenAI            OpenAIConfig `mapstructure:"openai"`
	Claude            ClaudeConfig `mapstructure:"claude"`
}

type GeminiConfig struct {
	Key string `mapstructure:"key"`
}

type OpenAIConfig struct {
	Key     string `mapstructure:"key"`
	BaseUrl string `mapstructure:"base_url"`
}

type ClaudeConfig struct {
	Key     string `mapstructure:"key"`
	BaseUrl string `mapstructure:"base_url"`
}

type ResilienceConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold" validate:"gt=0"`
	ResetTimeout     time.Duration `mapstructure:"reset_timeout" validate:"gt=0"`
	MaxRetries       int           `mapstructure:"max_retries" validate:"gt=0"`
	InitialDelay     time.Duration `mapstructure:"initial_delay" validate:"gt=0"`
	AttemptTimeout   time.Duration `mapstructure:"attempt_timeout" validate:"gte=0"`
}

type RateLimitConfig struct {
	PerSecond float64 `mapstructure:"per_second" validate:"gte=0"`
	Burst     int     `mapstructure:"burst" validate:"gte=0"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

type MockConfig struct {
	FailureRate float64 `mapstructure:"failure_rate" validate:"gte=0,lte=1"`
}

// ConfigurationError means the process cannot start with the given settings.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid configuration for %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

var ErrMissingAPIKey = errors.New("API_KEY environment variable is not set")

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.temperature", 0.5)
	v.SetDefault("llm.top_p", 0.95)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("resilience.failure_threshold", 3)
	v.SetDefault("resilience.reset_timeout", "30s")
	v.SetDefault("resilience.max_retries", 3)
	v.SetDefault("resilience.initial_delay", "1s")
	v.SetDefault("resilience.attempt_timeout", "60s")
	v.SetDefault("ratelimit.per_second", 1)
	v.SetDefault("ratelimit.burst", 5)
	v.SetDefault("cache.ttl", "0s")
	v.SetDefault("mock.failure_rate", 0)
}

// LoadConfig reads <configName>.yaml from configPaths (the working directory
// by default) if present, then applies PROMPTCODER_* environment overrides and
// the provider API key variables. A missing key for the active provider is a
// ConfigurationError.
func LoadConfig(configName string, configPaths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if len(configPaths) == 0 {
		configPaths = []string{"."}
	}
	v.SetConfigName(configName)
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindKeys(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &ConfigurationError{Err: fmt.Errorf("error reading config file: %w", err)}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("unable to decode into struct: %w", err)}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func bindKeys(v *viper.Viper) {
	// BindEnv only fails when called without a key.
	_ = v.BindEnv("llm.gemini.key", envPrefix+"_LLM_GEMINI_KEY", "API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("llm.openai.key", envPrefix+"_LLM_OPENAI_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("llm.claude.key", envPrefix+"_LLM_CLAUDE_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("llm.provider", envPrefix+"_LLM_PROVIDER", "LLM_PROVIDER")
	_ = v.BindEnv("server.port", envPrefix+"_SERVER_PORT", "PORT")
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			return &ConfigurationError{Field: validationErrs[0].Namespace(), Err: err}
		}
		return &ConfigurationError{Err: err}
	}

	if c.ActiveKey() == "" && c.LLM.Provider != "mock" {
		return &ConfigurationError{Field: "llm." + c.LLM.Provider + ".key", Err: ErrMissingAPIKey}
	}
	return nil
}

// ActiveKey returns the credential of the configured provider.
func (c *Config) ActiveKey() string {
	switch c.LLM.Provider {
	case "gemini":
		return c.LLM.Gemini.Key
	case "openai":
		return c.LLM.OpenAI.Key
	case "claude":
		return c.LLM.Claude.Key
	default:
		return ""
	}
}
