package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported generation providers
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Generation GenerationConfig
	Session    SessionConfig
	Upload     UploadConfig
	Fetch      FetchConfig
	RabbitMQ   RabbitMQConfig
	CORS       CORSConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// GenerationConfig holds the text generation provider settings
type GenerationConfig struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	// BaseURL overrides the provider endpoint. Required for OpenAI-compatible gateways.
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// IdleTimeout aborts a stream that delivers no chunk for this long. Zero disables it.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
}

// Validate checks the generation settings that cannot be defaulted
func (c *GenerationConfig) Validate(environment string) error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown generation provider %q", c.Provider)
	}
	if c.Provider == ProviderOpenAI && c.BaseURL == "" {
		return errors.New("ATTRACT_GENERATION_BASE_URL required for provider " + ProviderOpenAI)
	}
	if (environment == EnvProduction || environment == EnvStaging) && c.APIKey == "" {
		return errors.New("ATTRACT_GENERATION_API_KEY or API_KEY required in " + environment)
	}
	return nil
}

// SessionConfig holds settings of the in-memory generation sessions
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
	// FallbackSection exposes the raw response as one section when it cannot be parsed
	FallbackSection bool `mapstructure:"fallback_section"`
}

// UploadConfig holds document upload limits
type UploadConfig struct {
	MaxPDFBytes int64 `mapstructure:"max_pdf_bytes"`
}

// FetchConfig holds limits for loading job postings from a URL
type FetchConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxBytes int64         `mapstructure:"max_bytes"`
}

// RabbitMQConfig holds RabbitMQ connection configuration.
// An empty URL disables event publishing.
type RabbitMQConfig struct {
	URL            string        `mapstructure:"url"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	MaxRetries     int           `mapstructure:"max_retries"`
	// ConnectionName is shown for the connection in the RabbitMQ management UI
	ConnectionName string `mapstructure:"connection_name"`
}

// Enabled reports whether events should be published
func (c *RabbitMQConfig) Enabled() bool {
	return c.URL != ""
}

// CORSConfig holds the browser origins allowed to call the API
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load loads configuration from environment and config files.
// This function applies development defaults and is suitable for local development.
// For production use, prefer LoadWithValidation which enforces required configuration.
func Load(serviceName string) (*Config, error) {
	return loadConfig(serviceName)
}

// LoadWithValidation loads configuration and validates it for the current environment.
// In production/staging environments, this will fail if required configuration is missing.
func LoadWithValidation(serviceName string) (*Config, error) {
	cfg, err := loadConfig(serviceName)
	if err != nil {
		return nil, err
	}

	if err := cfg.Generation.Validate(cfg.Server.Environment); err != nil {
		return nil, fmt.Errorf("generation configuration error: %w", err)
	}

	if cfg.Server.Environment == EnvProduction || cfg.Server.Environment == EnvStaging {
		if cfg.RabbitMQ.Enabled() && strings.Contains(cfg.RabbitMQ.URL, "localhost") {
			return nil, errors.New("ATTRACT_RABBITMQ_URL must be a non-localhost value in " + cfg.Server.Environment)
		}
	}

	return cfg, nil
}

func loadConfig(serviceName string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("ATTRACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// API_KEY is the name the hosted deployment has always used
	if err := v.BindEnv("generation.api_key", "ATTRACT_GENERATION_API_KEY", "API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind api key env: %w", err)
	}

	v.SetConfigName(serviceName)
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/attract")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Server.Environment = strings.ToLower(cfg.Server.Environment)
	cfg.Generation.Provider = strings.ToLower(strings.TrimSpace(cfg.Generation.Provider))
	cfg.Generation.APIKey = strings.TrimSpace(cfg.Generation.APIKey)
	cfg.CORS.AllowedOrigins = splitOrigins(cfg.CORS.AllowedOrigins)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults. Streams can run for minutes, so writes get a long deadline.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.environment", EnvDevelopment)

	// Generation defaults
	v.SetDefault("generation.provider", ProviderGemini)
	v.SetDefault("generation.api_key", "")
	v.SetDefault("generation.model", "gemini-2.5-flash-preview-04-17")
	v.SetDefault("generation.base_url", "")
	v.SetDefault("generation.request_timeout", 3*time.Minute)
	v.SetDefault("generation.idle_timeout", 45*time.Second)
	v.SetDefault("generation.temperature", 0.7)
	v.SetDefault("generation.max_tokens", 8192)

	// Session defaults
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.fallback_section", true)

	// Upload and fetch defaults
	v.SetDefault("upload.max_pdf_bytes", 5<<20)
	v.SetDefault("fetch.timeout", 15*time.Second)
	v.SetDefault("fetch.max_bytes", 2<<20)

	// RabbitMQ defaults (empty URL disables publishing)
	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.reconnect_delay", 5*time.Second)
	v.SetDefault("rabbitmq.max_retries", 5)
	v.SetDefault("rabbitmq.connection_name", "attract-service")

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
}

// splitOrigins accepts both a YAML list and a comma separated env value
func splitOrigins(in []string) []string {
	var out []string
	for _, item := range in {
		for _, origin := range strings.Split(item, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				out = append(out, origin)
			}
		}
	}
	return out
}
