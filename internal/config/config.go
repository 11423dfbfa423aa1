// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Session store backends.
const (
	SessionStoreSQLite = "sqlite"
	SessionStoreRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	AppURL          string        `env:"APP_URL"` // public base URL used for checkout redirects
	FrontendURL     string        `env:"FRONTEND_URL"`
	DBPath          string        `env:"DB_PATH" envDefault:"./data/insurx.db"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Session SessionConfig `envPrefix:"SESSION_"`
	Redis   RedisConfig   `envPrefix:"REDIS_"`
	Backend BackendConfig `envPrefix:"BACKEND_"`
	Gemini  GeminiConfig  `envPrefix:"GEMINI_"`
	Stripe  StripeConfig  `envPrefix:"STRIPE_"`
}

// SessionConfig controls the server-side session store.
type SessionConfig struct {
	Store         string        `env:"STORE" envDefault:"sqlite"`
	TTL           time.Duration `env:"TTL" envDefault:"720h"`
	PruneInterval time.Duration `env:"PRUNE_INTERVAL" envDefault:"5m"`
}

// RedisConfig is only used when SESSION_STORE=redis.
type RedisConfig struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// BackendConfig points at the external InsurX REST API.
type BackendConfig struct {
	URL     string        `env:"URL" envDefault:"http://localhost:4000/api"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// GeminiConfig configures the generative-language API. An empty APIKey
// selects placeholder responses.
type GeminiConfig struct {
	APIKey          string        `env:"API_KEY"`
	Model           string        `env:"MODEL" envDefault:"gemini-3-flash-preview"`
	BaseURL         string        `env:"BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	Timeout         time.Duration `env:"TIMEOUT" envDefault:"30s"`
	MaxOutputTokens int           `env:"MAX_OUTPUT_TOKENS" envDefault:"1024"`
}

// StripeConfig configures the payments processor.
type StripeConfig struct {
	SecretKey string `env:"SECRET_KEY"`
	Currency  string `env:"CURRENCY" envDefault:"usd"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.Gemini.APIKey = strings.TrimSpace(cfg.Gemini.APIKey)
	cfg.Stripe.SecretKey = strings.TrimSpace(cfg.Stripe.SecretKey)
	cfg.Session.Store = strings.ToLower(strings.TrimSpace(cfg.Session.Store))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH cannot be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be > 0")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	switch c.Session.Store {
	case SessionStoreSQLite:
	case SessionStoreRedis:
		if c.Redis.Addr == "" {
			return errors.New("SESSION_STORE is redis but REDIS_ADDR is not set")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be sqlite or redis, got %q", c.Session.Store)
	}
	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be > 0")
	}
	if c.Session.PruneInterval <= 0 {
		return errors.New("SESSION_PRUNE_INTERVAL must be > 0")
	}
	if u, err := url.Parse(c.Backend.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BACKEND_URL must be an absolute URL, got %q", c.Backend.URL)
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("BACKEND_TIMEOUT must be > 0")
	}
	if c.Gemini.Timeout <= 0 {
		return errors.New("GEMINI_TIMEOUT must be > 0")
	}
	if c.Gemini.MaxOutputTokens <= 0 {
		return errors.New("GEMINI_MAX_OUTPUT_TOKENS must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// GenerativeEnabled reports whether a generative-language credential is configured.
func (c *Config) GenerativeEnabled() bool {
	return c.Gemini.APIKey != ""
}

// PaymentsEnabled reports whether a usable payments secret key is configured.
// Publishable or malformed keys count as unconfigured.
func (c *Config) PaymentsEnabled() bool {
	return strings.HasPrefix(c.Stripe.SecretKey, "sk_")
}
