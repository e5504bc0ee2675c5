// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	defaultAuth0Domain   = "dev.local"
	defaultAuth0Audience = "https://babelbye.local"
	defaultAuth0Issuer   = "https://dev.local/"
)

// ErrAuthNotConfigured is returned when token auth is enabled but Auth0 is left on defaults.
var ErrAuthNotConfigured = errors.New("auth0 settings must be provided when AUTH_BYPASS=false")

// ErrDevTokenWithoutBypass is returned when a dev token secret is set while
// production token auth is in force.
var ErrDevTokenWithoutBypass = errors.New("DEV_TOKEN_SECRET is only allowed with AUTH_BYPASS=true")

// Config holds every environment-driven setting of the backend.
type Config struct {
	Port             int    `envconfig:"PORT" default:"8080"`
	DatabaseURL      string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConnections int    `envconfig:"DB_MAX_CONNECTIONS" default:"5"`

	// Redis is optional; an empty address disables caching and presence.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	AuthBypass     bool   `envconfig:"AUTH_BYPASS" default:"false"`
	Auth0Domain    string `envconfig:"AUTH0_DOMAIN" default:"dev.local"`
	Auth0Audience  string `envconfig:"AUTH0_AUDIENCE" default:"https://babelbye.local"`
	Auth0Issuer    string `envconfig:"AUTH0_ISSUER" default:"https://dev.local/"`
	AuthDiscovery  bool   `envconfig:"AUTH_DISCOVERY" default:"false"`
	DevTokenSecret string `envconfig:"DEV_TOKEN_SECRET"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"*"`

	TranslationProvider  string        `envconfig:"TRANSLATION_PROVIDER" default:"auto"`
	TranslationTimeout   time.Duration `envconfig:"TRANSLATION_TIMEOUT" default:"15s"`
	OpenAIAPIURL         string        `envconfig:"OPENAI_API_URL" default:"https://api.openai.com/v1"`
	OpenAIAPIKey         string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel          string        `envconfig:"OPENAI_MODEL" default:"gpt-5.2"`
	LibreTranslateURL    string        `envconfig:"LIBRETRANSLATE_URL"`
	LibreTranslateAPIKey string        `envconfig:"LIBRETRANSLATE_API_KEY"`

	OutboundBuffer     int    `envconfig:"OUTBOUND_BUFFER" default:"256"`
	NotifySendFailures bool   `envconfig:"NOTIFY_SEND_FAILURES" default:"false"`
	LogLevel           string `envconfig:"LOG_LEVEL" default:"INFO"`
}

// Load reads an optional .env file, decodes the environment into a Config
// and validates it for serving.
func Load() (Config, error) {
	cfg, err := LoadEnv()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadEnv decodes the environment without the serving checks. Used by tools
// that only touch storage.
func LoadEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding environment: %w", err)
	}
	return cfg, nil
}

// Validate rejects a token-verifying setup that still points at the placeholder
// Auth0 tenant or that would accept self-issued dev tokens.
func (c Config) Validate() error {
	if c.OutboundBuffer <= 0 {
		return fmt.Errorf("OUTBOUND_BUFFER must be positive, got %d", c.OutboundBuffer)
	}
	if c.AuthBypass {
		return nil
	}
	if c.DevTokenSecret != "" {
		return ErrDevTokenWithoutBypass
	}
	if c.Auth0Domain == defaultAuth0Domain ||
		c.Auth0Audience == defaultAuth0Audience ||
		c.Auth0Issuer == defaultAuth0Issuer {
		return ErrAuthNotConfigured
	}
	return nil
}

// JWKSURL is the Auth0 tenant key set location.
func (c Config) JWKSURL() string {
	return "https://" + strings.TrimSuffix(c.Auth0Domain, "/") + "/.well-known/jwks.json"
}

// NewLogger builds the process logger for the configured level.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
