package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env  string `env:"APP_ENV" envDefault:"dev"`
	Port int    `env:"PORT" envDefault:"8080"`

	// base URL this app is reachable at, used for CORS and absolute links
	AppURL string `env:"APP_URL" envDefault:"http://localhost:8080"`

	// upstream event-management API
	UpstreamBaseURL string        `env:"UPSTREAM_BASE_URL"`
	APIKey          string        `env:"API_KEY"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"10s"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// empty RedisAddr keeps the rate limiter in memory
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	RegisterRateLimit  int           `env:"REGISTER_RATE_LIMIT" envDefault:"10"`
	RegisterRateWindow time.Duration `env:"REGISTER_RATE_WINDOW" envDefault:"1m"`

	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"1048576"`
}

var ErrMissingUpstream = errors.New("UPSTREAM_BASE_URL and API_KEY must be set")

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	// a missing .env is fine, real deployments set the environment directly
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.UpstreamBaseURL = strings.TrimRight(cfg.UpstreamBaseURL, "/")
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.UpstreamBaseURL == "" || c.APIKey == "" {
		return ErrMissingUpstream
	}
	if c.Port <= 0 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	return nil
}

func (c Config) IsDev() bool {
	return c.Env == "dev"
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
