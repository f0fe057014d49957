package config

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	pkgconfig "github.com/utafrali/marketplace/pkg/config"
	"github.com/utafrali/marketplace/pkg/database"
	"github.com/utafrali/marketplace/pkg/kafka"
	"github.com/utafrali/marketplace/pkg/middleware"
	"github.com/utafrali/marketplace/pkg/tracing"
	"github.com/utafrali/marketplace/pkg/validator"
)

// ServiceName tags logs, metrics and traces.
const ServiceName = "marketplace"

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the marketplace service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Version     string `env:"SERVICE_VERSION" envDefault:"dev"`

	// HTTP server
	HTTPPort            int           `env:"HTTP_PORT" envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	Postgres database.PostgresConfig
	Redis    database.RedisConfig
	Kafka    kafka.ProducerConfig
	Tracing  tracing.Config

	// JWT
	JWTSecret        string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTAccessExpiry  time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	JWTRefreshExpiry time.Duration `env:"JWT_REFRESH_TOKEN_EXPIRY" envDefault:"168h"`

	// Market onboarding
	ExchangeTokenTTL time.Duration `env:"EXCHANGE_TOKEN_TTL" envDefault:"15m"`
	BcryptCost       int           `env:"BCRYPT_COST" envDefault:"12"`
	PasswordPolicy   validator.PasswordPolicy

	// Per-IP budget on the unauthenticated auth endpoints
	AuthRateLimit middleware.RateLimitConfig `envPrefix:"AUTH_"`

	// Products
	ProductDefaultImage string `env:"PRODUCT_DEFAULT_IMAGE"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from the environment and an optional .env file.
func Load(dotenvFiles ...string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, dotenvFiles...); err != nil {
		return nil, fmt.Errorf("load marketplace config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.Tracing.ServiceName = ServiceName
	cfg.Tracing.ServiceVersion = cfg.Version
	cfg.Tracing.Environment = cfg.Environment
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.Postgres.Host == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.Postgres.User == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.Tracing.SampleRate)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	if c.ExchangeTokenTTL <= 0 {
		return fmt.Errorf("EXCHANGE_TOKEN_TTL must be positive, got %s", c.ExchangeTokenTTL)
	}
	if c.AuthRateLimit.RPS <= 0 || c.AuthRateLimit.Burst < 1 {
		return fmt.Errorf("AUTH_RATE_LIMIT_RPS must be positive and AUTH_RATE_LIMIT_BURST at least 1")
	}
	if _, err := middleware.ParseTrustedProxies(c.AuthRateLimit.TrustedProxies); err != nil {
		return fmt.Errorf("AUTH_RATE_LIMIT_TRUSTED_PROXIES: %w", err)
	}
	if c.PasswordPolicy.MinLength < 1 {
		return fmt.Errorf("PASSWORD_MIN_LENGTH must be at least 1, got %d", c.PasswordPolicy.MinLength)
	}

	// Outside development, require an explicitly set, strong JWT secret.
	if c.Environment != "development" {
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
		}
	}
	return nil
}

// SlowQueryThreshold returns the slow query log threshold as a duration.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryThresholdMs) * time.Millisecond
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
