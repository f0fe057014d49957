package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, 15*time.Minute, cfg.ExchangeTokenTTL)
	assert.Equal(t, 8, cfg.PasswordPolicy.MinLength)
	assert.Equal(t, 500*time.Millisecond, cfg.SlowQueryThreshold())
	assert.Empty(t, cfg.ProductDefaultImage)
	assert.Equal(t, ServiceName, cfg.Tracing.ServiceName)
	assert.Equal(t, "development", cfg.Tracing.Environment)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.InDelta(t, 5.0, cfg.AuthRateLimit.RPS, 1e-9)
	assert.Equal(t, 10, cfg.AuthRateLimit.Burst)
}

func TestLoad_FromEnvVars(t *testing.T) {
	setEnvs(t, map[string]string{
		"HTTP_PORT":                       "9090",
		"POSTGRES_HOST":                   "db",
		"REDIS_HOST":                      "cache",
		"KAFKA_BROKERS":                   "k1:9092,k2:9092",
		"PASSWORD_MIN_SYMBOLS":            "0",
		"PRODUCT_DEFAULT_IMAGE":           "https://cdn.example.test/p.png",
		"EXCHANGE_TOKEN_TTL":              "5m",
		"OTEL_SAMPLE_RATE":                "0.25",
		"SERVICE_VERSION":                 "1.2.3",
		"AUTH_RATE_LIMIT_BURST":           "3",
		"AUTH_RATE_LIMIT_TRUSTED_PROXIES": "10.0.0.0/8,192.0.2.1",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "db", cfg.Postgres.Host)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 0, cfg.PasswordPolicy.MinSymbols)
	assert.Equal(t, "https://cdn.example.test/p.png", cfg.ProductDefaultImage)
	assert.Equal(t, 5*time.Minute, cfg.ExchangeTokenTTL)
	assert.InDelta(t, 0.25, cfg.Tracing.SampleRate, 1e-9)
	assert.Equal(t, "1.2.3", cfg.Tracing.ServiceVersion)
	assert.Equal(t, 3, cfg.AuthRateLimit.Burst)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.AuthRateLimit.TrustedProxies)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		envs map[string]string
		want string
	}{
		{"port out of range", map[string]string{"HTTP_PORT": "70000"}, "invalid HTTP port"},
		{"sample rate", map[string]string{"OTEL_SAMPLE_RATE": "1.5"}, "OTEL_SAMPLE_RATE"},
		{"bcrypt cost", map[string]string{"BCRYPT_COST": "2"}, "BCRYPT_COST"},
		{"token ttl", map[string]string{"EXCHANGE_TOKEN_TTL": "0s"}, "EXCHANGE_TOKEN_TTL"},
		{"trusted proxy", map[string]string{"AUTH_RATE_LIMIT_TRUSTED_PROXIES": "10.0.0.0/8,bogus"}, "AUTH_RATE_LIMIT_TRUSTED_PROXIES"},
		{"rate limit burst", map[string]string{"AUTH_RATE_LIMIT_BURST": "0"}, "AUTH_RATE_LIMIT"},
		{"not a number", map[string]string{"HTTP_PORT": "abc"}, "load marketplace config"},
		{
			"production default secret",
			map[string]string{"ENVIRONMENT": "production", "JWT_SECRET": defaultJWTSecret},
			"JWT_SECRET must be explicitly set",
		},
		{
			"production short secret",
			map[string]string{"ENVIRONMENT": "staging", "JWT_SECRET": "short-but-not-default"},
			"JWT_SECRET must be at least 32 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnvs(t, tt.envs)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ProductionAcceptsStrongSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "production",
		"JWT_SECRET":  "this-is-a-very-secure-secret-key-for-production-use-1234",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Tracing.Environment)
}

func TestLoad_DotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_SLOW_QUERY_MS=250\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LOG_SLOW_QUERY_MS") })

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.SlowQueryThreshold())
}
