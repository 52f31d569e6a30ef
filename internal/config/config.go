package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	MigrateOnStart     bool
	CORSAllowedOrigins []string

	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration

	PayPalClientID     string
	PayPalClientSecret string
	PayPalMode         string
	PayPalReturnURL    string
	PayPalCancelURL    string

	CatalogCacheTTL time.Duration
	IdempotencyTTL  time.Duration
	PaymentLockTTL  time.Duration

	AuthRateLimit      string
	WriteRateLimit     int
	WriteRateWindow    time.Duration
	MaxRequestBodySize int64

	OutboundTimeout     time.Duration
	RetryMaxAttempts    int
	RetryBase           time.Duration
	BreakerMinRequests  int
	BreakerFailureRatio float64
	BreakerOpenFor      time.Duration

	WorkerConcurrency int
	MailFrom          string

	LogFormat      string
	LogLevel       string
	TraceExporter  string
	TraceEndpoint  string
	TraceSampling  float64
	MetricsEnabled bool
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8001"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		MigrateOnStart:     parseBool(k.String("MIGRATE_ON_START")),
		CORSAllowedOrigins: splitAndTrim(valueOrDefault(k.String("CORS_ALLOWED_ORIGINS"), "*")),

		JWTSecret:      k.String("JWT_SECRET"),
		JWTIssuer:      valueOrDefault(k.String("JWT_ISSUER"), "nursery-api"),
		JWTAudience:    valueOrDefault(k.String("JWT_AUDIENCE"), "nursery-web"),
		AccessTokenTTL: parseDuration(k.String("ACCESS_TOKEN_TTL"), "24h"),

		PayPalClientID:     strings.TrimSpace(k.String("PAYPAL_CLIENT_ID")),
		PayPalClientSecret: strings.TrimSpace(k.String("PAYPAL_CLIENT_SECRET")),
		PayPalMode:         strings.ToLower(valueOrDefault(k.String("PAYPAL_MODE"), "sandbox")),
		PayPalReturnURL:    valueOrDefault(k.String("PAYPAL_RETURN_URL"), "http://localhost:3000/payment/success"),
		PayPalCancelURL:    valueOrDefault(k.String("PAYPAL_CANCEL_URL"), "http://localhost:3000/payment/cancel"),

		CatalogCacheTTL: parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		PaymentLockTTL:  parseDuration(k.String("PAYMENT_LOCK_TTL"), "30s"),

		AuthRateLimit:      valueOrDefault(k.String("RATE_LIMIT_AUTH"), "10-M"),
		WriteRateLimit:     parseInt(k.String("RATE_LIMIT_WRITES"), 30),
		WriteRateWindow:    parseDuration(k.String("RATE_LIMIT_WRITES_WINDOW"), "1m"),
		MaxRequestBodySize: int64(parseInt(k.String("MAX_BODY_BYTES"), 1<<20)),

		OutboundTimeout:     parseDuration(k.String("OUTBOUND_TIMEOUT"), "10s"),
		RetryMaxAttempts:    parseInt(k.String("RETRY_MAX_ATTEMPTS"), 3),
		RetryBase:           parseDuration(k.String("RETRY_BASE"), "200ms"),
		BreakerMinRequests:  parseInt(k.String("CIRCUIT_MIN_REQUESTS"), 10),
		BreakerFailureRatio: parseFloat(k.String("CIRCUIT_FAILURE_RATIO"), 0.5),
		BreakerOpenFor:      parseDuration(k.String("CIRCUIT_OPEN_FOR"), "30s"),

		WorkerConcurrency: parseInt(k.String("WORKER_CONCURRENCY"), 5),
		MailFrom:          valueOrDefault(k.String("MAIL_FROM"), "orders@nursery.local"),

		LogFormat:      valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:       valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		TraceExporter:  valueOrDefault(k.String("OTEL_TRACES_EXPORTER"), "none"),
		TraceEndpoint:  k.String("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TraceSampling:  parseFloat(k.String("OTEL_TRACES_SAMPLER_RATIO"), 1),
		MetricsEnabled: !strings.EqualFold(strings.TrimSpace(k.String("OBS_METRICS_ENABLED")), "false"),
	}

	switch cfg.PayPalMode {
	case "sandbox", "live", "mock":
	default:
		return nil, fmt.Errorf("PAYPAL_MODE must be sandbox, live or mock, got %q", cfg.PayPalMode)
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8001"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// PayPalMock reports whether payments should use the offline provider.
func (c *Config) PayPalMock() bool {
	return c.PayPalMode == "mock" || c.PayPalClientID == "" || c.PayPalClientSecret == ""
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(value string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return v
}

func parseFloat(value string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return v
}

// MustLoad behaves like Load but panics on error. Useful for command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]*string, len(env))
	for key := range env {
		if prev, ok := os.LookupEnv(key); ok {
			original[key] = &prev
		} else {
			original[key] = nil
		}
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]*string) error {
	var errs []error
	for key, value := range values {
		var err error
		if value == nil {
			err = os.Unsetenv(key)
		} else {
			err = os.Setenv(key, *value)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %w", errors.Join(errs...))
	}
	return nil
}
