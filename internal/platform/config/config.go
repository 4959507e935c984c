package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Identity store backends.
const (
	IdentityBackendFile     = "file"
	IdentityBackendMemory   = "memory"
	IdentityBackendRedis    = "redis"
	IdentityBackendPostgres = "postgres"
)

// Config is the full runtime configuration shared by the CLI and the server.
type Config struct {
	API       API
	Server    Server
	Identity  Identity
	Redis     RedisConfig
	Postgres  PostgresConfig
	Log       Log
	Telemetry Telemetry
}

// API locates the consent backend.
type API struct {
	BaseURL string        `env:"CONSENT_API_URL" envDefault:"http://localhost:5001"`
	Timeout time.Duration `env:"CONSENT_API_TIMEOUT" envDefault:"10s"`
}

// Server captures HTTP server level configuration for cmd/server.
type Server struct {
	Addr            string        `env:"CONSENT_SERVER_ADDR" envDefault:":8080"`
	SessionIdleTTL  time.Duration `env:"CONSENT_SESSION_IDLE_TTL" envDefault:"30m"`
	SecureCookies   bool          `env:"CONSENT_SECURE_COOKIES" envDefault:"false"`
	ShutdownTimeout time.Duration `env:"CONSENT_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Identity selects where the visitor identifier is persisted.
type Identity struct {
	Backend    string        `env:"CONSENT_IDENTITY_BACKEND" envDefault:"file"`
	Key        string        `env:"CONSENT_IDENTITY_KEY" envDefault:"user_id"`
	LegacyKeys []string      `env:"CONSENT_IDENTITY_LEGACY_KEYS" envDefault:"anonymous_user_id" envSeparator:","`
	TTL        time.Duration `env:"CONSENT_IDENTITY_TTL" envDefault:"8760h"`
	FilePath   string        `env:"CONSENT_IDENTITY_FILE"`
}

// RedisConfig configures the optional Redis identity store.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// PostgresConfig configures the optional Postgres identity store.
type PostgresConfig struct {
	URL      string `env:"DATABASE_URL"`
	MaxConns int32  `env:"DATABASE_MAX_CONNS" envDefault:"4"`
}

// Log controls the slog handler built by the logger package.
type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Telemetry enables OTLP trace export. An empty endpoint leaves tracing as a
// no-op.
type Telemetry struct {
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"consentmgr"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads optional dotenv files (".env" when none are given), then the
// environment, then validates the result. Missing dotenv files are not an error;
// variables already set in the environment win over dotenv values.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the binaries cannot start with.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("CONSENT_API_URL must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.Identity.Key == "" {
		return errors.New("CONSENT_IDENTITY_KEY must not be empty")
	}
	switch c.Identity.Backend {
	case IdentityBackendFile, IdentityBackendMemory:
	case IdentityBackendRedis:
		if c.Redis.URL == "" {
			return errors.New("REDIS_URL is required for the redis identity backend")
		}
	case IdentityBackendPostgres:
		if c.Postgres.URL == "" {
			return errors.New("DATABASE_URL is required for the postgres identity backend")
		}
	default:
		return fmt.Errorf("unknown identity backend %q", c.Identity.Backend)
	}
	return nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
// It provides a consistent fatal-exit pattern for CLI entry points.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
