// Package config loads mediator configuration from environment variables.
//
// Variable names follow the pattern {Prefix}_{FIELD}, nested sections add
// their name as a segment:
//
//	MEDIATOR_TIMEOUT=5s
//	MEDIATOR_LOG_LEVEL=debug
//	MEDIATOR_RETRY_MAX_ATTEMPTS=5
//	MEDIATOR_AUDIT_PATH=/var/lib/mediator/audit.db
//	MEDIATOR_IDEMPOTENCY_REDIS_ADDR=localhost:6379
//	MEDIATOR_HTTP_ADDR=:8080
//
// Unset variables keep their documented defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultPrefix is the variable prefix used when Loader.Prefix is empty.
const DefaultPrefix = "MEDIATOR"

// Config is the runtime configuration of a mediator process.
type Config struct {
	// Timeout bounds a single dispatch. Zero disables it.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Retry       Retry       `envPrefix:"RETRY_"`
	Audit       Audit       `envPrefix:"AUDIT_"`
	Idempotency Idempotency `envPrefix:"IDEMPOTENCY_"`
	HTTP        HTTP        `envPrefix:"HTTP_"`
	Tracing     Tracing     `envPrefix:"TRACING_"`
}

// Retry configures retried dispatch.
type Retry struct {
	// MaxAttempts includes the first attempt. 1 disables retries.
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	Backoff     time.Duration `env:"BACKOFF" envDefault:"100ms"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// Audit configures the audit trail.
type Audit struct {
	// Path is the SQLite database file. Empty disables persistence.
	Path string `env:"PATH"`
}

// Idempotency configures duplicate request detection.
type Idempotency struct {
	// RedisAddr is the Redis server. Empty disables the check.
	RedisAddr string        `env:"REDIS_ADDR"`
	TTL       time.Duration `env:"TTL" envDefault:"24h"`
}

// HTTP configures the CloudEvents endpoint.
type HTTP struct {
	Addr   string `env:"ADDR" envDefault:":8080"`
	Source string `env:"SOURCE" envDefault:"/mediator"`
}

// Tracing configures span export.
type Tracing struct {
	// Endpoint is the OTLP/HTTP endpoint URL. Empty disables export.
	Endpoint string `env:"ENDPOINT"`
}

// Loader reads environment variables into configuration structs.
type Loader struct {
	// Prefix for environment variable names.
	// Default: "MEDIATOR".
	Prefix string

	// environment replaces the process environment for testing.
	environment map[string]string
}

func (l Loader) options() env.Options {
	prefix := l.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return env.Options{
		Prefix:      strings.TrimSuffix(prefix, "_") + "_",
		Environment: l.environment,
	}
}

// Load populates the struct pointed to by dst. Fields without a set variable
// get their envDefault value or keep their current value.
func (l Loader) Load(dst any) error {
	if err := env.ParseWithOptions(dst, l.options()); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Keys returns the environment variable names Load checks for dst.
func (l Loader) Keys(dst any) []string {
	params, err := env.GetFieldParamsWithOptions(dst, l.options())
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(params))
	for _, p := range params {
		keys = append(keys, p.Key)
	}
	return keys
}

// Load reads Config using the default Loader.
func Load() (Config, error) {
	var cfg Config
	err := Loader{}.Load(&cfg)
	return cfg, err
}

// Keys returns the variable names of Config using the default Loader.
func Keys() []string {
	return Loader{}.Keys(&Config{})
}
