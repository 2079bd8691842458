// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

// Package config loads and validates BioAuth configuration.
package config

import (
	"slices"
	"time"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// MinSecretLength is the shortest accepted signing secret, in bytes.
const MinSecretLength = 16

// Config is the complete process configuration.
type Config struct {
	Auth          AuthConfig          `koanf:"auth" json:"auth"`
	HTTP          HTTPConfig          `koanf:"http" json:"http"`
	Database      DatabaseConfig      `koanf:"database" json:"database"`
	RateLimit     RateLimitConfig     `koanf:"rate_limit" json:"rate_limit"`
	Log           LogConfig           `koanf:"log" json:"log"`
	Observability ObservabilityConfig `koanf:"observability" json:"observability"`
}

// AuthConfig configures hashing and token lifetimes.
type AuthConfig struct {
	Secret          string        `koanf:"secret" json:"secret" jsonschema:"description=Signing secret for access tokens and token seeds"`
	AccessTokenTTL  time.Duration `koanf:"access_token_ttl" json:"access_token_ttl" jsonschema:"type=string,pattern=^([0-9]+(ns|us|ms|s|m|h))+$"`
	RefreshTokenTTL time.Duration `koanf:"refresh_token_ttl" json:"refresh_token_ttl" jsonschema:"type=string,pattern=^([0-9]+(ns|us|ms|s|m|h))+$"`
	Hasher          string        `koanf:"hasher" json:"hasher" jsonschema:"enum=bcrypt,enum=argon2id"`
	BcryptCost      int           `koanf:"bcrypt_cost" json:"bcrypt_cost" jsonschema:"minimum=4,maximum=31"`
	HashConcurrency int           `koanf:"hash_concurrency" json:"hash_concurrency" jsonschema:"minimum=0"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr            string        `koanf:"addr" json:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout" json:"read_timeout" jsonschema:"type=string,pattern=^([0-9]+(ns|us|ms|s|m|h))+$"`
	WriteTimeout    time.Duration `koanf:"write_timeout" json:"write_timeout" jsonschema:"type=string,pattern=^([0-9]+(ns|us|ms|s|m|h))+$"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout" jsonschema:"type=string,pattern=^([0-9]+(ns|us|ms|s|m|h))+$"`
	CORSOrigins     []string      `koanf:"cors_origins" json:"cors_origins"`
	TrustForwarded  bool          `koanf:"trust_forwarded" json:"trust_forwarded" jsonschema:"description=Take the client address from X-Forwarded-For/X-Real-IP; enable only behind a trusted proxy"`
}

// DatabaseConfig selects and configures the credential store.
type DatabaseConfig struct {
	Driver         string        `koanf:"driver" json:"driver" jsonschema:"enum=postgres,enum=memory"`
	URL            string        `koanf:"url" json:"url"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" json:"connect_timeout" jsonschema:"type=string,pattern=^([0-9]+(ns|us|ms|s|m|h))+$"`
	MaxConns       int32         `koanf:"max_conns" json:"max_conns" jsonschema:"minimum=0"`
	AutoMigrate    bool          `koanf:"auto_migrate" json:"auto_migrate"`
}

// RateLimitConfig configures per-client request limiting.
type RateLimitConfig struct {
	Enabled           bool   `koanf:"enabled" json:"enabled"`
	RequestsPerMinute int    `koanf:"requests_per_minute" json:"requests_per_minute" jsonschema:"minimum=0"`
	Backend           string `koanf:"backend" json:"backend" jsonschema:"enum=memory,enum=redis"`
	RedisAddr         string `koanf:"redis_addr" json:"redis_addr"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Format string `koanf:"format" json:"format" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// ObservabilityConfig configures the metrics and control listeners. An empty
// address disables the listener.
type ObservabilityConfig struct {
	MetricsAddr string `koanf:"metrics_addr" json:"metrics_addr"`
	ControlAddr string `koanf:"control_addr" json:"control_addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Auth: AuthConfig{
			AccessTokenTTL:  24 * time.Hour,
			RefreshTokenTTL: 72 * time.Hour,
			Hasher:          "bcrypt",
			BcryptCost:      bcrypt.DefaultCost,
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			Driver:         "postgres",
			ConnectTimeout: 30 * time.Second,
			MaxConns:       10,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 100,
			Backend:           "memory",
			RedisAddr:         "localhost:6379",
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
		Observability: ObservabilityConfig{
			MetricsAddr: "127.0.0.1:9100",
			ControlAddr: "127.0.0.1:9101",
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	invalid := func(key string, format string, args ...any) error {
		return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
	}

	switch {
	case c.Auth.Secret == "":
		return invalid("auth.secret", "auth.secret is required")
	case len(c.Auth.Secret) < MinSecretLength:
		return invalid("auth.secret", "auth.secret must be at least %d bytes", MinSecretLength)
	case c.Auth.AccessTokenTTL <= 0:
		return invalid("auth.access_token_ttl", "auth.access_token_ttl must be positive")
	case c.Auth.RefreshTokenTTL <= 0:
		return invalid("auth.refresh_token_ttl", "auth.refresh_token_ttl must be positive")
	case !slices.Contains([]string{"bcrypt", "argon2id"}, c.Auth.Hasher):
		return invalid("auth.hasher", "unknown hasher %q", c.Auth.Hasher)
	case c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost:
		return invalid("auth.bcrypt_cost", "auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	case c.Auth.HashConcurrency < 0:
		return invalid("auth.hash_concurrency", "auth.hash_concurrency must not be negative")
	case c.HTTP.Addr == "":
		return invalid("http.addr", "http.addr is required")
	case c.HTTP.ShutdownTimeout <= 0:
		return invalid("http.shutdown_timeout", "http.shutdown_timeout must be positive")
	case !slices.Contains([]string{"postgres", "memory"}, c.Database.Driver):
		return invalid("database.driver", "unknown database driver %q", c.Database.Driver)
	case c.Database.Driver == "postgres" && c.Database.URL == "":
		return invalid("database.url", "database.url is required for the postgres driver")
	case !slices.Contains([]string{"json", "text"}, c.Log.Format):
		return invalid("log.format", "unknown log format %q", c.Log.Format)
	case !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level):
		return invalid("log.level", "unknown log level %q", c.Log.Level)
	case !slices.Contains([]string{"memory", "redis"}, c.RateLimit.Backend):
		return invalid("rate_limit.backend", "unknown rate limit backend %q", c.RateLimit.Backend)
	case c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0:
		return invalid("rate_limit.requests_per_minute", "rate_limit.requests_per_minute must be positive")
	case c.RateLimit.Enabled && c.RateLimit.Backend == "redis" && c.RateLimit.RedisAddr == "":
		return invalid("rate_limit.redis_addr", "rate_limit.redis_addr is required for the redis backend")
	}
	return nil
}
