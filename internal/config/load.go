// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every configuration environment variable. Sections are
// separated by a double underscore: BIOAUTH_AUTH__SECRET sets auth.secret.
const EnvPrefix = "BIOAUTH_"

// legacyEnv maps unprefixed variables understood for compatibility with
// existing deployments.
var legacyEnv = map[string]string{
	"DATABASE_URL": "database.url",
	"SECRET":       "auth.secret",
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"http-addr":       "http.addr",
	"database-driver": "database.driver",
	"database-url":    "database.url",
	"auto-migrate":    "database.auto_migrate",
	"log-format":      "log.format",
	"log-level":       "log.level",
	"metrics-addr":    "observability.metrics_addr",
	"control-addr":    "observability.control_addr",
}

// LoadOptions selects the configuration sources.
type LoadOptions struct {
	// File is an optional YAML file.
	File string
	// EnvFile is a dotenv file loaded into the process environment when it
	// exists. Variables already set win.
	EnvFile string
	// Flags holds flags registered by BindFlags. Only flags set explicitly
	// override other sources.
	Flags *pflag.FlagSet
}

// BindFlags registers the configuration override flags on fs.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("http-addr", d.HTTP.Addr, "HTTP listen address")
	fs.String("database-driver", d.Database.Driver, "credential store driver (postgres, memory)")
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.Bool("auto-migrate", d.Database.AutoMigrate, "apply pending migrations on startup")
	fs.String("log-format", d.Log.Format, "log format (json, text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("metrics-addr", d.Observability.MetricsAddr, "metrics and health listen address, empty disables")
	fs.String("control-addr", d.Observability.ControlAddr, "gRPC health listen address, empty disables")
}

// Load merges, in rising priority, built-in defaults, legacy environment
// variables, the YAML file, BIOAUTH_ variables and explicitly set flags. The
// result is not validated.
func Load(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, oops.Code("CONFIG_ENV_FILE_FAILED").With("path", opts.EnvFile).Wrap(err)
		}
	}

	k := koanf.New(".")

	legacy := env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		mapped, ok := legacyEnv[key]
		if !ok || value == "" {
			return "", nil
		}
		return mapped, value
	})
	if err := k.Load(legacy, nil); err != nil {
		return nil, oops.Code("CONFIG_ENV_FAILED").Wrap(err)
	}

	if opts.File != "" {
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", opts.File).Wrap(err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_ENV_FAILED").Wrap(err)
	}

	if opts.Flags != nil {
		flags := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(flags, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if k.Exists("http.cors_origins") {
		cfg.HTTP.CORSOrigins = nil
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	return &cfg, nil
}

// envKey turns BIOAUTH_RATE_LIMIT__REQUESTS_PER_MINUTE into
// rate_limit.requests_per_minute.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}
