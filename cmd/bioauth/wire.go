// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/bioauth/bioauth/internal/auth"
	"github.com/bioauth/bioauth/internal/auth/memory"
	authpg "github.com/bioauth/bioauth/internal/auth/postgres"
	"github.com/bioauth/bioauth/internal/config"
	"github.com/bioauth/bioauth/internal/ratelimit"
	"github.com/bioauth/bioauth/internal/store"
)

// buildService assembles the flow coordinator from the auth settings.
func buildService(cfg config.AuthConfig, credStore auth.CredentialStore, recorder auth.Recorder, logger *slog.Logger) (*auth.Service, error) {
	hasher, err := auth.NewSecretHasher(cfg.Hasher, cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	hashes := auth.NewHashLimiter(hasher, cfg.HashConcurrency, recorder)

	sessions, err := auth.NewSessionIssuer(cfg.Secret, cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	return auth.NewService(auth.ServiceConfig{
		Store:      credStore,
		Hashes:     hashes,
		Biometrics: auth.NewBiometricTokenIssuer(hashes, cfg.Secret),
		Refresh:    auth.NewRefreshTokenManager(hashes, cfg.Secret, cfg.RefreshTokenTTL),
		Sessions:   sessions,
		Recorder:   recorder,
		Logger:     logger,
	})
}

// storeOpener opens a credential store and returns the func releasing it.
type storeOpener func(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (auth.CredentialStore, func(), error)

// openStore opens the configured credential store. The returned func
// releases it.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (auth.CredentialStore, func(), error) {
	if cfg.Driver == "memory" {
		logger.Warn("using in-memory credential store, data is lost on exit")
		return memory.NewStore(), func() {}, nil
	}

	pool, err := store.Connect(ctx, store.ConnectOptions{
		URL:      cfg.URL,
		MaxConns: cfg.MaxConns,
		Timeout:  cfg.ConnectTimeout,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, err
	}

	if cfg.AutoMigrate {
		if err := migrateUp(cfg.URL, logger); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	return authpg.NewCredentialRepository(pool), pool.Close, nil
}

func migrateUp(databaseURL string, logger *slog.Logger) error {
	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			logger.Warn("closing migrator", "error", closeErr)
		}
	}()
	if err := m.Up(); err != nil {
		return err
	}
	v, _, err := m.Version()
	if err != nil {
		return err
	}
	logger.Info("migrations applied", "version", v)
	return nil
}

// buildRateLimiter returns the configured request limiter, or nil when rate
// limiting is disabled. The returned func releases backend connections.
func buildRateLimiter(cfg config.RateLimitConfig) (ratelimit.Limiter, func(), error) {
	if !cfg.Enabled {
		return nil, func() {}, nil
	}
	if cfg.Backend == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		l, err := ratelimit.NewRedis(client, cfg.RequestsPerMinute, ratelimit.DefaultWindow)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return l, func() { _ = client.Close() }, nil
	}

	l, err := ratelimit.NewMemory(cfg.RequestsPerMinute, ratelimit.DefaultWindow)
	if err != nil {
		return nil, nil, oops.With("backend", cfg.Backend).Wrap(err)
	}
	return l, func() {}, nil
}
