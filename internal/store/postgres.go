// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

// Package store connects to PostgreSQL and manages the credential schema.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Pool is the query surface repositories need. *pgxpool.Pool and
// pgxmock.PgxPoolIface both satisfy it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// ConnectOptions configures Connect.
type ConnectOptions struct {
	URL      string
	MaxConns int32
	// Timeout bounds the total time spent retrying. Zero means one attempt.
	Timeout time.Duration
	Logger  *slog.Logger
}

const (
	connectBaseDelay = 250 * time.Millisecond
	connectMaxDelay  = 5 * time.Second
)

// Connect opens a pool and pings it, retrying with exponential backoff until
// opts.Timeout elapses. Startup order in containers rarely guarantees the
// database is accepting connections yet.
func Connect(ctx context.Context, opts ConnectOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, oops.Code("STORE_CONFIG_INVALID").Wrap(err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var backoff retry.Backoff = retry.WithMaxRetries(0, retry.NewConstant(connectBaseDelay))
	if opts.Timeout > 0 {
		backoff = retry.WithMaxDuration(opts.Timeout,
			retry.WithCappedDuration(connectMaxDelay, retry.NewExponential(connectBaseDelay)))
	}

	attempt := 0
	pool, err := retry.DoValue(ctx, backoff, func(ctx context.Context) (*pgxpool.Pool, error) {
		attempt++
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			logger.WarnContext(ctx, "database not ready", "attempt", attempt, "host", cfg.ConnConfig.Host, "error", err)
			return nil, retry.RetryableError(err)
		}
		return pool, nil
	})
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("host", cfg.ConnConfig.Host).
			With("attempts", attempt).
			Wrap(err)
	}

	logger.InfoContext(ctx, "database connected", "host", cfg.ConnConfig.Host, "attempts", attempt)
	return pool, nil
}
