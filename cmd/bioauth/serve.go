// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bioauth/bioauth/internal/config"
	"github.com/bioauth/bioauth/internal/control"
	"github.com/bioauth/bioauth/internal/httpapi"
	"github.com/bioauth/bioauth/internal/logging"
	"github.com/bioauth/bioauth/internal/observability"
	"github.com/bioauth/bioauth/internal/ratelimit"
	"github.com/bioauth/bioauth/pkg/errutil"
)

// ServeInfo reports the bound addresses once every server is up.
type ServeInfo struct {
	HTTPAddr    string
	MetricsAddr string
	ControlAddr string
}

// ServeDeps holds injectable dependencies of the serve command. Nil fields
// use their defaults.
type ServeDeps struct {
	// OpenStore opens the credential store. Default: openStore.
	OpenStore storeOpener

	// OnReady is called once all servers accept connections.
	OnReady func(ServeInfo)
}

func newServeCmd(flags *globalFlags, deps ServeDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the authentication HTTP API",
		Long: `Start the HTTP API together with the metrics/health server and the gRPC
health service. SIGINT or SIGTERM shuts everything down gracefully.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := logging.Setup(serviceName, version, cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())
			slog.SetDefault(logger)
			return runServe(ctx, cfg, logger, deps)
		},
	}
}

// stopper stops one running server within ctx.
type stopper func(ctx context.Context) error

// runServe runs until ctx ends or a server fails, then shuts every server
// down within the configured shutdown timeout.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps ServeDeps) error {
	if deps.OpenStore == nil {
		deps.OpenStore = openStore
	}

	registry := observability.NewRegistry()
	metrics := observability.NewMetrics(registry)
	var readiness observability.Readiness

	credStore, closeStore, err := deps.OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := buildService(cfg.Auth, credStore, metrics, logger)
	if err != nil {
		return err
	}

	limiter, closeLimiter, err := buildRateLimiter(cfg.RateLimit)
	if err != nil {
		return err
	}
	defer closeLimiter()

	routerOpts := httpapi.Options{
		Service:        svc,
		Logger:         logger,
		Metrics:        metrics,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		TrustForwarded: cfg.HTTP.TrustForwarded,
	}
	if limiter != nil {
		routerOpts.RateLimit = ratelimit.Middleware(limiter, ratelimit.MiddlewareOptions{
			OnLimited: metrics.RecordRateLimited,
			Logger:    logger,
		})
	}
	srv := httpapi.NewServer(httpapi.NewRouter(routerOpts), httpapi.ServerOptions{
		Addr:         cfg.HTTP.Addr,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		Logger:       logger,
	})

	var (
		info     ServeInfo
		stoppers []stopper
		watchers []<-chan error
	)
	abort := func(err error) error {
		stopAll(context.WithoutCancel(ctx), cfg, logger, stoppers)
		return err
	}

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		obs := observability.NewServer(addr, registry, readiness.Ready, logger)
		errCh, err := obs.Start()
		if err != nil {
			return abort(err)
		}
		info.MetricsAddr = obs.Addr()
		stoppers = append(stoppers, obs.Stop)
		watchers = append(watchers, errCh)
	}

	if addr := cfg.Observability.ControlAddr; addr != "" {
		health := control.NewHealthServer(logger)
		readiness.OnChange(health.SetServing)
		errCh, err := health.Start(addr)
		if err != nil {
			return abort(err)
		}
		info.ControlAddr = health.Addr()
		stoppers = append(stoppers, health.Stop)
		watchers = append(watchers, errCh)
	}

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return abort(oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err))
	}
	info.HTTPAddr = ln.Addr().String()
	stoppers = append([]stopper{srv.Shutdown}, stoppers...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
		return nil
	})
	for _, errCh := range watchers {
		g.Go(func() error {
			if err, ok := <-errCh; ok && err != nil {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		readiness.Set(false)
		stopAll(context.WithoutCancel(ctx), cfg, logger, stoppers)
		return nil
	})

	readiness.Set(true)
	logger.Info("bioauth serving",
		"http_addr", info.HTTPAddr,
		"metrics_addr", info.MetricsAddr,
		"control_addr", info.ControlAddr,
		"store", cfg.Database.Driver,
	)
	if deps.OnReady != nil {
		deps.OnReady(info)
	}

	err = g.Wait()
	logger.Info("bioauth stopped")
	return err
}

// stopAll stops servers in order, sharing one shutdown deadline.
func stopAll(ctx context.Context, cfg *config.Config, logger *slog.Logger, stoppers []stopper) {
	ctx, cancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
	defer cancel()
	for _, stop := range stoppers {
		if err := stop(ctx); err != nil {
			errutil.LogError(logger, "shutdown incomplete", err)
		}
	}
}
