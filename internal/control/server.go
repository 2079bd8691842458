// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

// Package control exposes the standard gRPC health service so supervisors and
// `bioauth status` can ask a running server whether it is serving.
package control

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/samber/oops"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/bioauth/bioauth/pkg/errutil"
)

// ServiceName is the health service name reported alongside the overall ("")
// status.
const ServiceName = "bioauth.v1.Auth"

// HealthServer runs a gRPC server carrying only the health service.
type HealthServer struct {
	health   *health.Server
	logger   *slog.Logger
	mu       sync.Mutex
	server   *grpc.Server
	listener net.Listener
}

// NewHealthServer creates a server that reports NOT_SERVING until SetServing
// is called.
func NewHealthServer(logger *slog.Logger) *HealthServer {
	if logger == nil {
		logger = slog.Default()
	}
	h := &HealthServer{health: health.NewServer(), logger: logger}
	h.SetServing(false)
	return h
}

// SetServing flips the overall and per-service status.
func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}

// Start listens on addr and serves in the background.
func (h *HealthServer) Start(addr string) (<-chan error, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, oops.Code("CONTROL_LISTEN_FAILED").With("addr", addr).Wrap(err)
	}
	return h.Serve(listener)
}

// Serve serves on an existing listener. The returned channel receives a
// serve failure and is closed when the server stops.
func (h *HealthServer) Serve(listener net.Listener) (<-chan error, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.server != nil {
		return nil, oops.Code("CONTROL_ALREADY_RUNNING").Errorf("control server already running")
	}

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, h.health)
	h.server = srv
	h.listener = listener

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			err = oops.Code("CONTROL_SERVE_FAILED").With("addr", listener.Addr().String()).Wrap(err)
			errutil.LogError(h.logger, "control server error", err)
			errCh <- err
		}
	}()

	h.logger.Info("control server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Addr returns the bound address, or "" before Start.
func (h *HealthServer) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener == nil {
		return ""
	}
	return h.listener.Addr().String()
}

// Stop marks the server NOT_SERVING and drains in-flight calls until ctx
// ends, after which it stops hard.
func (h *HealthServer) Stop(ctx context.Context) error {
	h.mu.Lock()
	srv := h.server
	h.server = nil
	h.mu.Unlock()
	if srv == nil {
		return nil
	}

	h.health.Shutdown()
	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		srv.Stop()
		<-done
	}
	h.logger.Info("control server stopped")
	return nil
}
