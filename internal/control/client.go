// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package control

import (
	"context"

	"github.com/samber/oops"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Check asks the health service at addr for the status of service ("" for
// the whole process) and returns the status name, e.g. "SERVING".
func Check(ctx context.Context, addr, service string, opts ...grpc.DialOption) (string, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return "", oops.Code("CONTROL_DIAL_FAILED").With("addr", addr).Wrap(err)
	}
	defer func() { _ = conn.Close() }()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return "", oops.Code("CONTROL_CHECK_FAILED").With("addr", addr).With("service", service).Wrap(err)
	}
	return resp.GetStatus().String(), nil
}
