// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package httpapi

import (
	"context"

	"github.com/bioauth/bioauth/internal/auth"
)

type contextKey int

const (
	identityKey contextKey = iota
	requestIDKey
)

// WithIdentity attaches an authenticated identity to ctx.
func WithIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity attached by verifyToken.
func IdentityFrom(ctx context.Context) (*auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*auth.Identity)
	return id, ok && id != nil
}

// RequestIDFrom returns the request id assigned by the request-id middleware.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
