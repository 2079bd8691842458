// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package ratelimit

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/bioauth/bioauth/pkg/errutil"
)

// Rejection code and body message of a limited request.
const (
	CodeLimited        = "AUTH_RATE_LIMITED"
	MsgTooManyRequests = "Too many requests, please try again later."
)

// KeyFunc derives the limiter key of a request.
type KeyFunc func(*http.Request) string

// ClientIP keys requests by the host part of RemoteAddr. Forwarded headers
// count only when a real-ip middleware has rewritten RemoteAddr first.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// MiddlewareOptions configures Middleware.
type MiddlewareOptions struct {
	Key       KeyFunc
	OnLimited func()
	Logger    *slog.Logger
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header. Backend failures are logged and the request is let through.
func Middleware(l Limiter, opts MiddlewareOptions) func(http.Handler) http.Handler {
	if opts.Key == nil {
		opts.Key = ClientIP
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.Key(r)
			d, err := l.Allow(r.Context(), key)
			if err != nil {
				errutil.LogErrorContext(r.Context(), opts.Logger, "rate limiter unavailable", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			if opts.OnLimited != nil {
				opts.OnLimited()
			}
			opts.Logger.LogAttrs(r.Context(), slog.LevelDebug, "request rate limited",
				slog.String("code", CodeLimited),
				slog.String("client", key),
				slog.Duration("retry_after", d.RetryAfter),
			)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			//nolint:errcheck // client may disconnect
			json.NewEncoder(w).Encode(map[string]string{"message": MsgTooManyRequests})
		})
	}
}
