// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"

	"github.com/bioauth/bioauth/internal/auth"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

// AccessTokenHeader carries the access token checked by verifyToken.
const AccessTokenHeader = "x-access-token"

const maxRequestIDLen = 64

// requestID assigns a ULID to each request unless the caller sent one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = ulid.Make().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// accessLog writes one record per request and counts it by route pattern.
func accessLog(logger *slog.Logger, metrics RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			metrics.RecordRequest(r.Method, route, status)

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(r.Context(), level, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", RequestIDFrom(r.Context())),
			)
		})
	}
}

// securityHeaders sets the hardening headers browsers act on.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("X-DNS-Prefetch-Control", "off")
		next.ServeHTTP(w, r)
	})
}

// verifyToken admits requests carrying a valid access token and attaches its
// identity to the request context.
func (h *handlers) verifyToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := h.svc.Authenticate(r.Header.Get(AccessTokenHeader))
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

type registerBodyKey struct{}

// checkRegisterParams decodes the registration body and rejects it unless
// username, password and email are all present.
func (h *handlers) checkRegisterParams(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body registerBody
		if err := decodeBody(w, r, &body); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		if body.Username == "" || body.Password == "" || body.Email == "" {
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: auth.MsgIncompleteParams})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), registerBodyKey{}, &body)))
	})
}

// checkDuplicateUsername rejects a registration whose username exists. The
// Register flow still maps a racing insert to the same answer.
func (h *handlers) checkDuplicateUsername(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := registerBodyFrom(r.Context())
		taken, err := h.svc.UsernameTaken(r.Context(), body.Username)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		if taken {
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Username " + body.Username + " is already taken"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func registerBodyFrom(ctx context.Context) *registerBody {
	if body, ok := ctx.Value(registerBodyKey{}).(*registerBody); ok {
		return body
	}
	return &registerBody{}
}
