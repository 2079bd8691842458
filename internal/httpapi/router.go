// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RequestRecorder counts served and rate-limited requests.
// observability.Metrics implements it.
type RequestRecorder interface {
	RecordRequest(method, route string, status int)
	RecordRateLimited()
}

type nopRecorder struct{}

func (nopRecorder) RecordRequest(string, string, int) {}
func (nopRecorder) RecordRateLimited()                {}

// Options configures NewRouter. Service is required.
type Options struct {
	Service     AuthService
	Logger      *slog.Logger
	Metrics     RequestRecorder
	CORSOrigins []string

	// TrustForwarded takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable it only behind a proxy that overwrites both headers.
	TrustForwarded bool

	// RateLimit wraps every route when set; see ratelimit.Middleware.
	RateLimit func(http.Handler) http.Handler
}

// NewRouter builds the HTTP handler of the authentication API.
func NewRouter(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = nopRecorder{}
	}
	h := &handlers{svc: opts.Service, logger: opts.Logger}

	r := chi.NewRouter()
	r.Use(requestID)
	if opts.TrustForwarded {
		r.Use(middleware.RealIP)
	}
	r.Use(accessLog(opts.Logger, opts.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{AccessTokenHeader, "Origin", "Content-Type", "Accept"},
		ExposedHeaders: []string{RequestIDHeader, "Retry-After"},
		MaxAge:         int((10 * time.Minute).Seconds()),
	}))
	if opts.RateLimit != nil {
		r.Use(opts.RateLimit)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, messageResponse{Message: "Method not allowed"})
	})

	r.Get("/", h.welcome)
	r.With(h.checkRegisterParams, h.checkDuplicateUsername).Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/refreshtoken", h.refreshToken)
	r.With(h.verifyToken).Post("/refreshbiometric", h.refreshBiometric)
	r.With(h.verifyToken).Get("/profile", h.profile)
	r.Get("/profile/{username}", h.profile)

	return r
}

// ServerOptions configures NewServer.
type ServerOptions struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

// NewServer wraps handler in an http.Server with the configured timeouts.
func NewServer(handler http.Handler, opts ServerOptions) *http.Server {
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
	}
	if opts.Logger != nil {
		srv.ErrorLog = slog.NewLogLogger(opts.Logger.Handler(), slog.LevelWarn)
	}
	return srv
}
