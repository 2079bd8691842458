// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/oops"

	"github.com/bioauth/bioauth/internal/auth"
)

// Welcome is the body of GET /.
const Welcome = "Welcome to Biometric Authentication Server"

// AuthService is the flow surface the handlers drive. *auth.Service
// implements it.
type AuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.RegisterResult, error)
	Login(ctx context.Context, req auth.LoginRequest) (*auth.SessionResult, error)
	RefreshBiometric(ctx context.Context, id auth.Identity) (*auth.BiometricResult, error)
	RefreshToken(ctx context.Context, req auth.RefreshRequest) (*auth.SessionResult, error)
	Profile(ctx context.Context, username string) (*auth.Profile, error)
	AccountProfile(ctx context.Context, id auth.Identity) (*auth.Profile, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	Authenticate(token string) (*auth.Identity, error)
}

var _ AuthService = (*auth.Service)(nil)

type registerResponse struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	BiometricToken string    `json:"biometricToken"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type sessionResponse struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	RefreshToken string `json:"refreshToken"`
	Token        string `json:"token"`
}

type biometricResponse struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	BiometricToken string `json:"biometricToken"`
}

type profileResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type handlers struct {
	svc    AuthService
	logger *slog.Logger
}

func (h *handlers) welcome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // client may disconnect
	io.WriteString(w, Welcome)
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	body := registerBodyFrom(r.Context())
	res, err := h.svc.Register(r.Context(), auth.RegisterRequest{
		Username: body.Username,
		Password: body.Password,
		Email:    body.Email,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, registerResponse{
		ID:             res.ID,
		Username:       res.Username,
		Email:          res.Email,
		BiometricToken: res.BiometricToken,
		CreatedAt:      res.CreatedAt,
		UpdatedAt:      res.UpdatedAt,
	})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.Login(r.Context(), auth.LoginRequest{
		Username:  body.Username,
		Password:  body.Password,
		Biometric: body.Biometric,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(*res))
}

func (h *handlers) refreshToken(w http.ResponseWriter, r *http.Request) {
	var body refreshTokenBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.RefreshToken(r.Context(), auth.RefreshRequest{
		Username:     body.Username,
		RefreshToken: body.RefreshToken,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(*res))
}

func (h *handlers) refreshBiometric(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	if id == nil {
		id = &auth.Identity{}
	}
	res, err := h.svc.RefreshBiometric(r.Context(), *id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, biometricResponse(*res))
}

// profile serves both /profile (the caller) and /profile/{username}.
func (h *handlers) profile(w http.ResponseWriter, r *http.Request) {
	var (
		res *auth.Profile
		err error
	)
	if username := chi.URLParam(r, "username"); username != "" {
		res, err = h.svc.Profile(r.Context(), username)
	} else if id, ok := IdentityFrom(r.Context()); ok {
		res, err = h.svc.AccountProfile(r.Context(), *id)
	} else {
		err = oops.Code(auth.CodeTokenMissing).Public(auth.MsgTokenMissing).Errorf("no identity on request")
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse(*res))
}
