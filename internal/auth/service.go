// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bioauth/bioauth/pkg/errutil"
)

// CodeInternal marks hashing or signing failures inside a flow.
const CodeInternal = "AUTH_INTERNAL_ERROR"

// Flow names used in spans, logs and metrics.
const (
	FlowRegister         = "register"
	FlowLogin            = "login"
	FlowRefreshBiometric = "refresh_biometric"
	FlowRefreshToken     = "refresh_token"
	FlowProfile          = "profile"
)

// dummySeed is hashed once to give unknown-user logins a real hash to verify
// against, so they cost the same as a wrong password.
const dummySeed = "bioauth-dummy-credential"

var tracer = otel.Tracer("github.com/bioauth/bioauth/internal/auth")

// RegisterRequest carries the fields of a registration.
type RegisterRequest struct {
	Username string
	Password string
	Email    string
}

// RegisterResult is returned once per registration. BiometricToken is the
// only copy of the plaintext token.
type RegisterResult struct {
	ID             int64
	Username       string
	Email          string
	BiometricToken string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LoginRequest carries a username and at least one credential.
type LoginRequest struct {
	Username  string
	Password  string
	Biometric string
}

// RefreshRequest carries a username and the refresh token issued at login.
type RefreshRequest struct {
	Username     string
	RefreshToken string
}

// SessionResult is returned by Login and RefreshToken.
type SessionResult struct {
	ID           int64
	Username     string
	RefreshToken string
	Token        string
}

// BiometricResult is returned by RefreshBiometric.
type BiometricResult struct {
	ID             int64
	Username       string
	BiometricToken string
}

// Profile is the public view of a user.
type Profile struct {
	ID       int64
	Username string
	Email    string
}

// ServiceConfig holds the collaborators of a Service.
type ServiceConfig struct {
	Store      CredentialStore
	Hashes     *HashLimiter
	Biometrics *BiometricTokenIssuer
	Refresh    *RefreshTokenManager
	Sessions   *SessionIssuer
	Recorder   Recorder
	Logger     *slog.Logger
	Now        func() time.Time
}

// Service coordinates the registration, login and refresh flows.
type Service struct {
	store      CredentialStore
	hashes     *HashLimiter
	biometrics *BiometricTokenIssuer
	refresh    *RefreshTokenManager
	sessions   *SessionIssuer
	recorder   Recorder
	logger     *slog.Logger
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a Service. Store, Hashes, Biometrics, Refresh and
// Sessions are required.
func NewService(cfg ServiceConfig) (*Service, error) {
	switch {
	case cfg.Store == nil:
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("credential store is required")
	case cfg.Hashes == nil:
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("hash limiter is required")
	case cfg.Biometrics == nil:
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("biometric token issuer is required")
	case cfg.Refresh == nil:
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("refresh token manager is required")
	case cfg.Sessions == nil:
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("session issuer is required")
	}

	s := &Service{
		store:      cfg.Store,
		hashes:     cfg.Hashes,
		biometrics: cfg.Biometrics,
		refresh:    cfg.Refresh,
		sessions:   cfg.Sessions,
		recorder:   cfg.Recorder,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Register creates a user with a password hash and a freshly issued
// biometric token.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (result *RegisterResult, err error) {
	ctx, span := s.start(ctx, FlowRegister, req.Username)
	defer func() { s.finish(span, FlowRegister, err) }()

	if req.Username == "" || req.Password == "" || req.Email == "" {
		return nil, oops.Code(CodeValidationFailed).Public(MsgIncompleteParams).Errorf("username, password and email are required")
	}

	passwordHash, err := s.hashes.Hash(ctx, req.Password)
	if err != nil {
		return nil, s.internal(ctx, FlowRegister, "hash password", err)
	}

	biometricToken, biometricHash, err := s.biometrics.Issue(ctx, req.Username, s.now())
	if err != nil {
		return nil, s.internal(ctx, FlowRegister, "issue biometric token", err)
	}

	rec, err := s.store.Create(ctx, NewCredentials{
		Username:      req.Username,
		Email:         req.Email,
		PasswordHash:  passwordHash,
		BiometricHash: biometricHash,
	})
	if errors.Is(err, ErrConflict) {
		return nil, oops.Code(CodeUsernameTaken).
			With("username", req.Username).
			Public("Username " + req.Username + " is already taken").
			Errorf("username already exists")
	}
	if err != nil {
		return nil, s.persistence(ctx, FlowRegister, MsgCreateUserFailed, err)
	}

	s.logger.InfoContext(ctx, "user registered", "username", rec.Username, "user_id", rec.ID)

	return &RegisterResult{
		ID:             rec.ID,
		Username:       rec.Username,
		Email:          rec.Email,
		BiometricToken: biometricToken,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}, nil
}

// Login authenticates with a password, a biometric token or both, replaces
// the user's refresh token and issues an access token. Every authentication
// failure returns the same AUTH_INVALID_CREDENTIALS error.
func (s *Service) Login(ctx context.Context, req LoginRequest) (result *SessionResult, err error) {
	ctx, span := s.start(ctx, FlowLogin, req.Username)
	defer func() { s.finish(span, FlowLogin, err) }()

	if req.Username == "" || (req.Password == "" && req.Biometric == "") {
		return nil, s.invalidCredentials(ctx, FlowLogin, req.Username, "missing credentials")
	}

	rec, err := s.store.FindByUsername(ctx, req.Username)
	if errors.Is(err, ErrNotFound) {
		s.burnVerify(ctx, req.Password+req.Biometric)
		return nil, s.invalidCredentials(ctx, FlowLogin, req.Username, "unknown user")
	}
	if err != nil {
		return nil, s.persistence(ctx, FlowLogin, MsgInvalidCredentials, err)
	}

	if req.Password != "" {
		ok, verr := s.hashes.Verify(ctx, req.Password, rec.PasswordHash)
		if verr != nil {
			return nil, s.internal(ctx, FlowLogin, "verify password", verr)
		}
		if !ok {
			return nil, s.invalidCredentials(ctx, FlowLogin, req.Username, "password mismatch")
		}
	}

	if req.Biometric != "" {
		ok, verr := s.hashes.Verify(ctx, req.Biometric, rec.BiometricHash)
		if verr != nil {
			return nil, s.internal(ctx, FlowLogin, "verify biometric", verr)
		}
		if !ok {
			return nil, s.invalidCredentials(ctx, FlowLogin, req.Username, "biometric mismatch")
		}
	}

	refreshToken, refreshHash, createdAt, err := s.refresh.Issue(ctx, rec.Username, s.now())
	if err != nil {
		return nil, s.internal(ctx, FlowLogin, "issue refresh token", err)
	}

	updated, err := s.store.UpdateRefreshToken(ctx, rec.Username, refreshHash, createdAt)
	if err != nil {
		return nil, s.persistence(ctx, FlowLogin, MsgRefreshFailed, err)
	}
	if updated == 0 {
		return nil, s.persistence(ctx, FlowLogin, MsgRefreshFailed,
			oops.With("username", rec.Username).Errorf("refresh token update affected no rows"))
	}

	token, err := s.sessions.Issue(Identity{ID: rec.ID, Username: rec.Username})
	if err != nil {
		return nil, s.internal(ctx, FlowLogin, "sign access token", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		"username", rec.Username,
		"user_id", rec.ID,
		"with_password", req.Password != "",
		"with_biometric", req.Biometric != "",
	)

	return &SessionResult{
		ID:           rec.ID,
		Username:     rec.Username,
		RefreshToken: refreshToken,
		Token:        token,
	}, nil
}

// RefreshBiometric replaces the biometric token of an authenticated user.
// The previous token stops verifying immediately.
func (s *Service) RefreshBiometric(ctx context.Context, id Identity) (result *BiometricResult, err error) {
	ctx, span := s.start(ctx, FlowRefreshBiometric, id.Username)
	defer func() { s.finish(span, FlowRefreshBiometric, err) }()

	if id.Username == "" {
		return nil, oops.Code(CodeTokenInvalid).Public(MsgTokenInvalid).Errorf("identity carries no username")
	}

	token, hash, err := s.biometrics.Issue(ctx, id.Username, s.now())
	if err != nil {
		return nil, s.internal(ctx, FlowRefreshBiometric, "issue biometric token", err)
	}

	updated, err := s.store.UpdateBiometricHash(ctx, id.Username, hash)
	if err != nil {
		return nil, s.persistence(ctx, FlowRefreshBiometric, MsgBiometricFailed, err)
	}
	if updated == 0 {
		return nil, s.persistence(ctx, FlowRefreshBiometric, MsgBiometricFailed,
			oops.With("username", id.Username).Errorf("biometric update affected no rows"))
	}

	s.logger.InfoContext(ctx, "biometric token refreshed", "username", id.Username, "user_id", id.ID)

	return &BiometricResult{ID: id.ID, Username: id.Username, BiometricToken: token}, nil
}

// RefreshToken exchanges a valid refresh token for a new access token. The
// refresh token itself is returned unchanged.
func (s *Service) RefreshToken(ctx context.Context, req RefreshRequest) (result *SessionResult, err error) {
	ctx, span := s.start(ctx, FlowRefreshToken, req.Username)
	defer func() { s.finish(span, FlowRefreshToken, err) }()

	if req.Username == "" || req.RefreshToken == "" {
		return nil, oops.Code(CodeValidationFailed).Public(MsgInvalidCredentials).Errorf("username and refresh token are required")
	}

	rec, err := s.store.FindByUsername(ctx, req.Username)
	if errors.Is(err, ErrNotFound) {
		s.burnVerify(ctx, req.RefreshToken)
		return nil, s.invalidCredentials(ctx, FlowRefreshToken, req.Username, "unknown user")
	}
	if err != nil {
		return nil, s.persistence(ctx, FlowRefreshToken, MsgInvalidCredentials, err)
	}

	var storedHash string
	if rec.RefreshTokenHash != nil {
		storedHash = *rec.RefreshTokenHash
	}

	verdict, err := s.refresh.Verify(ctx, req.RefreshToken, storedHash, rec.RefreshTokenCreatedAt, s.now())
	if err != nil {
		return nil, s.internal(ctx, FlowRefreshToken, "verify refresh token", err)
	}

	switch verdict {
	case VerdictInvalid:
		return nil, s.invalidCredentials(ctx, FlowRefreshToken, req.Username, "refresh token mismatch")
	case VerdictExpired:
		s.logger.WarnContext(ctx, "refresh token expired", "username", req.Username, "flow", FlowRefreshToken)
		return nil, oops.Code(CodeRefreshExpired).
			With("username", req.Username).
			Public(MsgRefreshExpired).
			Errorf("refresh token expired")
	}

	token, err := s.sessions.Issue(Identity{ID: rec.ID, Username: rec.Username})
	if err != nil {
		return nil, s.internal(ctx, FlowRefreshToken, "sign access token", err)
	}

	s.logger.InfoContext(ctx, "access token renewed", "username", rec.Username, "user_id", rec.ID)

	return &SessionResult{
		ID:           rec.ID,
		Username:     rec.Username,
		RefreshToken: req.RefreshToken,
		Token:        token,
	}, nil
}

// Profile returns the public view of username.
func (s *Service) Profile(ctx context.Context, username string) (result *Profile, err error) {
	ctx, span := s.start(ctx, FlowProfile, username)
	defer func() { s.finish(span, FlowProfile, err) }()

	rec, err := s.store.FindByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code(CodeProfileNotFound).With("username", username).Public(MsgDataNotFound).Errorf("user not found")
	}
	if err != nil {
		return nil, s.persistence(ctx, FlowProfile, "", err)
	}
	return &Profile{ID: rec.ID, Username: rec.Username, Email: rec.Email}, nil
}

// AccountProfile returns the public view of the token holder id, looked up
// by user id. A record whose username no longer matches the token is
// reported as not found.
func (s *Service) AccountProfile(ctx context.Context, id Identity) (result *Profile, err error) {
	ctx, span := s.start(ctx, FlowProfile, id.Username)
	defer func() { s.finish(span, FlowProfile, err) }()

	rec, err := s.store.FindByID(ctx, id.ID)
	if errors.Is(err, ErrNotFound) || (err == nil && rec.Username != id.Username) {
		return nil, oops.Code(CodeProfileNotFound).
			With("user_id", id.ID).
			With("username", id.Username).
			Public(MsgDataNotFound).
			Errorf("user not found")
	}
	if err != nil {
		return nil, s.persistence(ctx, FlowProfile, "", err)
	}
	return &Profile{ID: rec.ID, Username: rec.Username, Email: rec.Email}, nil
}

// UsernameTaken reports whether a record for username exists.
func (s *Service) UsernameTaken(ctx context.Context, username string) (bool, error) {
	_, err := s.store.FindByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, oops.Code(CodePersistenceFailed).
			With("operation", "check username").
			With("username", username).
			Wrap(err)
	}
	return true, nil
}

// Authenticate verifies a presented access token.
func (s *Service) Authenticate(token string) (*Identity, error) {
	if token == "" {
		return nil, oops.Code(CodeTokenMissing).Public(MsgTokenMissing).Errorf("access token missing")
	}
	return s.sessions.Verify(token)
}

// burnVerify runs one verification against a throwaway hash so that unknown
// users take as long to reject as known ones.
func (s *Service) burnVerify(ctx context.Context, presented string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hashes.Hash(context.WithoutCancel(ctx), dummySeed)
		if err == nil {
			s.dummyHash = hash
		}
	})
	if s.dummyHash == "" || presented == "" {
		return
	}
	_, _ = s.hashes.Verify(ctx, presented, s.dummyHash) //nolint:errcheck // result is discarded
}

func (s *Service) start(ctx context.Context, flow, username string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "auth."+flow, trace.WithAttributes(
		attribute.String("auth.flow", flow),
		attribute.String("auth.username", username),
	))
}

func (s *Service) finish(span trace.Span, flow string, err error) {
	outcome := Outcome(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	span.End()
	s.recorder.RecordFlow(flow, outcome)
}

func (s *Service) invalidCredentials(ctx context.Context, flow, username, reason string) error {
	s.logger.WarnContext(ctx, "authentication failed",
		"username", username,
		"flow", flow,
		"reason", reason,
	)
	return oops.Code(CodeInvalidCredentials).
		With("username", username).
		With("reason", reason).
		Public(MsgInvalidCredentials).
		Errorf("invalid credentials")
}

// persistence logs a store failure with its full cause and returns a flow
// error that carries only the public message. oops reports the deepest code
// in a chain, so the cause is attached as context rather than wrapped.
func (s *Service) persistence(ctx context.Context, flow, public string, err error) error {
	errutil.LogErrorContext(ctx, s.logger, "credential store failure", err, "flow", flow)
	builder := oops.Code(CodePersistenceFailed).With("flow", flow).With("cause", err.Error())
	if public != "" {
		builder = builder.Public(public)
	}
	return builder.Errorf("credential store failure")
}

func (s *Service) internal(ctx context.Context, flow, operation string, err error) error {
	errutil.LogErrorContext(ctx, s.logger, "authentication flow failure", err, "flow", flow, "operation", operation)
	return oops.Code(CodeInternal).
		With("flow", flow).
		With("operation", operation).
		With("cause", err.Error()).
		Errorf("%s failed", operation)
}

// Outcome classifies err into a short metric label.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	code := errutil.Code(err)
	if code == "" {
		return "error"
	}
	return strings.ToLower(strings.TrimPrefix(code, "AUTH_"))
}
