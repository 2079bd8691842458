// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// DefaultAccessTokenTTL is the validity window of an access token.
const DefaultAccessTokenTTL = 24 * time.Hour

// Identity is the claim set carried by an access token.
type Identity struct {
	ID       int64
	Username string
}

// accessClaims is the JWT payload: {id, username, iat, exp}.
type accessClaims struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SessionIssuer signs and verifies stateless access tokens with HS256.
type SessionIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// SessionOption configures a SessionIssuer.
type SessionOption func(*SessionIssuer)

// WithSessionClock overrides the clock used for iat/exp and verification.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *SessionIssuer) {
		s.now = now
	}
}

// NewSessionIssuer creates an issuer signing with secret. A non-positive ttl
// selects DefaultAccessTokenTTL.
func NewSessionIssuer(secret string, ttl time.Duration, opts ...SessionOption) (*SessionIssuer, error) {
	if secret == "" {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("signing secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	s := &SessionIssuer{key: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the access token lifetime.
func (s *SessionIssuer) TTL() time.Duration {
	return s.ttl
}

// Issue signs an access token for id.
func (s *SessionIssuer) Issue(id Identity) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		UserID:   id.ID,
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").With("username", id.Username).Wrap(err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns its identity.
// Expired tokens fail with AUTH_TOKEN_EXPIRED, everything else with
// AUTH_TOKEN_INVALID.
func (s *SessionIssuer) Verify(token string) (*Identity, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, oops.Code(CodeTokenExpired).Public(MsgTokenExpired).Wrap(err)
		}
		return nil, oops.Code(CodeTokenInvalid).Public(MsgTokenInvalid).Wrap(err)
	}
	if !parsed.Valid || claims.Username == "" {
		return nil, oops.Code(CodeTokenInvalid).Public(MsgTokenInvalid).Errorf("token carries no identity")
	}
	return &Identity{ID: claims.UserID, Username: claims.Username}, nil
}
