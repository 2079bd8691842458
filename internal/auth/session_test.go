// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioauth/bioauth/internal/auth"
	"github.com/bioauth/bioauth/pkg/errutil"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestNewSessionIssuer(t *testing.T) {
	_, err := auth.NewSessionIssuer("", 0)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_CONFIG")

	s, err := auth.NewSessionIssuer(testSecret, 0)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, s.TTL())
}

func TestSessionIssuer_RoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s, err := auth.NewSessionIssuer(testSecret, 0, auth.WithSessionClock(clock.Now))
	require.NoError(t, err)

	token, err := s.Issue(auth.Identity{ID: 7, Username: "alice"})
	require.NoError(t, err)

	id, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{ID: 7, Username: "alice"}, *id)
}

func TestSessionIssuer_Claims(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s, err := auth.NewSessionIssuer(testSecret, 0, auth.WithSessionClock(clock.Now))
	require.NoError(t, err)

	token, err := s.Issue(auth.Identity{ID: 7, Username: "alice"})
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)

	assert.InDelta(t, 7, claims["id"], 0)
	assert.Equal(t, "alice", claims["username"])
	assert.InDelta(t, float64(clock.now.Unix()), claims["iat"], 0)
	assert.InDelta(t, float64(clock.now.Add(24*time.Hour).Unix()), claims["exp"], 0)
}

func TestSessionIssuer_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s, err := auth.NewSessionIssuer(testSecret, 0, auth.WithSessionClock(clock.Now))
	require.NoError(t, err)

	token, err := s.Issue(auth.Identity{ID: 1, Username: "alice"})
	require.NoError(t, err)

	clock.Advance(24*time.Hour - time.Second)
	_, err = s.Verify(token)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	_, err = s.Verify(token)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, auth.CodeTokenExpired)
	errutil.AssertPublic(t, err, auth.MsgTokenExpired)
}

func TestSessionIssuer_RejectsForgedTokens(t *testing.T) {
	s, err := auth.NewSessionIssuer(testSecret, 0)
	require.NoError(t, err)
	other, err := auth.NewSessionIssuer("another-secret", 0)
	require.NoError(t, err)

	foreign, err := other.Issue(auth.Identity{ID: 1, Username: "alice"})
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id":       1,
		"username": "alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"id":       1,
		"username": "alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       1,
		"username": "alice",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  1,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := map[string]string{
		"wrong key":     foreign,
		"alg none":      unsigned,
		"other alg":     hs512,
		"no expiry":     noExp,
		"no identity":   noUser,
		"garbage":       "not.a.jwt",
		"empty":         "",
		"truncated sig": foreign[:len(foreign)-4],
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.Verify(token)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, auth.CodeTokenInvalid)
			errutil.AssertPublic(t, err, auth.MsgTokenInvalid)
		})
	}
}
