// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/samber/oops"
)

// DefaultRefreshTokenTTL is how long a refresh token stays usable after login.
const DefaultRefreshTokenTTL = 3 * 24 * time.Hour

// refreshSeedPrefix keeps refresh seeds disjoint from biometric seeds.
const refreshSeedPrefix = "refreshToken-"

// Verdict is the outcome of checking a presented refresh token.
type Verdict int

// Refresh token verdicts.
const (
	VerdictInvalid Verdict = iota
	VerdictValid
	VerdictExpired
)

func (v Verdict) String() string {
	switch v {
	case VerdictValid:
		return "valid"
	case VerdictExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// RefreshTokenManager issues and checks refresh tokens. A user holds at most
// one refresh token: the stored hash is overwritten on every login.
type RefreshTokenManager struct {
	hashes *HashLimiter
	secret string
	ttl    time.Duration
}

// NewRefreshTokenManager creates a manager. A non-positive ttl selects
// DefaultRefreshTokenTTL.
func NewRefreshTokenManager(hashes *HashLimiter, secret string, ttl time.Duration) *RefreshTokenManager {
	if ttl <= 0 {
		ttl = DefaultRefreshTokenTTL
	}
	return &RefreshTokenManager{hashes: hashes, secret: secret, ttl: ttl}
}

// TTL returns the refresh token lifetime.
func (m *RefreshTokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue returns a new plaintext refresh token, the hash to store and the
// creation time to store alongside it.
func (m *RefreshTokenManager) Issue(ctx context.Context, username string, now time.Time) (plain, stored string, createdAt time.Time, err error) {
	seed := refreshSeedPrefix + m.secret + "." + username + "." + strconv.FormatInt(now.UnixMilli(), 10)
	plain, stored, err = deriveToken(ctx, m.hashes, seed)
	if err != nil {
		return "", "", time.Time{}, oops.Code("AUTH_REFRESH_ISSUE_FAILED").With("username", username).Wrap(err)
	}
	return plain, stored, now, nil
}

// Verify checks presented against the stored hash, then its age. A mismatch
// is reported before expiry so an expired verdict implies possession of the
// real token. The error is non-nil only when ctx ends first.
func (m *RefreshTokenManager) Verify(ctx context.Context, presented, storedHash string, createdAt *time.Time, now time.Time) (Verdict, error) {
	if presented == "" || storedHash == "" || createdAt == nil {
		return VerdictInvalid, nil
	}

	ok, err := m.hashes.Verify(ctx, presented, storedHash)
	if err != nil {
		return VerdictInvalid, err
	}
	if !ok {
		return VerdictInvalid, nil
	}

	elapsed := now.Sub(*createdAt).Round(time.Second)
	if elapsed > m.ttl {
		return VerdictExpired, nil
	}
	return VerdictValid, nil
}
