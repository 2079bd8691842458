// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package auth_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bioauth/bioauth/internal/auth"
	"github.com/bioauth/bioauth/pkg/errutil"
)

const testSecret = "test-secret"

func newTestLimiter(t *testing.T) *auth.HashLimiter {
	t.Helper()
	h, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return auth.NewHashLimiter(h, 4, nil)
}

func TestBiometricTokenIssuer_Issue(t *testing.T) {
	ctx := context.Background()
	limiter := newTestLimiter(t)
	issuer := auth.NewBiometricTokenIssuer(limiter, testSecret)
	now := time.UnixMilli(1_700_000_000_000)

	plain, stored, err := issuer.Issue(ctx, "alice", now)
	require.NoError(t, err)
	require.NotEmpty(t, plain)
	require.NotEmpty(t, stored)
	assert.NotEqual(t, plain, stored)

	ok, err := limiter.Verify(ctx, plain, stored)
	require.NoError(t, err)
	assert.True(t, ok, "issued token must verify against the stored hash")

	seed := testSecret + ".alice." + strconv.FormatInt(now.UnixMilli(), 10)
	ok, err = limiter.Verify(ctx, seed, stored)
	require.NoError(t, err)
	assert.False(t, ok, "the seed is not the token")

	ok, err = limiter.Verify(ctx, seed, plain)
	require.NoError(t, err)
	assert.True(t, ok, "the token is a hash of the seed")
}

func TestBiometricTokenIssuer_IssueIsFresh(t *testing.T) {
	ctx := context.Background()
	limiter := newTestLimiter(t)
	issuer := auth.NewBiometricTokenIssuer(limiter, testSecret)
	now := time.UnixMilli(1_700_000_000_000)

	first, firstHash, err := issuer.Issue(ctx, "alice", now)
	require.NoError(t, err)
	second, _, err := issuer.Issue(ctx, "alice", now.Add(time.Millisecond))
	require.NoError(t, err)
	same, _, err := issuer.Issue(ctx, "alice", now)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, first, same, "salted hashing keeps tokens unique even within one millisecond")

	ok, err := limiter.Verify(ctx, second, firstHash)
	require.NoError(t, err)
	assert.False(t, ok, "a newer token must not verify against an older hash")
}

func TestBiometricTokenIssuer_Cancelled(t *testing.T) {
	limiter := newTestLimiter(t)
	issuer := auth.NewBiometricTokenIssuer(limiter, testSecret)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := issuer.Issue(ctx, "alice", time.Now())
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AUTH_HASH_CANCELLED")
	errutil.AssertErrorContext(t, err, "username", "alice")
}
