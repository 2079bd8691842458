// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/samber/oops"
)

// BiometricTokenIssuer derives biometric enrollment tokens. The plaintext
// token is a hash of a per-issuance seed; only a hash of that token is ever
// stored.
type BiometricTokenIssuer struct {
	hashes *HashLimiter
	secret string
}

// NewBiometricTokenIssuer creates an issuer bound to the process secret.
func NewBiometricTokenIssuer(hashes *HashLimiter, secret string) *BiometricTokenIssuer {
	return &BiometricTokenIssuer{hashes: hashes, secret: secret}
}

// Issue returns a fresh plaintext token for username and the hash to persist.
func (b *BiometricTokenIssuer) Issue(ctx context.Context, username string, now time.Time) (plain, stored string, err error) {
	plain, stored, err = deriveToken(ctx, b.hashes, biometricSeed(b.secret, username, now))
	if err != nil {
		return "", "", oops.Code("AUTH_BIOMETRIC_ISSUE_FAILED").With("username", username).Wrap(err)
	}
	return plain, stored, nil
}

func biometricSeed(secret, username string, now time.Time) string {
	return secret + "." + username + "." + strconv.FormatInt(now.UnixMilli(), 10)
}

// deriveToken hashes seed into the presentable token, then hashes that token
// again for storage.
func deriveToken(ctx context.Context, hashes *HashLimiter, seed string) (plain, stored string, err error) {
	plain, err = hashes.Hash(ctx, seed)
	if err != nil {
		return "", "", err
	}
	stored, err = hashes.Hash(ctx, plain)
	if err != nil {
		return "", "", err
	}
	return plain, stored, nil
}
