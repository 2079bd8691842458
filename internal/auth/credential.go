// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package auth

import (
	"context"
	"time"
)

// UserCredentialRecord is the stored credential state of one user. Refresh
// token state lives on the record itself: one session per user.
type UserCredentialRecord struct {
	ID                    int64
	Username              string
	Email                 string
	PasswordHash          string
	BiometricHash         string
	RefreshTokenHash      *string
	RefreshTokenCreatedAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NewCredentials holds the fields written when a user registers.
type NewCredentials struct {
	Username      string
	Email         string
	PasswordHash  string
	BiometricHash string
}

// CredentialStore persists UserCredentialRecords keyed by username.
//
// Update methods report the number of affected records so callers can tell
// "no such user" (0) from success (1) without a second read.
type CredentialStore interface {
	// FindByUsername returns the record for username or ErrNotFound.
	FindByUsername(ctx context.Context, username string) (*UserCredentialRecord, error)

	// FindByID returns the record with id or ErrNotFound.
	FindByID(ctx context.Context, id int64) (*UserCredentialRecord, error)

	// Create inserts a new record. Returns ErrConflict if the username exists.
	Create(ctx context.Context, creds NewCredentials) (*UserCredentialRecord, error)

	// UpdateRefreshToken overwrites the refresh token hash and its creation
	// time in one atomic write.
	UpdateRefreshToken(ctx context.Context, username, hash string, createdAt time.Time) (int64, error)

	// UpdateBiometricHash overwrites the biometric hash.
	UpdateBiometricHash(ctx context.Context, username, hash string) (int64, error)
}
