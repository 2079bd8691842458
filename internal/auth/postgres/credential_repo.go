// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

// Package postgres implements auth.CredentialStore on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/bioauth/bioauth/internal/auth"
	"github.com/bioauth/bioauth/internal/store"
)

const userColumns = `id, username, email, password_hash, biometric_hash,
	refresh_token_hash, refresh_token_created_at, created_at, updated_at`

// CredentialRepository implements auth.CredentialStore using PostgreSQL.
type CredentialRepository struct {
	pool store.Pool
}

// NewCredentialRepository creates a new CredentialRepository.
func NewCredentialRepository(pool store.Pool) *CredentialRepository {
	return &CredentialRepository{pool: pool}
}

// FindByUsername retrieves a user by username.
func (r *CredentialRepository) FindByUsername(ctx context.Context, username string) (*auth.UserCredentialRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CREDENTIAL_NOT_FOUND").With("username", username).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CREDENTIAL_QUERY_FAILED").With("username", username).Wrap(err)
	}
	return rec, nil
}

// FindByID retrieves a user by id.
func (r *CredentialRepository) FindByID(ctx context.Context, id int64) (*auth.UserCredentialRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CREDENTIAL_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CREDENTIAL_QUERY_FAILED").With("id", id).Wrap(err)
	}
	return rec, nil
}

// Create inserts a new user. A duplicate username yields auth.ErrConflict.
func (r *CredentialRepository) Create(ctx context.Context, creds auth.NewCredentials) (*auth.UserCredentialRecord, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, biometric_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		creds.Username,
		creds.Email,
		creds.PasswordHash,
		creds.BiometricHash,
	)
	rec, err := scanRecord(row)
	if isUniqueViolation(err) {
		return nil, oops.Code("CREDENTIAL_CONFLICT").With("username", creds.Username).Wrap(auth.ErrConflict)
	}
	if err != nil {
		return nil, oops.Code("CREDENTIAL_CREATE_FAILED").With("username", creds.Username).Wrap(err)
	}
	return rec, nil
}

// UpdateRefreshToken overwrites the refresh token hash and its creation time.
func (r *CredentialRepository) UpdateRefreshToken(ctx context.Context, username, hash string, createdAt time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET refresh_token_hash = $2, refresh_token_created_at = $3, updated_at = now()
		WHERE username = $1
	`, username, hash, createdAt)
	if err != nil {
		return 0, oops.Code("CREDENTIAL_UPDATE_FAILED").
			With("operation", "update refresh token").
			With("username", username).
			Wrap(err)
	}
	return tag.RowsAffected(), nil
}

// UpdateBiometricHash overwrites the biometric hash.
func (r *CredentialRepository) UpdateBiometricHash(ctx context.Context, username, hash string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET biometric_hash = $2, updated_at = now()
		WHERE username = $1
	`, username, hash)
	if err != nil {
		return 0, oops.Code("CREDENTIAL_UPDATE_FAILED").
			With("operation", "update biometric hash").
			With("username", username).
			Wrap(err)
	}
	return tag.RowsAffected(), nil
}

func scanRecord(row pgx.Row) (*auth.UserCredentialRecord, error) {
	var rec auth.UserCredentialRecord
	err := row.Scan(
		&rec.ID,
		&rec.Username,
		&rec.Email,
		&rec.PasswordHash,
		&rec.BiometricHash,
		&rec.RefreshTokenHash,
		&rec.RefreshTokenCreatedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

var _ auth.CredentialStore = (*CredentialRepository)(nil)
