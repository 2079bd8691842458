// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

// Package memory provides an in-process auth.CredentialStore for
// development and tests. State is lost when the process exits.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/bioauth/bioauth/internal/auth"
)

// Store implements auth.CredentialStore with a mutex-guarded map.
type Store struct {
	mu     sync.Mutex
	nextID int64
	byName map[string]*auth.UserCredentialRecord
	now    func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		nextID: 1,
		byName: make(map[string]*auth.UserCredentialRecord),
		now:    time.Now,
	}
}

// FindByUsername returns a copy of the record for username.
func (s *Store) FindByUsername(_ context.Context, username string) (*auth.UserCredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byName[username]
	if !ok {
		return nil, oops.Code("CREDENTIAL_NOT_FOUND").With("username", username).Wrap(auth.ErrNotFound)
	}
	return clone(rec), nil
}

// FindByID returns a copy of the record with id.
func (s *Store) FindByID(_ context.Context, id int64) (*auth.UserCredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.byName {
		if rec.ID == id {
			return clone(rec), nil
		}
	}
	return nil, oops.Code("CREDENTIAL_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
}

// Create inserts a new record.
func (s *Store) Create(_ context.Context, creds auth.NewCredentials) (*auth.UserCredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[creds.Username]; exists {
		return nil, oops.Code("CREDENTIAL_CONFLICT").With("username", creds.Username).Wrap(auth.ErrConflict)
	}

	now := s.now().UTC()
	rec := &auth.UserCredentialRecord{
		ID:            s.nextID,
		Username:      creds.Username,
		Email:         creds.Email,
		PasswordHash:  creds.PasswordHash,
		BiometricHash: creds.BiometricHash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.nextID++
	s.byName[creds.Username] = rec
	return clone(rec), nil
}

// UpdateRefreshToken overwrites the refresh token fields of username.
func (s *Store) UpdateRefreshToken(_ context.Context, username, hash string, createdAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byName[username]
	if !ok {
		return 0, nil
	}
	h, at := hash, createdAt
	rec.RefreshTokenHash = &h
	rec.RefreshTokenCreatedAt = &at
	rec.UpdatedAt = s.now().UTC()
	return 1, nil
}

// UpdateBiometricHash overwrites the biometric hash of username.
func (s *Store) UpdateBiometricHash(_ context.Context, username, hash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byName[username]
	if !ok {
		return 0, nil
	}
	rec.BiometricHash = hash
	rec.UpdatedAt = s.now().UTC()
	return 1, nil
}

func clone(rec *auth.UserCredentialRecord) *auth.UserCredentialRecord {
	out := *rec
	if rec.RefreshTokenHash != nil {
		h := *rec.RefreshTokenHash
		out.RefreshTokenHash = &h
	}
	if rec.RefreshTokenCreatedAt != nil {
		at := *rec.RefreshTokenCreatedAt
		out.RefreshTokenCreatedAt = &at
	}
	return &out
}

var _ auth.CredentialStore = (*Store)(nil)
