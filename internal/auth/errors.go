// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested credential record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a credential record with the same username
// already exists.
var ErrConflict = errors.New("conflict")

// Error codes surfaced by the flow coordinator. The transport layer maps
// these to status classes.
const (
	CodeValidationFailed   = "AUTH_VALIDATION_FAILED"
	CodeUsernameTaken      = "AUTH_USERNAME_TAKEN"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeRefreshExpired     = "AUTH_REFRESH_EXPIRED"
	CodePersistenceFailed  = "AUTH_PERSISTENCE_FAILED"
	CodeTokenMissing       = "AUTH_TOKEN_MISSING"
	CodeTokenExpired       = "AUTH_TOKEN_EXPIRED"
	CodeTokenInvalid       = "AUTH_TOKEN_INVALID"
	CodeProfileNotFound    = "AUTH_PROFILE_NOT_FOUND"
)

// Client-visible messages. Internal causes are never exposed.
const (
	MsgInvalidCredentials = "Invalid credentials"
	MsgIncompleteParams   = "Incomplete params"
	MsgRefreshExpired     = "Refresh token was expired. Please make a new login request"
	MsgRefreshFailed      = "Failed at updating refreshToken"
	MsgBiometricFailed    = "Refresh biometric failed"
	MsgCreateUserFailed   = "Create user failed"
	MsgTokenMissing       = "No Authentication Token"
	MsgTokenExpired       = "Access token was expired"
	MsgTokenInvalid       = "Invalid Token"
	MsgDataNotFound       = "Data not found"
)
