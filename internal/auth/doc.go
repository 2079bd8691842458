// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

// Package auth implements the credential and session lifecycle of BioAuth.
//
// # Credentials
//
// Three secrets are issued and checked here:
//   - passwords, hashed by a SecretHasher at registration
//   - biometric tokens, derived by BiometricTokenIssuer and replaced on demand
//   - refresh tokens, derived by RefreshTokenManager on every login
//
// Biometric and refresh tokens are hashes of a seed built from the process
// secret, the username and the issuance time. The plaintext token is returned
// to the caller once; the store keeps only a hash of it.
//
// # Sessions
//
// SessionIssuer signs stateless access tokens carrying {id, username}.
// Refresh token state lives on the user record, so a user has at most one
// live refresh token and each login replaces it.
//
// # Flows
//
// Service runs the register, login, refresh-biometric and refresh-token
// flows against a CredentialStore. Authentication failures are uniform
// (AUTH_INVALID_CREDENTIALS); only an expired refresh token is reported
// distinctly (AUTH_REFRESH_EXPIRED).
package auth
