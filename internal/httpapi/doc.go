// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

// Package httpapi serves the authentication flows over HTTP.
//
// Routes:
//
//	GET  /                   welcome text
//	POST /register           checkRegisterParams, checkDuplicateUsername
//	POST /login
//	POST /refreshtoken
//	POST /refreshbiometric   verifyToken
//	GET  /profile            verifyToken
//	GET  /profile/{username}
//
// Bodies are JSON or URL-encoded forms. Every failure is answered with
// {"message": ...} carrying the public message of the error, never its
// internal text.
package httpapi
