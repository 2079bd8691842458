// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bioauth/bioauth/internal/auth"
	"github.com/bioauth/bioauth/pkg/errutil"
)

// MsgInternal is sent for failures that carry no public message.
const MsgInternal = "Internal server error"

// CodeMalformedBody marks a request body that could not be decoded.
const CodeMalformedBody = "HTTP_MALFORMED_BODY"

// statusFor maps an error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case auth.CodeValidationFailed, auth.CodeUsernameTaken, auth.CodeInvalidCredentials,
		auth.CodeTokenMissing, CodeMalformedBody:
		return http.StatusBadRequest
	case auth.CodeTokenExpired, auth.CodeTokenInvalid:
		return http.StatusUnauthorized
	case auth.CodeRefreshExpired:
		return http.StatusForbidden
	case auth.CodeProfileNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // client may disconnect
	json.NewEncoder(w).Encode(v)
}

// writeError answers with the status of err's code and its public message.
// Server-side failures are logged with their full context.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(errutil.Code(err))
	if status >= http.StatusInternalServerError {
		errutil.LogErrorContext(r.Context(), logger, "request failed", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
	}
	writeJSON(w, status, messageResponse{Message: errutil.Public(err, MsgInternal)})
}
