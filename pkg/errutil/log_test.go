// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package errutil_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioauth/bioauth/pkg/errutil"
)

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("TEST_ERROR").
		With("key", "value").
		Errorf("something failed")

	errutil.LogError(logger, "operation failed", err, "flow", "login")

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Equal(t, "operation failed", logEntry["msg"])
	assert.Equal(t, "TEST_ERROR", logEntry["code"])
	assert.Equal(t, "login", logEntry["flow"])
}

func TestLogErrorContext_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogErrorContext(context.Background(), logger, "operation failed", errors.New("standard error"))

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Contains(t, logEntry["error"], "standard error")
	assert.NotContains(t, logEntry, "code")
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "oops code", err: oops.Code("A_CODE").Errorf("x"), want: "A_CODE"},
		{name: "no code", err: oops.Errorf("x"), want: ""},
		{name: "plain error", err: errors.New("x"), want: ""},
		{name: "nil", err: nil, want: ""},
		{name: "deepest code wins", err: oops.Code("OUTER").Wrap(oops.Code("INNER").Errorf("x")), want: "INNER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errutil.Code(tt.err))
		})
	}
}

func TestPublic(t *testing.T) {
	err := oops.Code("X").Public("Invalid credentials").Errorf("internal detail")
	assert.Equal(t, "Invalid credentials", errutil.Public(err, "fallback"))
	assert.Equal(t, "fallback", errutil.Public(errors.New("internal detail"), "fallback"))
}

func TestContext(t *testing.T) {
	assert.Nil(t, errutil.Context(errors.New("plain")))

	err := oops.With("username", "alice").With("attempts", 3).Errorf("failed")
	ctx := errutil.Context(err)
	assert.Equal(t, "alice", ctx["username"])
	assert.Equal(t, 3, ctx["attempts"])
}
