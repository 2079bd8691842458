// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

// Package ratelimit limits requests per client key over a one-minute window.
// Memory keeps a token bucket per key in process; Redis shares a fixed
// window counter between replicas.
package ratelimit

import (
	"context"
	"time"

	"github.com/samber/oops"
)

// DefaultWindow is the period requests are counted over.
const DefaultWindow = time.Minute

// Decision is the result of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits or rejects one request for key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

func validateLimit(limit int) error {
	if limit <= 0 {
		return oops.Code("RATELIMIT_INVALID_LIMIT").With("limit", limit).Errorf("limit must be positive")
	}
	return nil
}
