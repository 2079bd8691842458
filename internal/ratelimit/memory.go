// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// sweepThreshold is the number of tracked keys that triggers pruning of idle
// buckets on the next Allow.
const sweepThreshold = 10000

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Memory is a per-key token bucket refilling limit tokens per window.
type Memory struct {
	limit  int
	window time.Duration
	every  rate.Limit
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// MemoryOption configures a Memory limiter.
type MemoryOption func(*Memory)

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

// NewMemory creates a limiter allowing limit requests per window for each
// key. A non-positive window selects DefaultWindow.
func NewMemory(limit int, window time.Duration, opts ...MemoryOption) (*Memory, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	if window <= 0 {
		window = DefaultWindow
	}
	m := &Memory{
		limit:   limit,
		window:  window,
		every:   rate.Every(window / time.Duration(limit)),
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Allow takes one token from key's bucket.
func (m *Memory) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.buckets) >= sweepThreshold {
		m.sweep(now)
	}
	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(m.every, m.limit)}
		m.buckets[key] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Decision{Allowed: false, Limit: m.limit, Remaining: 0, RetryAfter: delay}, nil
	}
	remaining := int(b.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Limit: m.limit, Remaining: remaining}, nil
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

// sweep drops buckets idle for a full window; they would be full again.
func (m *Memory) sweep(now time.Time) {
	for key, b := range m.buckets {
		if now.Sub(b.lastSeen) >= m.window {
			delete(m.buckets, key)
		}
	}
}
