// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package ratelimit_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioauth/bioauth/internal/ratelimit"
	"github.com/bioauth/bioauth/pkg/errutil"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestNewMemory_RejectsNonPositiveLimit(t *testing.T) {
	for _, limit := range []int{0, -1} {
		_, err := ratelimit.NewMemory(limit, time.Minute)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "RATELIMIT_INVALID_LIMIT")
	}
}

func TestMemory_AllowsUpToLimit(t *testing.T) {
	c := newClock()
	m, err := ratelimit.NewMemory(3, time.Minute, ratelimit.WithClock(c.Now))
	require.NoError(t, err)
	ctx := context.Background()

	for i := range 3 {
		d, err := m.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i+1)
		assert.Equal(t, 3, d.Limit)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := m.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.InDelta(t, float64(20*time.Second), float64(d.RetryAfter), float64(time.Millisecond))
}

func TestMemory_RefillsOverWindow(t *testing.T) {
	c := newClock()
	m, err := ratelimit.NewMemory(2, time.Minute, ratelimit.WithClock(c.Now))
	require.NoError(t, err)
	ctx := context.Background()

	for range 2 {
		_, _ = m.Allow(ctx, "k")
	}
	d, _ := m.Allow(ctx, "k")
	require.False(t, d.Allowed)

	c.Advance(31 * time.Second)
	d, err = m.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed, "one token refills every window/limit")

	d, _ = m.Allow(ctx, "k")
	assert.False(t, d.Allowed)
}

func TestMemory_RejectedRequestsDoNotConsume(t *testing.T) {
	c := newClock()
	m, err := ratelimit.NewMemory(1, time.Minute, ratelimit.WithClock(c.Now))
	require.NoError(t, err)
	ctx := context.Background()

	_, _ = m.Allow(ctx, "k")
	for range 5 {
		d, _ := m.Allow(ctx, "k")
		require.False(t, d.Allowed)
	}

	c.Advance(time.Minute + time.Second)
	d, _ := m.Allow(ctx, "k")
	assert.True(t, d.Allowed)
}

func TestMemory_KeysAreIndependent(t *testing.T) {
	c := newClock()
	m, err := ratelimit.NewMemory(1, time.Minute, ratelimit.WithClock(c.Now))
	require.NoError(t, err)
	ctx := context.Background()

	a, _ := m.Allow(ctx, "a")
	b, _ := m.Allow(ctx, "b")
	again, _ := m.Allow(ctx, "a")

	assert.True(t, a.Allowed)
	assert.True(t, b.Allowed)
	assert.False(t, again.Allowed)
	assert.Equal(t, 2, m.Len())
}

func TestMemory_SweepsIdleKeys(t *testing.T) {
	c := newClock()
	m, err := ratelimit.NewMemory(1, time.Minute, ratelimit.WithClock(c.Now))
	require.NoError(t, err)
	ctx := context.Background()

	for i := range 10000 {
		_, _ = m.Allow(ctx, strconv.Itoa(i))
	}
	require.Equal(t, 10000, m.Len())

	c.Advance(time.Minute)
	_, _ = m.Allow(ctx, "fresh")

	assert.Equal(t, 1, m.Len())
}

func TestMemory_ConcurrentCallersShareBudget(t *testing.T) {
	m, err := ratelimit.NewMemory(50, time.Hour)
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := m.Allow(context.Background(), "shared")
			if err == nil && d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}
