// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package auth

import (
	"context"
	"runtime"
	"time"

	"github.com/samber/oops"
	"golang.org/x/sync/semaphore"
)

// Recorder receives flow outcomes and hashing latencies.
// observability.Metrics implements it.
type Recorder interface {
	RecordFlow(flow, outcome string)
	ObserveHash(op string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordFlow(string, string)           {}
func (nopRecorder) ObserveHash(string, time.Duration) {}

// HashLimiter bounds how many hash computations run at once. Callers beyond
// the limit wait for a slot or give up when their context ends.
type HashLimiter struct {
	hasher   SecretHasher
	sem      *semaphore.Weighted
	recorder Recorder
}

// NewHashLimiter wraps hasher. A non-positive concurrency selects GOMAXPROCS.
func NewHashLimiter(hasher SecretHasher, concurrency int, recorder Recorder) *HashLimiter {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &HashLimiter{
		hasher:   hasher,
		sem:      semaphore.NewWeighted(int64(concurrency)),
		recorder: recorder,
	}
}

// Hash hashes plaintext once a slot is free.
func (l *HashLimiter) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return "", oops.Code("AUTH_HASH_CANCELLED").Wrap(err)
	}
	defer l.sem.Release(1)

	start := time.Now()
	hash, err := l.hasher.Hash(plaintext)
	l.recorder.ObserveHash("hash", time.Since(start))
	return hash, err
}

// Verify compares plaintext and hash once a slot is free. The error is
// non-nil only when ctx ends first.
func (l *HashLimiter) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return false, oops.Code("AUTH_HASH_CANCELLED").Wrap(err)
	}
	defer l.sem.Release(1)

	start := time.Now()
	ok := l.hasher.Verify(plaintext, hash)
	l.recorder.ObserveHash("verify", time.Since(start))
	return ok, nil
}
