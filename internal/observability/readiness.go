// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package observability

import "sync"

// ReadinessChecker returns whether the service is ready to accept requests.
type ReadinessChecker func() bool

// Readiness is a settable readiness flag shared by the probe endpoints and
// the control health service.
type Readiness struct {
	mu       sync.Mutex
	ready    bool
	watchers []func(bool)
}

// Set updates the flag and notifies watchers when it changes.
func (r *Readiness) Set(ready bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready == ready {
		return
	}
	r.ready = ready
	for _, fn := range r.watchers {
		fn(ready)
	}
}

// Ready reports the current state.
func (r *Readiness) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// OnChange registers fn to run on every transition. fn is called with the
// current state before OnChange returns and must not call back into r.
func (r *Readiness) OnChange(fn func(bool)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers = append(r.watchers, fn)
	fn(r.ready)
}
