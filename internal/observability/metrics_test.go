// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioauth/bioauth/internal/auth"
)

var _ auth.Recorder = (*Metrics)(nil)

func TestMetrics_RecordFlow(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordFlow(auth.FlowLogin, "success")
	m.RecordFlow(auth.FlowLogin, "success")
	m.RecordFlow(auth.FlowLogin, "invalid_credentials")

	assert.InDelta(t, 2, testutil.ToFloat64(m.FlowsTotal.WithLabelValues("login", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FlowsTotal.WithLabelValues("login", "invalid_credentials")), 0)
}

func TestMetrics_ObserveHash(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveHash("hash", 20*time.Millisecond)
	m.ObserveHash("verify", 3*time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(m.HashDuration))
}

func TestMetrics_RecordRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordRequest("POST", "/login", 200)
	m.RecordRequest("GET", "", 404)

	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/login", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")), 0)
}

func TestMetrics_RecordRateLimited(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordRateLimited()

	assert.InDelta(t, 1, testutil.ToFloat64(m.RateLimitedTotal), 0)
}

func TestNewMetrics_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)

	assert.Panics(t, func() { NewMetrics(reg) })
}

func TestNewRegistry_IncludesRuntimeCollectors(t *testing.T) {
	families, err := NewRegistry().Gather()
	require.NoError(t, err)

	var goMetrics, processMetrics bool
	for _, f := range families {
		switch {
		case len(f.GetName()) > 3 && f.GetName()[:3] == "go_":
			goMetrics = true
		case len(f.GetName()) > 8 && f.GetName()[:8] == "process_":
			processMetrics = true
		}
	}
	assert.True(t, goMetrics, "expected go_* metrics")
	assert.True(t, processMetrics, "expected process_* metrics")
}

func TestReadiness(t *testing.T) {
	var r Readiness
	var seen []bool
	r.OnChange(func(ready bool) { seen = append(seen, ready) })

	assert.False(t, r.Ready())
	r.Set(true)
	r.Set(true)
	assert.True(t, r.Ready())
	r.Set(false)

	assert.Equal(t, []bool{false, true, false}, seen)
}
