// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 BioAuth Contributors

// Package observability provides prometheus metrics and the HTTP endpoints
// that expose them alongside health probes.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// NewRegistry returns a registry carrying the Go runtime and process
// collectors. A private registry keeps tests from colliding on the global one.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Metrics holds the BioAuth application metrics. It implements auth.Recorder.
type Metrics struct {
	FlowsTotal        *prometheus.CounterVec
	HashDuration      *prometheus.HistogramVec
	HTTPRequestsTotal *prometheus.CounterVec
	RateLimitedTotal  prometheus.Counter
}

// NewMetrics creates the application metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FlowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bioauth_auth_flows_total",
				Help: "Authentication flows by flow and outcome",
			},
			[]string{"flow", "outcome"},
		),
		HashDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bioauth_hash_duration_seconds",
				Help:    "Time spent computing or verifying secret hashes",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"op"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bioauth_http_requests_total",
				Help: "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bioauth_rate_limited_total",
				Help: "Requests rejected by the rate limiter",
			},
		),
	}

	reg.MustRegister(m.FlowsTotal, m.HashDuration, m.HTTPRequestsTotal, m.RateLimitedTotal)
	return m
}

// RecordFlow counts one completed authentication flow.
func (m *Metrics) RecordFlow(flow, outcome string) {
	m.FlowsTotal.WithLabelValues(flow, outcome).Inc()
}

// ObserveHash records the latency of one hash or verify call.
func (m *Metrics) ObserveHash(op string, d time.Duration) {
	m.HashDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordRequest counts one served HTTP request.
func (m *Metrics) RecordRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// RecordRateLimited counts one rejected request.
func (m *Metrics) RecordRateLimited() {
	m.RateLimitedTotal.Inc()
}
