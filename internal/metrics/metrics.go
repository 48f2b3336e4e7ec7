// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

// Package metrics exposes Prometheus instrumentation for the aggregation
// paths, the reconstruction cache, and the HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Live aggregation path
	EventsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldtrace_events_accepted_total",
			Help: "Total accepted events by type",
		},
		[]string{"type"},
	)

	EventsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldtrace_events_rejected_total",
			Help: "Total rejected events by reason",
		},
		[]string{"reason"},
	)

	EventsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fieldtrace_events_deduplicated_total",
			Help: "Total events skipped by the dedup guards",
		},
	)

	RecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fieldtrace_recompute_duration_seconds",
			Help:    "Duration of full per-record metric recomputes",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	LiveRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fieldtrace_live_records",
			Help: "Current number of live per-user day records",
		},
	)

	DayRollovers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fieldtrace_day_rollovers_total",
			Help: "Total midnight boundary resets",
		},
	)

	// Batch reconstruction path
	ReconstructionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fieldtrace_reconstruction_duration_seconds",
			Help:    "Duration of full-day batch reconstructions",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
	)

	ReconstructionCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fieldtrace_reconstruction_cache_hits_total",
			Help: "Reconstruction cache hits",
		},
	)

	ReconstructionCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fieldtrace_reconstruction_cache_misses_total",
			Help: "Reconstruction cache misses",
		},
	)

	LogFetchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fieldtrace_log_fetch_failures_total",
			Help: "Day-log fetch failures, including open-breaker rejections",
		},
	)

	LogAppendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fieldtrace_log_append_failures_total",
			Help: "Day-log append failures during ingestion",
		},
	)

	// HTTP surface
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldtrace_api_requests_total",
			Help: "Total API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fieldtrace_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)
)
