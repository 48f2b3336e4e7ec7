// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/fieldtrace/fieldtrace/internal/metrics"
)

// metricsMiddleware records request counts and latency per route pattern.
// The chi route pattern keeps label cardinality bounded; raw paths with
// user ids would explode it.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}

		metrics.APIRequestsTotal.WithLabelValues(
			r.Method, pattern, strconv.Itoa(ww.Status()),
		).Inc()
		metrics.APIRequestDuration.WithLabelValues(
			r.Method, pattern,
		).Observe(time.Since(start).Seconds())
	})
}
