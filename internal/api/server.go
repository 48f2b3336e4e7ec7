// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

// Package api exposes the read and ingestion surface over HTTP: live
// daily records, event submission, and on-demand day reconstructions.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/fieldtrace/fieldtrace/internal/models"
	"github.com/fieldtrace/fieldtrace/internal/reconstruct"
)

// RecordSource serves live per-user daily records.
type RecordSource interface {
	All() []*models.DailyUserRecord
	Get(userID string) (*models.DailyUserRecord, bool)
	Day() string
}

// DayReconstructor rebuilds historical days from the persisted log.
type DayReconstructor interface {
	Reconstruct(ctx context.Context, day, userID string) (*reconstruct.Result, error)
	Evict(day, userID string)
}

// EventSink accepts events for asynchronous processing.
type EventSink interface {
	SubmitEvent(ev models.Event) error
}

// Config holds HTTP server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// RateLimit is the per-client request budget per RateWindow for the
	// event submission endpoint. Zero disables limiting.
	RateLimit int

	// RateWindow is the rate limiting window.
	RateWindow time.Duration

	// RequestTimeout bounds a single request end to end.
	RequestTimeout time.Duration
}

// DefaultConfig returns server defaults.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		RateLimit:      120,
		RateWindow:     time.Minute,
		RequestTimeout: 30 * time.Second,
	}
}

// Server is the HTTP front of the engine.
type Server struct {
	cfg     Config
	router  chi.Router
	records RecordSource
	recon   DayReconstructor
	sink    EventSink
	logger  zerolog.Logger
}

// New assembles the router. The server does not listen until Run.
func New(cfg Config, records RecordSource, recon DayReconstructor, sink EventSink, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		records: records,
		recon:   recon,
		sink:    sink,
		logger:  logger.With().Str("component", "api").Logger(),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(metricsMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/records", s.handleListRecords)
		r.Get("/records/{userID}", s.handleGetRecord)

		r.Group(func(r chi.Router) {
			if cfg.RateLimit > 0 {
				r.Use(httprate.LimitByIP(cfg.RateLimit, cfg.RateWindow))
			}
			r.Post("/events", s.handleSubmitEvent)
		})

		r.Get("/reconstructions/{date}", s.handleReconstruct)
		r.Delete("/reconstructions/{date}", s.handleEvictReconstruction)
	})

	s.router = r
	return s
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves until the context is canceled, then drains in-flight
// requests. It is shaped for supervision.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down HTTP server: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server failed: %w", err)
	}
}
