// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

// Command server runs the Fieldtrace engine: it ingests field events,
// maintains live per-agent daily records, serves them over HTTP, and
// reconstructs past days from the persisted event log on demand.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fieldtrace/fieldtrace/internal/aggregator"
	"github.com/fieldtrace/fieldtrace/internal/api"
	"github.com/fieldtrace/fieldtrace/internal/boundary"
	"github.com/fieldtrace/fieldtrace/internal/clock"
	"github.com/fieldtrace/fieldtrace/internal/config"
	"github.com/fieldtrace/fieldtrace/internal/ingest"
	"github.com/fieldtrace/fieldtrace/internal/logging"
	"github.com/fieldtrace/fieldtrace/internal/logstore"
	"github.com/fieldtrace/fieldtrace/internal/reconstruct"
	"github.com/fieldtrace/fieldtrace/internal/supervisor"
	"github.com/fieldtrace/fieldtrace/internal/supervisor/services"
	"github.com/fieldtrace/fieldtrace/internal/validate"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(cfg.LoggingConfig())
	logger := logging.Logger()
	logger.Info().Str("timezone", cfg.Timezone).Msg("Starting Fieldtrace")

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	params := cfg.EngineParams()

	store, err := logstore.Open(cfg.LogstoreConfig(), loc, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Closing day log store failed")
		}
	}()

	validator := validate.New(loc, cfg.Engine.HousekeepingKinds, logger)

	agg := aggregator.New(clock.System(), loc, params, validator, logger)

	recon := reconstruct.New(store, loc, params, validator, cfg.ReconstructConfig(), logger)
	defer recon.Close()

	pipeline, err := ingest.New(cfg.IngestConfig(), store, agg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			logger.Error().Err(err).Msg("Closing event pipeline failed")
		}
	}()

	scheduler := boundary.New(clock.System(), loc, agg, logger)
	server := api.New(cfg.ServerConfig(), agg, recon, pipeline, logger)

	tree := supervisor.NewTree(logging.NewSlogLogger(logger), supervisor.DefaultTreeConfig())
	tree.AddIngestService(services.NewRunnerService("event-pipeline", pipeline))
	tree.AddIngestService(services.NewRolloverService(scheduler))
	tree.AddIngestService(services.NewGCService(store, cfg.Logstore.GCInterval))
	tree.AddAPIService(services.NewRunnerService("api-server", server))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info().Msg("Shutdown complete")
	return nil
}
