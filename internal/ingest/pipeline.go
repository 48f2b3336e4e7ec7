// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

// Package ingest moves incoming field events through an in-process
// pub/sub pipeline: callers publish raw events, a router handler
// persists each event to the day log and applies it to the live
// aggregator. Decoupling submission from processing keeps HTTP
// handlers fast and gives ordering per subscriber.
package ingest

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fieldtrace/fieldtrace/internal/metrics"
	"github.com/fieldtrace/fieldtrace/internal/models"
)

// TopicRawEvents carries freshly submitted events before validation.
const TopicRawEvents = "fieldtrace.events.raw"

const handlerName = "event-processor"

// EventLog persists events for later batch reconstruction.
type EventLog interface {
	Append(ctx context.Context, ev *models.Event) error
}

// Applier folds events into live per-user daily records.
type Applier interface {
	Apply(ev models.Event) bool
}

// Config tunes the in-process pub/sub channel.
type Config struct {
	// BufferSize is the output channel buffer of the in-memory broker.
	BufferSize int64
}

// DefaultConfig returns pipeline defaults suitable for a single node.
func DefaultConfig() Config {
	return Config{BufferSize: 256}
}

// Pipeline wires event submission to log persistence and live aggregation.
type Pipeline struct {
	pubsub *gochannel.GoChannel
	router *message.Router
	log    EventLog
	agg    Applier
	logger zerolog.Logger
}

// New builds the pipeline and registers its processing handler. Call Run
// to start consuming.
func New(cfg Config, log EventLog, agg Applier, logger zerolog.Logger) (*Pipeline, error) {
	wmLogger := newWatermillLogger(logger.With().Str("component", "ingest").Logger())

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
	}, wmLogger)

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("creating router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)

	p := &Pipeline{
		pubsub: pubsub,
		router: router,
		log:    log,
		agg:    agg,
		logger: logger,
	}

	router.AddNoPublisherHandler(handlerName, TopicRawEvents, pubsub, p.process)

	return p, nil
}

// SubmitEvent publishes an event onto the raw topic. A missing event ID is
// assigned here so the persisted log and the live path agree on identity.
func (p *Pipeline) SubmitEvent(ev models.Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.pubsub.Publish(TopicRawEvents, msg); err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}
	return nil
}

// process is the single consumer: append to the day log first, then fold
// into the live aggregator. Undecodable payloads are acked and dropped;
// they can never succeed on redelivery.
func (p *Pipeline) process(msg *message.Message) error {
	var ev models.Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		p.logger.Warn().
			Err(err).
			Str("message_id", msg.UUID).
			Msg("Dropping undecodable event payload")
		return nil
	}

	if err := p.log.Append(msg.Context(), &ev); err != nil {
		metrics.LogAppendFailures.Inc()
		return fmt.Errorf("appending event %s to log: %w", ev.ID, err)
	}

	p.agg.Apply(ev)
	return nil
}

// Run starts the router and blocks until the context is canceled or the
// router fails. It is shaped for supervision.
func (p *Pipeline) Run(ctx context.Context) error {
	return p.router.Run(ctx)
}

// Running returns a channel closed once the router is consuming. Tests
// use it to avoid publishing into the void.
func (p *Pipeline) Running() chan struct{} {
	return p.router.Running()
}

// Close tears down the router and the in-memory broker.
func (p *Pipeline) Close() error {
	if err := p.router.Close(); err != nil {
		return fmt.Errorf("closing router: %w", err)
	}
	return p.pubsub.Close()
}
