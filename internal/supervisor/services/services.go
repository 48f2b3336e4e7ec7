// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

// Package services adapts component lifecycles to suture's Serve pattern.
package services

import (
	"context"
	"fmt"
	"time"
)

// Runner is anything that blocks in Run until its context is canceled.
// Satisfied by the ingest pipeline and the HTTP server.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerService wraps a Runner as a supervised service.
type RunnerService struct {
	runner Runner
	name   string
}

// NewRunnerService names and wraps a Runner for the tree.
func NewRunnerService(name string, runner Runner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	if err := s.runner.Run(ctx); err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	return ctx.Err()
}

// String identifies the service in supervisor logs.
func (s *RunnerService) String() string {
	return s.name
}

// RolloverScheduler matches the day boundary scheduler's lifecycle.
type RolloverScheduler interface {
	Start() error
	Stop() error
}

// RolloverService adapts the scheduler's Start/Stop pair to Serve:
// start the internal loop, block until shutdown, stop it.
type RolloverService struct {
	scheduler RolloverScheduler
}

// NewRolloverService wraps the midnight rollover scheduler.
func NewRolloverService(scheduler RolloverScheduler) *RolloverService {
	return &RolloverService{scheduler: scheduler}
}

// Serve implements suture.Service. A Start failure is returned
// immediately so suture applies its backoff policy.
func (s *RolloverService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(); err != nil {
		return fmt.Errorf("rollover scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.scheduler.Stop(); err != nil {
		return fmt.Errorf("rollover scheduler stop failed: %w", err)
	}
	return ctx.Err()
}

// String identifies the service in supervisor logs.
func (s *RolloverService) String() string {
	return "rollover-scheduler"
}

// Collector matches the day log store's value-log garbage collection.
type Collector interface {
	RunGC()
}

// GCService runs the log store's garbage collection on a fixed interval.
type GCService struct {
	store    Collector
	interval time.Duration
}

// NewGCService wraps periodic log store maintenance.
func NewGCService(store Collector, interval time.Duration) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GCService{store: store, interval: interval}
}

// Serve implements suture.Service.
func (s *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.store.RunGC()
		}
	}
}

// String identifies the service in supervisor logs.
func (s *GCService) String() string {
	return "logstore-gc"
}
