// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	err error
}

func (r *fakeRunner) Run(ctx context.Context) error {
	if r.err != nil {
		return r.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunnerService(t *testing.T) {
	t.Run("returns context error on cancellation", func(t *testing.T) {
		svc := NewRunnerService("event-pipeline", &fakeRunner{})
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("service did not stop")
		}
	})

	t.Run("wraps runner failure with service name", func(t *testing.T) {
		svc := NewRunnerService("event-pipeline", &fakeRunner{err: errors.New("broker closed")})
		err := svc.Serve(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "event-pipeline")
		assert.Contains(t, err.Error(), "broker closed")
	})

	assert.Equal(t, "api-server", NewRunnerService("api-server", &fakeRunner{}).String())
}

type fakeScheduler struct {
	startErr error
	stopped  atomic.Bool
}

func (s *fakeScheduler) Start() error { return s.startErr }
func (s *fakeScheduler) Stop() error {
	s.stopped.Store(true)
	return nil
}

func TestRolloverService(t *testing.T) {
	t.Run("start failure surfaces immediately", func(t *testing.T) {
		sched := &fakeScheduler{startErr: errors.New("already running")}
		err := NewRolloverService(sched).Serve(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already running")
	})

	t.Run("stops scheduler on cancellation", func(t *testing.T) {
		sched := &fakeScheduler{}
		svc := NewRolloverService(sched)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("service did not stop")
		}
		assert.True(t, sched.stopped.Load())
	})
}

type countingCollector struct {
	runs atomic.Int64
}

func (c *countingCollector) RunGC() { c.runs.Add(1) }

func TestGCService_RunsOnInterval(t *testing.T) {
	collector := &countingCollector{}
	svc := NewGCService(collector, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, collector.runs.Load(), int64(0))
}
