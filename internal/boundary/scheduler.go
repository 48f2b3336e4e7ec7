// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

// Package boundary resets the live aggregator at local midnight. The
// scheduler recomputes "time until next midnight" from the wall clock after
// every fire and on startup, never from stored timer state, so it stays
// correct across process restarts and clock adjustments.
package boundary

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldtrace/fieldtrace/internal/clock"
	"github.com/fieldtrace/fieldtrace/internal/models"
)

// Roller is the aggregator-side hook the scheduler drives.
type Roller interface {
	Rollover(newDay string)
}

// Scheduler fires once per local midnight in the reference timezone.
type Scheduler struct {
	clk    clock.Clock
	loc    *time.Location
	roller Roller
	logger zerolog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a day boundary scheduler.
func New(clk clock.Clock, loc *time.Location, roller Roller, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		clk:    clk,
		loc:    loc,
		roller: roller,
		logger: logger.With().Str("component", "day-boundary").Logger(),
	}
}

// Start begins the midnight loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("day boundary scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.loop()
	return nil
}

// Stop terminates the loop and waits for it to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	doneCh := s.doneCh
	s.mu.Unlock()

	<-doneCh
	return nil
}

func (s *Scheduler) loop() {
	defer close(s.doneCh)

	for {
		wait := UntilNextMidnight(s.clk.Now(), s.loc)
		timer := s.clk.NewTimer(wait)
		s.logger.Debug().
			Dur("wait", wait).
			Msg("Midnight timer armed")

		select {
		case <-timer.C():
			// The new day comes from the wall clock at fire time, not
			// from any precomputed value; a late or early fire still
			// lands on the right civil day.
			newDay := models.CivilDay(s.clk.Now().UnixMilli(), s.loc)
			s.roller.Rollover(newDay)
		case <-s.stopCh:
			timer.Stop()
			return
		}
	}
}

// UntilNextMidnight returns the duration from now to the next local midnight
// in loc. Computed via calendar arithmetic so DST transitions come out right.
func UntilNextMidnight(now time.Time, loc *time.Location) time.Duration {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	d := next.Sub(local)
	if d <= 0 {
		// Degenerate DST edge; retry shortly rather than spinning.
		d = time.Minute
	}
	return d
}
