// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

// Package aggregator holds today's per-user working sets in memory and folds
// every accepted live event into them.
//
// All mutation flows through Apply, which owns the recompute ordering: an
// event for a given user is validated, dedup-checked, and folded in, and the
// record's derived metrics are fully recomputed, before the next event for
// that user is handled. Different users proceed independently under their own
// locks; there is no cross-user coupling to protect.
package aggregator

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldtrace/fieldtrace/internal/clock"
	"github.com/fieldtrace/fieldtrace/internal/dedup"
	"github.com/fieldtrace/fieldtrace/internal/engine"
	"github.com/fieldtrace/fieldtrace/internal/metrics"
	"github.com/fieldtrace/fieldtrace/internal/models"
	"github.com/fieldtrace/fieldtrace/internal/validate"
)

type entry struct {
	mu     sync.Mutex
	record *models.DailyUserRecord
	guards *dedup.Guards
}

// Aggregator is the live aggregation path: one record per user for the
// current civil day, recomputed in full on every accepted event.
type Aggregator struct {
	mu      sync.RWMutex
	entries map[string]*entry
	day     string

	clk       clock.Clock
	loc       *time.Location
	params    engine.Params
	validator *validate.Validator
	logger    zerolog.Logger
}

// New creates a live aggregator. The current civil day is derived from the
// clock, never from stored state, so a process restart lands on the right
// day automatically.
func New(clk clock.Clock, loc *time.Location, params engine.Params, validator *validate.Validator, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		entries:   make(map[string]*entry),
		day:       models.CivilDay(clk.Now().UnixMilli(), loc),
		clk:       clk,
		loc:       loc,
		params:    params,
		validator: validator,
		logger:    logger.With().Str("component", "aggregator").Logger(),
	}
}

// Day returns the civil day the aggregator currently tracks.
func (a *Aggregator) Day() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.day
}

// Apply validates and folds one raw event into its user's record, then
// recomputes every derived metric. It returns true when the record changed.
//
// Rejected events are dropped with a warning (data hygiene, not failure);
// duplicates are skipped silently.
func (a *Aggregator) Apply(ev models.Event) bool {
	today := models.CivilDay(a.clk.Now().UnixMilli(), a.loc)
	a.ensureDay(today)

	if ok, reason := a.validator.Check(&ev, today); !ok {
		metrics.EventsRejected.WithLabelValues(reason).Inc()
		return false
	}

	e := a.entryFor(ev.UserID, ev.Username, today)

	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	changed := engine.ApplyEvent(e.record, e.guards, ev, a.params)
	if !changed {
		metrics.EventsDeduplicated.Inc()
		return false
	}
	engine.Recompute(e.record, a.params)
	metrics.RecomputeDuration.Observe(time.Since(start).Seconds())
	metrics.EventsAccepted.WithLabelValues(string(ev.Type)).Inc()

	return true
}

// Get returns a deep copy of one user's record for today, or false when the
// user has produced no accepted events since the last midnight roll. Absence
// is an ordinary outcome, not an error.
func (a *Aggregator) Get(userID string) (*models.DailyUserRecord, bool) {
	a.mu.RLock()
	e, ok := a.entries[userID]
	a.mu.RUnlock()
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.record.Clone(), true
}

// All returns deep copies of every live record, sorted by activity score
// descending with user id as the tiebreaker.
func (a *Aggregator) All() []*models.DailyUserRecord {
	a.mu.RLock()
	entries := make([]*entry, 0, len(a.entries))
	for _, e := range a.entries {
		entries = append(entries, e)
	}
	a.mu.RUnlock()

	records := make([]*models.DailyUserRecord, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		records = append(records, e.record.Clone())
		e.mu.Unlock()
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].ActivityScore != records[j].ActivityScore {
			return records[i].ActivityScore > records[j].ActivityScore
		}
		return records[i].UserID < records[j].UserID
	})
	return records
}

// Rollover discards every working set and starts tracking the given civil
// day. The day boundary scheduler calls this at local midnight; the records
// are gone for good, which is fine because the day log remains the durable
// source of truth.
func (a *Aggregator) Rollover(newDay string) {
	a.mu.Lock()
	dropped := len(a.entries)
	a.entries = make(map[string]*entry)
	a.day = newDay
	a.mu.Unlock()

	metrics.DayRollovers.Inc()
	metrics.LiveRecords.Set(0)
	a.logger.Info().
		Str("day", newDay).
		Int("dropped_records", dropped).
		Msg("Day boundary rollover")
}

// ensureDay performs a defensive inline rollover if an event arrives between
// local midnight and the scheduler's timer firing.
func (a *Aggregator) ensureDay(today string) {
	a.mu.RLock()
	current := a.day
	a.mu.RUnlock()
	if current != today {
		a.Rollover(today)
	}
}

func (a *Aggregator) entryFor(userID, username, day string) *entry {
	a.mu.Lock()
	defer a.mu.Unlock()

	if e, ok := a.entries[userID]; ok {
		return e
	}
	e := &entry{
		record: models.NewDailyUserRecord(userID, username, day),
		guards: dedup.NewGuards(),
	}
	a.entries[userID] = e
	metrics.LiveRecords.Set(float64(len(a.entries)))
	a.logger.Debug().
		Str("user_id", userID).
		Str("day", day).
		Msg("Record created")
	return e
}
