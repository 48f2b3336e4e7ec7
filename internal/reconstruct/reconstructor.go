// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

// Package reconstruct rebuilds any past civil day from the persisted event
// log, replaying it through the exact same validator, dedup guards, and
// metrics engine the live path uses. The replay differs from live only in
// how the snapshot is assembled; everything downstream of "events are known"
// is shared, which is what keeps historical reports in lockstep with what
// the live dashboard showed at the time.
package reconstruct

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/fieldtrace/fieldtrace/internal/cache"
	"github.com/fieldtrace/fieldtrace/internal/dedup"
	"github.com/fieldtrace/fieldtrace/internal/engine"
	"github.com/fieldtrace/fieldtrace/internal/metrics"
	"github.com/fieldtrace/fieldtrace/internal/models"
	"github.com/fieldtrace/fieldtrace/internal/validate"
)

// LogStore is the persistence collaborator the reconstructor reads from.
// userID narrows the fetch to one user; empty fetches the whole day. An
// empty day yields an empty slice and no error; absence of data is a
// legitimate outcome, distinct from a fetch failure.
type LogStore interface {
	FetchDayLog(ctx context.Context, day, userID string) ([]models.Event, error)
}

// Result is one finished reconstruction: every record rebuilt for the
// requested (day, user) key, sorted by activity score descending.
type Result struct {
	Day     string                    `json:"day"`
	UserID  string                    `json:"user_id,omitempty"`
	Records []*models.DailyUserRecord `json:"records"`
}

// clone deep-copies the result so the cached canonical stays isolated from
// whatever a caller does with its records.
func (res *Result) clone() *Result {
	out := &Result{
		Day:     res.Day,
		UserID:  res.UserID,
		Records: make([]*models.DailyUserRecord, len(res.Records)),
	}
	for i, rec := range res.Records {
		out.Records[i] = rec.Clone()
	}
	return out
}

// Reconstructor replays persisted day logs into ephemeral records. Results
// are cached briefly and evicted on request; concurrent reconstructions for
// the same key are coalesced onto one replay.
type Reconstructor struct {
	store     LogStore
	breaker   *gobreaker.CircuitBreaker[[]models.Event]
	cache     *cache.Cache
	params    engine.Params
	loc       *time.Location
	validator *validate.Validator
	logger    zerolog.Logger

	mu       sync.Mutex
	inflight map[string]*inflightCall
}

type inflightCall struct {
	done   chan struct{}
	result *Result
	err    error
}

// Config holds reconstructor tuning.
type Config struct {
	// CacheTTL bounds how long a finished reconstruction stays around.
	CacheTTL time.Duration

	// BreakerFailureThreshold is the consecutive fetch failures that open
	// the circuit.
	BreakerFailureThreshold uint32

	// BreakerTimeout is how long the circuit stays open before probing.
	BreakerTimeout time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL:                5 * time.Minute,
		BreakerFailureThreshold: 5,
		BreakerTimeout:          30 * time.Second,
	}
}

// New creates a reconstructor over the given log store.
func New(store LogStore, loc *time.Location, params engine.Params, validator *validate.Validator, cfg Config, logger zerolog.Logger) *Reconstructor {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.BreakerFailureThreshold == 0 {
		cfg.BreakerFailureThreshold = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[[]models.Event](gobreaker.Settings{
		Name:    "day-log-fetch",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
	})

	return &Reconstructor{
		store:     store,
		breaker:   breaker,
		cache:     cache.New(cfg.CacheTTL),
		params:    params,
		loc:       loc,
		validator: validator,
		logger:    logger.With().Str("component", "reconstructor").Logger(),
		inflight:  make(map[string]*inflightCall),
	}
}

// Reconstruct rebuilds the given civil day, optionally narrowed to one user.
// Every caller gets its own deep copy of the records; the cached canonical
// result is never handed out, so a caller mutating its copy cannot corrupt
// what later callers see. Duplicate concurrent calls for the same key share
// one replay. A log-store failure (including an open breaker) is a hard
// error, historical data cannot be fabricated.
func (r *Reconstructor) Reconstruct(ctx context.Context, day, userID string) (*Result, error) {
	key := cacheKey(day, userID)

	if cached, ok := r.cache.Get(key); ok {
		metrics.ReconstructionCacheHits.Inc()
		return cached.(*Result).clone(), nil
	}
	metrics.ReconstructionCacheMisses.Inc()

	r.mu.Lock()
	if call, ok := r.inflight[key]; ok {
		r.mu.Unlock()
		select {
		case <-call.done:
			if call.err != nil {
				return nil, call.err
			}
			return call.result.clone(), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &inflightCall{done: make(chan struct{})}
	r.inflight[key] = call
	r.mu.Unlock()

	call.result, call.err = r.rebuild(ctx, day, userID)
	close(call.done)

	r.mu.Lock()
	delete(r.inflight, key)
	r.mu.Unlock()

	if call.err != nil {
		return nil, call.err
	}
	r.cache.Set(key, call.result)
	return call.result.clone(), nil
}

// Evict releases the cached reconstruction for a (day, user) key.
func (r *Reconstructor) Evict(day, userID string) {
	r.cache.Delete(cacheKey(day, userID))
}

// Close releases the cache's background resources.
func (r *Reconstructor) Close() {
	r.cache.Close()
}

func (r *Reconstructor) rebuild(ctx context.Context, day, userID string) (*Result, error) {
	start := time.Now()

	entries, err := r.breaker.Execute(func() ([]models.Event, error) {
		return r.store.FetchDayLog(ctx, day, userID)
	})
	if err != nil {
		metrics.LogFetchFailures.Inc()
		return nil, fmt.Errorf("fetch day log %s: %w", day, err)
	}

	// The log arrives unordered; replay order must be timestamp order.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp < entries[j].Timestamp
	})

	type working struct {
		record *models.DailyUserRecord
		guards *dedup.Guards
	}
	users := make(map[string]*working)

	for _, ev := range entries {
		if ok, _ := r.validator.Check(&ev, day); !ok {
			continue
		}
		w, ok := users[ev.UserID]
		if !ok {
			w = &working{
				record: models.NewDailyUserRecord(ev.UserID, ev.Username, day),
				guards: dedup.NewGuards(),
			}
			users[ev.UserID] = w
		}
		engine.ApplyEvent(w.record, w.guards, ev, r.params)
	}

	records := make([]*models.DailyUserRecord, 0, len(users))
	for _, w := range users {
		engine.Recompute(w.record, r.params)
		records = append(records, w.record)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].ActivityScore != records[j].ActivityScore {
			return records[i].ActivityScore > records[j].ActivityScore
		}
		return records[i].UserID < records[j].UserID
	})

	metrics.ReconstructionDuration.Observe(time.Since(start).Seconds())
	r.logger.Info().
		Str("day", day).
		Str("user_id", userID).
		Int("entries", len(entries)).
		Int("records", len(records)).
		Msg("Day reconstructed")

	return &Result{Day: day, UserID: userID, Records: records}, nil
}

func cacheKey(day, userID string) string {
	if userID == "" {
		return day
	}
	return day + "/" + userID
}
