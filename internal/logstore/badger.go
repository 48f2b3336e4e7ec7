// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

// Package logstore persists the append-only event log on Badger. The log is
// the system's durable source of truth: live records are rebuilt from it by
// the batch reconstructor, so every accepted event is appended here before it
// reaches the live aggregator.
//
// Key scheme: log/<civil-day>/<user-id>/<event-id>. Prefix scans give one
// day, or one (day, user), in a single iteration; entries come back in no
// particular logical order, which is fine because reconstruction sorts by
// timestamp anyway.
package logstore

import (
	"context"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fieldtrace/fieldtrace/internal/models"
)

// Config holds store settings.
type Config struct {
	// Dir is the Badger data directory. Ignored when InMemory is set.
	Dir string

	// InMemory runs Badger without disk persistence, for tests and
	// ephemeral deployments.
	InMemory bool

	// Retention expires log entries after this duration via Badger TTLs.
	// Zero keeps entries forever.
	Retention time.Duration
}

// Store is a Badger-backed day log.
type Store struct {
	db        *badger.DB
	loc       *time.Location
	retention time.Duration
	logger    zerolog.Logger
}

// Open opens (or creates) the store.
func Open(cfg Config, loc *time.Location, logger zerolog.Logger) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Dir, err)
	}

	return &Store{
		db:        db,
		loc:       loc,
		retention: cfg.Retention,
		logger:    logger.With().Str("component", "logstore").Logger(),
	}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append persists one event under its civil day. Events without an ID get
// one assigned; the ID makes replayed appends idempotent at the storage
// layer (same key, same value).
func (s *Store) Append(_ context.Context, ev *models.Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	day := ev.CivilDay(s.loc)

	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.ID, err)
	}
	key := []byte(fmt.Sprintf("log/%s/%s/%s", day, ev.UserID, ev.ID))

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, value)
		if s.retention > 0 {
			entry = entry.WithTTL(s.retention)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("append event %s: %w", ev.ID, err)
	}
	return nil
}

// FetchDayLog returns every logged event for the civil day, optionally
// narrowed to one user. A day with no entries is an empty slice, not an
// error.
func (s *Store) FetchDayLog(_ context.Context, day, userID string) ([]models.Event, error) {
	prefix := []byte("log/" + day + "/")
	if userID != "" {
		prefix = []byte("log/" + day + "/" + userID + "/")
	}

	var events []models.Event
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var ev models.Event
				if err := json.Unmarshal(val, &ev); err != nil {
					// A corrupt entry must not sink the whole day.
					s.logger.Warn().
						Err(err).
						Str("key", string(it.Item().Key())).
						Msg("Skipping undecodable log entry")
					return nil
				}
				events = append(events, ev)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch day log %s: %w", day, err)
	}
	return events, nil
}

// RunGC triggers one value-log garbage collection pass. Badger requires the
// caller to drive GC; the server does this on a slow ticker.
func (s *Store) RunGC() {
	if err := s.db.RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
		s.logger.Debug().Err(err).Msg("Value log GC pass skipped")
	}
}
