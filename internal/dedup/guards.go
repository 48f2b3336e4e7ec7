// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

// Package dedup provides the per-user guard sets that keep repeated delivery
// of the same events (multiple sync attempts, full-day replays) from double
// counting anything. Guard lifecycle is tied to the owning DailyUserRecord's
// day: the live aggregator discards guards at the midnight roll, the batch
// reconstructor builds fresh guards for every reconstruction.
package dedup

import (
	"fmt"

	"github.com/fieldtrace/fieldtrace/internal/models"
)

// Guards holds the dedup state for one (user, civil day).
//
// Guards are not safe for concurrent use on their own; the owning record's
// per-key serialization covers them.
type Guards struct {
	actionStamps map[int64]struct{}
	photoHashes  map[string]struct{}
	eventMarks   map[string]struct{}
}

// NewGuards returns empty guard sets.
func NewGuards() *Guards {
	return &Guards{
		actionStamps: make(map[int64]struct{}),
		photoHashes:  make(map[string]struct{}),
		eventMarks:   make(map[string]struct{}),
	}
}

// MarkAction records an action occurrence timestamp. It returns true the
// first time the timestamp is seen and false on every repeat.
func (g *Guards) MarkAction(occurredAt int64) bool {
	if _, seen := g.actionStamps[occurredAt]; seen {
		return false
	}
	g.actionStamps[occurredAt] = struct{}{}
	return true
}

// MarkPhoto records a photo content hash. It returns true the first time the
// hash is seen and false on every repeat.
func (g *Guards) MarkPhoto(contentHash string) bool {
	if _, seen := g.photoHashes[contentHash]; seen {
		return false
	}
	g.photoHashes[contentHash] = struct{}{}
	return true
}

// MarkEvent records a (type, timestamp, identity) triple for the event kinds
// that carry no dedicated guard of their own (fixes, session updates, device
// status). Replayed copies of those events would otherwise pile up in the
// record's collections and break replay idempotency. Returns true on first
// sight.
//
// The identity string is derived from the payload by the caller. Timestamp
// alone is not enough: two genuinely distinct readings can share a
// millisecond (a native and an external fix from independent sources), and
// dropping either one would make the record depend on arrival order.
func (g *Guards) MarkEvent(eventType models.EventType, timestamp int64, identity string) bool {
	key := fmt.Sprintf("%s/%d/%s", eventType, timestamp, identity)
	if _, seen := g.eventMarks[key]; seen {
		return false
	}
	g.eventMarks[key] = struct{}{}
	return true
}

// Reset drops all guard state, for reuse across a day boundary.
func (g *Guards) Reset() {
	g.actionStamps = make(map[int64]struct{})
	g.photoHashes = make(map[string]struct{})
	g.eventMarks = make(map[string]struct{})
}
