// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

package engine

import (
	"sort"

	"github.com/fieldtrace/fieldtrace/internal/models"
)

// SessionTimes derives idle and total session time from explicit
// session-update events, the markers the live app emits on every
// working/idle transition.
//
// The session clock starts at the first session update and ends at the later
// of the last session update and the last event of any kind, so time spent in
// the final state is attributed too. Returns ok=false when the event set
// carries no session updates at all, in which case the caller falls back to
// EstimateIdleFromGaps.
func SessionTimes(events []models.Event) (idleMillis, totalMillis int64, ok bool) {
	sorted := sortedByTimestamp(events)

	var (
		started   bool
		state     models.SessionState
		stateTS   int64
		lastTS    int64
		firstSeen int64
	)

	for _, ev := range sorted {
		if ev.Timestamp > lastTS {
			lastTS = ev.Timestamp
		}
		if ev.Type != models.EventTypeSession || ev.Session == nil {
			continue
		}
		if !started {
			started = true
			firstSeen = ev.Timestamp
			state = ev.Session.State
			stateTS = ev.Timestamp
			continue
		}
		if ev.Session.State == state {
			continue
		}
		if state == models.SessionIdle {
			idleMillis += ev.Timestamp - stateTS
		}
		state = ev.Session.State
		stateTS = ev.Timestamp
	}

	if !started {
		return 0, 0, false
	}

	// Attribute the tail spent in the final state.
	if lastTS > stateTS && state == models.SessionIdle {
		idleMillis += lastTS - stateTS
	}
	if lastTS > firstSeen {
		totalMillis = lastTS - firstSeen
	}
	return idleMillis, totalMillis, true
}

// EstimateIdleFromGaps approximates idle and total session time for day logs
// predating explicit session markers. Any gap between consecutive events
// longer than params.IdleGap is treated as idle; the session clock runs from
// the first to the last event.
func EstimateIdleFromGaps(events []models.Event, params Params) (idleMillis, totalMillis int64) {
	if len(events) < 2 {
		return 0, 0
	}

	sorted := sortedByTimestamp(events)
	idleGap := params.IdleGap.Milliseconds()
	totalMillis = sorted[len(sorted)-1].Timestamp - sorted[0].Timestamp

	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].Timestamp - sorted[i-1].Timestamp
		if gap > idleGap {
			idleMillis += gap
		}
	}
	return idleMillis, totalMillis
}

func sortedByTimestamp(events []models.Event) []models.Event {
	out := append([]models.Event(nil), events...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}
