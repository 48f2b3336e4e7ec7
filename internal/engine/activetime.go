// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

package engine

import (
	"sort"

	"github.com/fieldtrace/fieldtrace/internal/models"
)

// Period is a half-timeline span during which the user was actively working,
// bounded by native fixes. Spans are inclusive on both ends.
type Period struct {
	StartMillis int64
	EndMillis   int64
}

// Contains reports whether the timestamp falls inside the period.
func (p Period) Contains(millis int64) bool {
	return millis >= p.StartMillis && millis <= p.EndMillis
}

// ActiveTime computes active working time from the day's native fixes.
//
// With fewer than two native fixes the result is models.ActiveTimeUnknown and
// no active periods: external fixes alone cannot establish that the user
// worked. Otherwise the total span (last minus first fix) is reduced by every
// inter-fix gap of at least breakGap, and the spans between breaks are
// returned as the active periods consumed by the distance filter.
//
// The input does not need to be sorted; a sorted copy is taken so callers can
// pass their collections as-is. The computation is a full pass every time:
// a newly arrived fix can retroactively open or close a break anywhere in the
// sequence, so incremental patching is never correct.
func ActiveTime(native []models.Fix, params Params) (int64, []Period) {
	if len(native) < 2 {
		return models.ActiveTimeUnknown, nil
	}

	fixes := append([]models.Fix(nil), native...)
	sort.SliceStable(fixes, func(i, j int) bool {
		return fixes[i].Timestamp < fixes[j].Timestamp
	})

	breakGap := params.BreakGap.Milliseconds()
	totalSpan := fixes[len(fixes)-1].Timestamp - fixes[0].Timestamp

	var breakSum int64
	periods := make([]Period, 0, 4)
	start := fixes[0].Timestamp

	for i := 1; i < len(fixes); i++ {
		gap := fixes[i].Timestamp - fixes[i-1].Timestamp
		if gap >= breakGap {
			breakSum += gap
			periods = append(periods, Period{StartMillis: start, EndMillis: fixes[i-1].Timestamp})
			start = fixes[i].Timestamp
		}
	}
	periods = append(periods, Period{StartMillis: start, EndMillis: fixes[len(fixes)-1].Timestamp})

	return totalSpan - breakSum, periods
}
