// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

package engine

import (
	"math"

	"github.com/fieldtrace/fieldtrace/internal/models"
)

// ScoreInput is the snapshot the composite activity score is computed from.
type ScoreInput struct {
	ActiveTimeMillis   int64
	TotalStatusChanges int
	TotalActionCount   int
	DistanceMeters     float64
	IdleTimeMillis     int64
	SessionTimeMillis  int64
	OfflineCount       int
}

// Score computes the composite 0-100 activity score.
//
// Four positive components are individually capped and summed, two penalties
// are subtracted, and the result is clamped to [0,100] and rounded. The
// component order and the per-component caps are load-bearing: the fully
// saturated positive side sums to 95, not 100.
//
//   - Active time:   activeHours/6 x 30, capped at 30
//   - Status change: statusChanges/30 x 30, capped at 30
//   - Action count:  actions/50 x 25, capped at 25
//   - Distance:      distanceKm/10 x 10, capped at 10
//   - Idle penalty:  (idleRatio-0.5) x 10 when idleRatio > 0.5, capped at 5
//   - Offline:       offlineCount x 0.5, capped at 5
func Score(in ScoreInput) int {
	var score float64

	activeMillis := in.ActiveTimeMillis
	if activeMillis == models.ActiveTimeUnknown {
		activeMillis = 0
	}
	activeHours := float64(activeMillis) / 3600000.0
	score += math.Min(activeHours/6.0*30.0, 30.0)

	score += math.Min(float64(in.TotalStatusChanges)/30.0*30.0, 30.0)

	score += math.Min(float64(in.TotalActionCount)/50.0*25.0, 25.0)

	distanceKm := in.DistanceMeters / 1000.0
	score += math.Min(distanceKm/10.0*10.0, 10.0)

	if in.SessionTimeMillis > 0 {
		idleRatio := float64(in.IdleTimeMillis) / float64(in.SessionTimeMillis)
		if idleRatio > 0.5 {
			score -= math.Min((idleRatio-0.5)*10.0, 5.0)
		}
	}

	score -= math.Min(float64(in.OfflineCount)*0.5, 5.0)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}
