// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

// Package engine implements the metrics engine: active-time and break
// detection, speed-filtered distance accumulation, transition-aware action
// and status counting, and the composite activity score.
//
// Everything in this package is a pure function over an explicit snapshot of
// one user-day. The live aggregator and the batch reconstructor both call the
// same functions and differ only in how the snapshot is assembled; that is
// what keeps today's dashboard and historical reports from drifting apart.
package engine

import "time"

// Params holds the tunable thresholds of the metrics engine. Both aggregation
// paths must run with the same Params for their outputs to match.
type Params struct {
	// BreakGap is the minimum gap between consecutive native fixes that
	// counts as a break, excluded from active time.
	BreakGap time.Duration

	// MaxWalkSpeedKmH is the walking-speed ceiling. Consecutive-fix segments
	// implying a higher speed are GPS jumps or vehicular transport and
	// contribute nothing to distance.
	MaxWalkSpeedKmH float64

	// IdleGap is the inter-event gap treated as idle time when a day's log
	// carries no explicit session markers (older logs).
	IdleGap time.Duration

	// LowBatteryPercent is the threshold below which an uncharging device
	// status counts as a low-battery event.
	LowBatteryPercent float64

	// ExtraHousekeepingKinds extends DefaultHousekeepingKinds with
	// deployment-specific action kinds that must never count as activity.
	ExtraHousekeepingKinds map[string]struct{}
}

// DefaultParams returns the production thresholds.
func DefaultParams() Params {
	return Params{
		BreakGap:          20 * time.Minute,
		MaxWalkSpeedKmH:   8.0,
		IdleGap:           5 * time.Minute,
		LowBatteryPercent: 20.0,
	}
}
