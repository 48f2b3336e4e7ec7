// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

package models

// ActiveTimeUnknown is the sentinel stored in ActiveTimeMillis when fewer
// than two native fixes exist for the day, i.e. there is not enough native
// data to say the user worked at all.
const ActiveTimeUnknown int64 = -1

// Fix is a GPS reading positioned on the day's timeline. Record collections
// store Fix rather than the bare GPSFix payload because every metric over the
// fix set needs the timestamp.
type Fix struct {
	Timestamp int64      `json:"timestamp"` // epoch milliseconds
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Accuracy  float64    `json:"accuracy"`
	Source    SourceKind `json:"source"`
}

// DeviceSummary aggregates device telemetry for one user-day.
type DeviceSummary struct {
	BatterySum      float64 `json:"-"`
	BatterySamples  int     `json:"battery_samples"`
	AvgBattery      float64 `json:"avg_battery"`
	LowBatteryCount int     `json:"low_battery_count"`
	OfflineCount    int     `json:"offline_count"`
}

// DailyUserRecord is the aggregate for one (user, civil day). It is created
// lazily on the first accepted event, mutated by every subsequent one, and
// destroyed at the next midnight boundary (live) or evicted from the
// reconstruction cache (batch). The day log, not this record, is the durable
// source of truth.
//
// ActiveTimeMillis and DistanceMeters are always recomputed from the full
// current fix set, never patched incrementally: a newly inserted fix can
// retroactively open or close a break anywhere in the sequence.
type DailyUserRecord struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Day      string `json:"day"` // civil day, 2006-01-02

	Fixes []Fix `json:"fixes"`

	DistanceMeters   float64 `json:"distance_meters"`
	ActiveTimeMillis int64   `json:"active_time_millis"`

	TotalActionCount   int            `json:"total_action_count"`
	ActionCounts       map[string]int `json:"action_counts"`
	StatusCounts       map[string]int `json:"status_counts"`
	TotalStatusChanges int            `json:"total_status_changes"`

	Device     DeviceSummary `json:"device"`
	PhotoCount int           `json:"photo_count"`

	IdleTimeMillis    int64 `json:"idle_time_millis"`
	SessionTimeMillis int64 `json:"session_time_millis"`

	// Events is the raw accepted-event log for audit and replay.
	Events []Event `json:"events"`

	ActivityScore int `json:"activity_score"`
}

// NewDailyUserRecord creates an empty record for one user and civil day.
func NewDailyUserRecord(userID, username, day string) *DailyUserRecord {
	return &DailyUserRecord{
		UserID:           userID,
		Username:         username,
		Day:              day,
		ActiveTimeMillis: ActiveTimeUnknown,
		ActionCounts:     make(map[string]int),
		StatusCounts:     make(map[string]int),
	}
}

// NativeFixes returns the record's native-sourced fixes in stored order.
func (r *DailyUserRecord) NativeFixes() []Fix {
	out := make([]Fix, 0, len(r.Fixes))
	for _, f := range r.Fixes {
		if f.Source == SourceNative {
			out = append(out, f)
		}
	}
	return out
}

// Clone returns a deep copy safe to hand to readers while the original keeps
// mutating under its owner's lock.
func (r *DailyUserRecord) Clone() *DailyUserRecord {
	cp := *r
	cp.Fixes = append([]Fix(nil), r.Fixes...)
	cp.Events = append([]Event(nil), r.Events...)
	cp.ActionCounts = make(map[string]int, len(r.ActionCounts))
	for k, v := range r.ActionCounts {
		cp.ActionCounts[k] = v
	}
	cp.StatusCounts = make(map[string]int, len(r.StatusCounts))
	for k, v := range r.StatusCounts {
		cp.StatusCounts[k] = v
	}
	return &cp
}
