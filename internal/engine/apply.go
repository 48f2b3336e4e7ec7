// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

package engine

import (
	"fmt"
	"sort"

	"github.com/fieldtrace/fieldtrace/internal/dedup"
	"github.com/fieldtrace/fieldtrace/internal/models"
)

// DefaultHousekeepingKinds are action kinds that belong to transport or
// device plumbing, not user activity. A GPS ping misrouted through the action
// channel must never show up as canvassing work.
func DefaultHousekeepingKinds() map[string]struct{} {
	return map[string]struct{}{
		"gps_ping":      {},
		"heartbeat":     {},
		"location_sync": {},
	}
}

// IsHousekeepingKind reports whether the action kind is internal plumbing.
func IsHousekeepingKind(kind string, extra map[string]struct{}) bool {
	if _, ok := DefaultHousekeepingKinds()[kind]; ok {
		return true
	}
	_, ok := extra[kind]
	return ok
}

// ApplyEvent folds one validated event into the record, consulting the dedup
// guards first. It returns true when the record changed, false when the event
// was a silent duplicate or carried no payload for its declared type.
//
// ApplyEvent only mutates the record's collections and counters; derived
// metrics (active time, distance, idle, score) are the job of Recompute. Both
// aggregation paths use this exact function, so any counting rule lives here
// once.
func ApplyEvent(rec *models.DailyUserRecord, guards *dedup.Guards, ev models.Event, params Params) bool {
	switch ev.Type {
	case models.EventTypeGPSFix:
		if ev.GPS == nil {
			return false
		}
		if !guards.MarkEvent(ev.Type, ev.Timestamp, fixIdentity(ev.GPS)) {
			return false
		}
		rec.Fixes = append(rec.Fixes, models.Fix{
			Timestamp: ev.Timestamp,
			Latitude:  ev.GPS.Latitude,
			Longitude: ev.GPS.Longitude,
			Accuracy:  ev.GPS.Accuracy,
			Source:    ev.GPS.Source,
		})
		// Millisecond ties are broken by payload, not arrival order: the
		// live and replay paths can deliver tied fixes in different orders,
		// and the distance walk pairs consecutive entries.
		sort.SliceStable(rec.Fixes, func(i, j int) bool {
			a, b := rec.Fixes[i], rec.Fixes[j]
			if a.Timestamp != b.Timestamp {
				return a.Timestamp < b.Timestamp
			}
			if a.Source != b.Source {
				return a.Source < b.Source
			}
			if a.Latitude != b.Latitude {
				return a.Latitude < b.Latitude
			}
			return a.Longitude < b.Longitude
		})

	case models.EventTypeSession:
		if ev.Session == nil {
			return false
		}
		if !guards.MarkEvent(ev.Type, ev.Timestamp, string(ev.Session.State)) {
			return false
		}
		// Idle and session time are rederived from the event log on
		// recompute; nothing else to fold in here.

	case models.EventTypeDeviceStatus:
		if ev.Device == nil {
			return false
		}
		if !guards.MarkEvent(ev.Type, ev.Timestamp, deviceIdentity(ev.Device)) {
			return false
		}
		rec.Device.BatterySum += ev.Device.BatteryPercent
		rec.Device.BatterySamples++
		if ev.Device.BatteryPercent < params.LowBatteryPercent && !ev.Device.Charging {
			rec.Device.LowBatteryCount++
		}
		if !ev.Device.Online {
			rec.Device.OfflineCount++
		}

	case models.EventTypeAction:
		if ev.Action == nil {
			return false
		}
		if IsHousekeepingKind(ev.Action.Kind, params.ExtraHousekeepingKinds) {
			return false
		}
		if !guards.MarkAction(ev.Action.OccurredAt) {
			return false
		}
		countAction(rec, ev.Action)

	case models.EventTypePhoto:
		if ev.Photo == nil || ev.Photo.ContentHash == "" {
			return false
		}
		if !guards.MarkPhoto(ev.Photo.ContentHash) {
			return false
		}
		rec.PhotoCount++

	default:
		return false
	}

	rec.Events = append(rec.Events, ev)
	return true
}

// countAction applies the transition-aware counting rules for one accepted,
// non-housekeeping, non-duplicate action.
func countAction(rec *models.DailyUserRecord, action *models.ActionEvent) {
	if action.IsBulk() {
		// A bulk save is a settled end-state snapshot, not a delta: every
		// listed non-empty destination status counts unconditionally.
		for _, outcome := range action.Residents {
			if outcome.Status == "" {
				continue
			}
			rec.StatusCounts[outcome.Status]++
			rec.TotalStatusChanges++
		}
	} else if action.ResidentStatus != "" {
		// Singular entries count only genuine transitions. A missing
		// previous status is legacy data and assumed to be a change.
		if action.PreviousResidentStatus == "" ||
			action.PreviousResidentStatus != action.ResidentStatus {
			rec.StatusCounts[action.ResidentStatus]++
			rec.TotalStatusChanges++
		}
	}

	rec.TotalActionCount++
	rec.ActionCounts[action.Kind]++
}

// fixIdentity distinguishes genuinely different readings that share a
// millisecond. A native and an external fix can land on the same timestamp
// from independent sources; only a byte-identical repeat is a duplicate.
func fixIdentity(gps *models.GPSFix) string {
	return fmt.Sprintf("%s/%v/%v/%v", gps.Source, gps.Latitude, gps.Longitude, gps.Accuracy)
}

// deviceIdentity plays the same role for telemetry snapshots.
func deviceIdentity(device *models.DeviceStatus) string {
	return fmt.Sprintf("%v/%t/%t", device.BatteryPercent, device.Charging, device.Online)
}

// Recompute rederives every metric that depends on the full current state:
// active time and breaks, speed-filtered distance, idle and session time, the
// battery average, and the composite score. It is a bounded synchronous scan
// over one day's in-memory event set and must run after every accepted live
// event, or once after a full batch replay; the result is the same either
// way because nothing here is incremental.
func Recompute(rec *models.DailyUserRecord, params Params) {
	activeMillis, periods := ActiveTime(rec.NativeFixes(), params)
	rec.ActiveTimeMillis = activeMillis
	rec.DistanceMeters = Distance(rec.Fixes, periods, params)

	idle, total, ok := SessionTimes(rec.Events)
	if !ok {
		idle, total = EstimateIdleFromGaps(rec.Events, params)
	}
	rec.IdleTimeMillis = idle
	rec.SessionTimeMillis = total

	if rec.Device.BatterySamples > 0 {
		rec.Device.AvgBattery = rec.Device.BatterySum / float64(rec.Device.BatterySamples)
	}

	rec.ActivityScore = Score(ScoreInput{
		ActiveTimeMillis:   rec.ActiveTimeMillis,
		TotalStatusChanges: rec.TotalStatusChanges,
		TotalActionCount:   rec.TotalActionCount,
		DistanceMeters:     rec.DistanceMeters,
		IdleTimeMillis:     rec.IdleTimeMillis,
		SessionTimeMillis:  rec.SessionTimeMillis,
		OfflineCount:       rec.Device.OfflineCount,
	})
}
