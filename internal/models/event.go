// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

// Package models defines the event and record types shared by the live
// aggregation and batch reconstruction paths.
package models

import (
	"time"
)

// EventType discriminates the RawEvent variants arriving from the field apps.
type EventType string

const (
	EventTypeGPSFix       EventType = "gps_fix"
	EventTypeSession      EventType = "session_update"
	EventTypeDeviceStatus EventType = "device_status"
	EventTypeAction       EventType = "action"
	EventTypePhoto        EventType = "photo_submission"
)

// SourceKind identifies which tracking source produced a GPS fix.
// Native fixes come from the canvassing app itself and are authoritative for
// session boundaries; external fixes come from a separate tracker and are
// usable for distance only.
type SourceKind string

const (
	SourceNative   SourceKind = "native"
	SourceExternal SourceKind = "external"
)

// SessionState is the explicit working/idle marker emitted by the live app.
type SessionState string

const (
	SessionActive SessionState = "active"
	SessionIdle   SessionState = "idle"
)

// Event is the envelope for one raw field event. Exactly one of the payload
// pointers is set, matching Type. The same shape is used on the ingestion bus
// and in the persisted day log so batch replay sees what live saw.
type Event struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Timestamp int64     `json:"timestamp"` // epoch milliseconds
	Type      EventType `json:"type"`

	GPS     *GPSFix          `json:"gps,omitempty"`
	Session *SessionUpdate   `json:"session,omitempty"`
	Device  *DeviceStatus    `json:"device,omitempty"`
	Action  *ActionEvent     `json:"action,omitempty"`
	Photo   *PhotoSubmission `json:"photo,omitempty"`
}

// Time returns the event timestamp as a time.Time.
func (e *Event) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// CivilDay returns the calendar date of the event in the given reference
// timezone, formatted as 2006-01-02. The civil day is the unit of record
// partitioning and the reset boundary.
func (e *Event) CivilDay(loc *time.Location) string {
	return CivilDay(e.Timestamp, loc)
}

// CivilDay formats an epoch-millisecond timestamp as a calendar date in loc.
func CivilDay(millis int64, loc *time.Location) string {
	return time.UnixMilli(millis).In(loc).Format("2006-01-02")
}

// GPSFix is a single location reading.
type GPSFix struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Accuracy  float64    `json:"accuracy"` // horizontal accuracy in meters
	Source    SourceKind `json:"source"`
}

// SessionUpdate is an explicit working/idle transition from the live app.
type SessionUpdate struct {
	State SessionState `json:"state"`
}

// DeviceStatus carries periodic device telemetry.
type DeviceStatus struct {
	BatteryPercent float64 `json:"battery_percent"`
	Charging       bool    `json:"charging"`
	Online         bool    `json:"online"`
}

// ActionEvent is a discrete canvassing action, optionally carrying a
// per-resident outcome label. Bulk saves arrive with Residents set instead of
// the singular Status fields; the two shapes are resolved at the ingestion
// boundary, never re-inspected downstream.
type ActionEvent struct {
	Kind       string `json:"kind"`
	OccurredAt int64  `json:"occurred_at"` // epoch milliseconds

	// Singular shape.
	ResidentStatus         string `json:"resident_status,omitempty"`
	PreviousResidentStatus string `json:"previous_resident_status,omitempty"`

	// Bulk shape: a settled end-state snapshot for many residents at once.
	Residents []ResidentOutcome `json:"residents,omitempty"`
}

// IsBulk reports whether this action is a bulk end-state snapshot.
func (a *ActionEvent) IsBulk() bool {
	return len(a.Residents) > 0
}

// ResidentOutcome is one (resident, status) pair inside a bulk action.
type ResidentOutcome struct {
	ResidentID string `json:"resident_id"`
	Status     string `json:"status,omitempty"`
}

// PhotoSubmission records an uploaded photo by content hash. The hash, not
// the upload, is what gets counted: re-sending the same bytes must not
// inflate the photo count.
type PhotoSubmission struct {
	ContentHash string `json:"content_hash"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
}
