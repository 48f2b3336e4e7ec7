// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

// Package validate normalizes and rejects raw events before they reach the
// aggregation paths. Rejection is routine data hygiene, not an error
// condition: producers cannot act on it and must not be blocked, so a
// rejected event is dropped with a warning and nothing more.
package validate

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldtrace/fieldtrace/internal/engine"
	"github.com/fieldtrace/fieldtrace/internal/models"
)

// Rejection reasons, used as log fields and metric labels.
const (
	ReasonWrongDay       = "wrong_day"
	ReasonCoordsRange    = "coordinates_out_of_range"
	ReasonCoordsNearZero = "coordinates_near_zero"
	ReasonHousekeeping   = "housekeeping_kind"
	ReasonMissingPayload = "missing_payload"
	ReasonUnknownType    = "unknown_type"
)

// nearZeroThreshold is the device's "fix not ready" sentinel band. A
// coordinate with |value| at or below it is not a real position and must
// never enter a record, regardless of the reported accuracy.
const nearZeroThreshold = 0.001

// Validator checks one raw event against the record's current civil day and
// basic sanity bounds.
type Validator struct {
	loc          *time.Location
	housekeeping map[string]struct{}
	logger       zerolog.Logger
}

// New creates a validator for the given reference timezone. extraKinds
// extends the built-in housekeeping action kinds.
func New(loc *time.Location, extraKinds []string, logger zerolog.Logger) *Validator {
	hk := make(map[string]struct{}, len(extraKinds))
	for _, k := range extraKinds {
		hk[k] = struct{}{}
	}
	return &Validator{
		loc:          loc,
		housekeeping: hk,
		logger:       logger.With().Str("component", "validator").Logger(),
	}
}

// HousekeepingKinds returns the configured extra housekeeping kinds, for
// sharing with the engine parameters.
func (v *Validator) HousekeepingKinds() map[string]struct{} {
	return v.housekeeping
}

// Check validates one event against the record's current civil day. It
// returns ok=true to accept, or ok=false plus the rejection reason. Rejected
// events are logged at warn level and otherwise vanish.
func (v *Validator) Check(ev *models.Event, currentDay string) (ok bool, reason string) {
	if reason := v.reject(ev, currentDay); reason != "" {
		v.logger.Warn().
			Str("user_id", ev.UserID).
			Str("type", string(ev.Type)).
			Int64("timestamp", ev.Timestamp).
			Str("reason", reason).
			Msg("Event rejected")
		return false, reason
	}
	return true, ""
}

func (v *Validator) reject(ev *models.Event, currentDay string) string {
	// Delayed-sync pollution guard: an event whose own timestamp maps to a
	// different civil day than the record's "today" is dropped in either
	// direction.
	if ev.CivilDay(v.loc) != currentDay {
		return ReasonWrongDay
	}

	switch ev.Type {
	case models.EventTypeGPSFix:
		if ev.GPS == nil {
			return ReasonMissingPayload
		}
		return checkCoordinates(ev.GPS.Latitude, ev.GPS.Longitude)

	case models.EventTypeSession:
		if ev.Session == nil {
			return ReasonMissingPayload
		}

	case models.EventTypeDeviceStatus:
		if ev.Device == nil {
			return ReasonMissingPayload
		}

	case models.EventTypeAction:
		if ev.Action == nil {
			return ReasonMissingPayload
		}
		if engine.IsHousekeepingKind(ev.Action.Kind, v.housekeeping) {
			return ReasonHousekeeping
		}

	case models.EventTypePhoto:
		if ev.Photo == nil {
			return ReasonMissingPayload
		}

	default:
		return ReasonUnknownType
	}
	return ""
}

func checkCoordinates(lat, lon float64) string {
	if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return ReasonCoordsRange
	}
	if math.Abs(lat) <= nearZeroThreshold || math.Abs(lon) <= nearZeroThreshold {
		return ReasonCoordsNearZero
	}
	return ""
}
