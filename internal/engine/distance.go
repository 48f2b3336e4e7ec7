// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

package engine

import (
	"math"
	"sort"

	"github.com/fieldtrace/fieldtrace/internal/models"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// Distance computes the day's walked distance in meters from the merged
// native and external fix set.
//
// Fixes are sorted by timestamp and walked pairwise. A pair contributes its
// great-circle distance only when both endpoints fall inside one of the
// active periods from ActiveTime and the implied speed stays below the
// walking-speed ceiling; faster segments are vehicular transport or GPS
// drift and are discarded wholesale rather than clamped.
func Distance(all []models.Fix, periods []Period, params Params) float64 {
	if len(all) < 2 || len(periods) == 0 {
		return 0
	}

	fixes := append([]models.Fix(nil), all...)
	sort.SliceStable(fixes, func(i, j int) bool {
		return fixes[i].Timestamp < fixes[j].Timestamp
	})

	var total float64
	for i := 1; i < len(fixes); i++ {
		prev, cur := fixes[i-1], fixes[i]
		if !inPeriods(prev.Timestamp, periods) || !inPeriods(cur.Timestamp, periods) {
			continue
		}

		deltaMillis := cur.Timestamp - prev.Timestamp
		if deltaMillis <= 0 {
			continue
		}

		meters := Haversine(prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude)
		speedKmH := (meters / 1000.0) / (float64(deltaMillis) / 3600000.0)
		if speedKmH < params.MaxWalkSpeedKmH {
			total += meters
		}
	}
	return total
}

// Haversine returns the great-circle distance in meters between two
// coordinates, using the spherical law of haversines over the mean Earth
// radius.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

func inPeriods(millis int64, periods []Period) bool {
	for _, p := range periods {
		if p.Contains(millis) {
			return true
		}
	}
	return false
}
