// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldtrace/fieldtrace/internal/models"
)

// baseMillis is an arbitrary mid-day anchor (2025-06-02 09:00:00 UTC).
const baseMillis int64 = 1748854800000

func nativeFix(offset time.Duration) models.Fix {
	return models.Fix{
		Timestamp: baseMillis + offset.Milliseconds(),
		Latitude:  52.3702,
		Longitude: 4.8952,
		Source:    models.SourceNative,
	}
}

func TestActiveTime_FewerThanTwoFixes(t *testing.T) {
	params := DefaultParams()

	millis, periods := ActiveTime(nil, params)
	assert.Equal(t, models.ActiveTimeUnknown, millis)
	assert.Empty(t, periods)

	millis, periods = ActiveTime([]models.Fix{nativeFix(0)}, params)
	assert.Equal(t, models.ActiveTimeUnknown, millis)
	assert.Empty(t, periods)
}

func TestActiveTime_NoBreaksEqualsFullSpan(t *testing.T) {
	params := DefaultParams()

	// Fixes every 10 minutes for 2 hours: no gap reaches 20 minutes.
	var fixes []models.Fix
	for m := 0; m <= 120; m += 10 {
		fixes = append(fixes, nativeFix(time.Duration(m)*time.Minute))
	}

	millis, periods := ActiveTime(fixes, params)
	assert.Equal(t, (2 * time.Hour).Milliseconds(), millis)
	require.Len(t, periods, 1)
	assert.Equal(t, fixes[0].Timestamp, periods[0].StartMillis)
	assert.Equal(t, fixes[len(fixes)-1].Timestamp, periods[0].EndMillis)
}

func TestActiveTime_GapBecomesBreak(t *testing.T) {
	params := DefaultParams()

	fixes := []models.Fix{
		nativeFix(0),
		nativeFix(10 * time.Minute),
		nativeFix(45 * time.Minute), // 35-minute gap: break
		nativeFix(55 * time.Minute),
	}

	millis, periods := ActiveTime(fixes, params)
	assert.Equal(t, (20 * time.Minute).Milliseconds(), millis)
	require.Len(t, periods, 2)
	assert.Equal(t, nativeFix(10*time.Minute).Timestamp, periods[0].EndMillis)
	assert.Equal(t, nativeFix(45*time.Minute).Timestamp, periods[1].StartMillis)
}

func TestActiveTime_ExactThresholdGapIsBreak(t *testing.T) {
	params := DefaultParams()

	fixes := []models.Fix{
		nativeFix(0),
		nativeFix(20 * time.Minute),
	}

	millis, _ := ActiveTime(fixes, params)
	assert.Equal(t, int64(0), millis, "a gap of exactly 20 minutes is a break")
}

// Inserting a fix that introduces a new break must decrease active time by
// exactly that break's duration versus the same sequence without it.
func TestActiveTime_InsertedFixReopensBreak(t *testing.T) {
	params := DefaultParams()

	without := []models.Fix{
		nativeFix(0),
		nativeFix(10 * time.Minute),
		nativeFix(15 * time.Minute),
		nativeFix(19 * time.Minute),
	}
	baseline, _ := ActiveTime(without, params)

	// Appending a fix 25 minutes after the previous last one extends the
	// span by 25 minutes but also introduces a 25-minute break.
	with := append(append([]models.Fix(nil), without...), nativeFix(44*time.Minute))
	extended, _ := ActiveTime(with, params)

	assert.Equal(t, baseline, extended)
}

func TestActiveTime_InputOrderDoesNotMatter(t *testing.T) {
	params := DefaultParams()

	ordered := []models.Fix{
		nativeFix(0),
		nativeFix(5 * time.Minute),
		nativeFix(40 * time.Minute),
		nativeFix(50 * time.Minute),
	}
	shuffled := []models.Fix{ordered[2], ordered[0], ordered[3], ordered[1]}

	a, _ := ActiveTime(ordered, params)
	b, _ := ActiveTime(shuffled, params)
	assert.Equal(t, a, b)
}
