// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

package aggregator

import (
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldtrace/fieldtrace/internal/clock"
	"github.com/fieldtrace/fieldtrace/internal/engine"
	"github.com/fieldtrace/fieldtrace/internal/models"
	"github.com/fieldtrace/fieldtrace/internal/validate"
)

func testAggregator(t *testing.T) (*Aggregator, *clock.Fake, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	now := time.Date(2025, 6, 2, 9, 0, 0, 0, loc)
	fake := clock.NewFake(now)
	logger := zerolog.New(io.Discard)
	v := validate.New(loc, nil, logger)
	return New(fake, loc, engine.DefaultParams(), v, logger), fake, loc
}

func gpsEvent(userID string, ts time.Time, lat float64) models.Event {
	return models.Event{
		UserID:    userID,
		Username:  "agent-" + userID,
		Timestamp: ts.UnixMilli(),
		Type:      models.EventTypeGPSFix,
		GPS:       &models.GPSFix{Latitude: lat, Longitude: 4.8952, Source: models.SourceNative},
	}
}

func knockEvent(userID string, ts time.Time, status string) models.Event {
	return models.Event{
		UserID:    userID,
		Username:  "agent-" + userID,
		Timestamp: ts.UnixMilli(),
		Type:      models.EventTypeAction,
		Action: &models.ActionEvent{
			Kind:           "door_knock",
			OccurredAt:     ts.UnixMilli(),
			ResidentStatus: status,
		},
	}
}

func TestApply_CreatesRecordLazily(t *testing.T) {
	agg, fake, _ := testAggregator(t)

	_, ok := agg.Get("u1")
	assert.False(t, ok)

	require.True(t, agg.Apply(knockEvent("u1", fake.Now(), "won")))

	rec, ok := agg.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, "2025-06-02", rec.Day)
	assert.Equal(t, 1, rec.TotalActionCount)
	assert.Equal(t, 1, rec.TotalStatusChanges)
}

func TestApply_RejectsOtherDaysEvents(t *testing.T) {
	agg, fake, _ := testAggregator(t)

	yesterday := fake.Now().AddDate(0, 0, -1)
	assert.False(t, agg.Apply(knockEvent("u1", yesterday, "won")))

	_, ok := agg.Get("u1")
	assert.False(t, ok, "rejected events must not create records")
}

func TestApply_RecomputesOnEveryEvent(t *testing.T) {
	agg, fake, _ := testAggregator(t)
	start := fake.Now()

	require.True(t, agg.Apply(gpsEvent("u1", start, 52.3702)))
	rec, _ := agg.Get("u1")
	assert.Equal(t, models.ActiveTimeUnknown, rec.ActiveTimeMillis)

	require.True(t, agg.Apply(gpsEvent("u1", start.Add(10*time.Minute), 52.3747)))
	rec, _ = agg.Get("u1")
	assert.Equal(t, (10 * time.Minute).Milliseconds(), rec.ActiveTimeMillis)
	assert.InDelta(t, 500, rec.DistanceMeters, 10)
}

func TestGet_ReturnsIsolatedCopy(t *testing.T) {
	agg, fake, _ := testAggregator(t)

	require.True(t, agg.Apply(knockEvent("u1", fake.Now(), "won")))

	rec, _ := agg.Get("u1")
	rec.TotalActionCount = 999
	rec.ActionCounts["door_knock"] = 999

	fresh, _ := agg.Get("u1")
	assert.Equal(t, 1, fresh.TotalActionCount)
	assert.Equal(t, 1, fresh.ActionCounts["door_knock"])
}

func TestAll_SortedByScoreDescending(t *testing.T) {
	agg, fake, _ := testAggregator(t)
	start := fake.Now()

	// u2 does strictly more than u1.
	require.True(t, agg.Apply(knockEvent("u1", start, "won")))
	for i := 0; i < 10; i++ {
		ev := knockEvent("u2", start.Add(time.Duration(i)*time.Minute), "won")
		require.True(t, agg.Apply(ev))
	}

	records := agg.All()
	require.Len(t, records, 2)
	assert.Equal(t, "u2", records[0].UserID)
	assert.GreaterOrEqual(t, records[0].ActivityScore, records[1].ActivityScore)
}

func TestRollover_DropsAllRecords(t *testing.T) {
	agg, fake, _ := testAggregator(t)

	require.True(t, agg.Apply(knockEvent("u1", fake.Now(), "won")))
	agg.Rollover("2025-06-03")

	_, ok := agg.Get("u1")
	assert.False(t, ok)
	assert.Equal(t, "2025-06-03", agg.Day())
}

// Events arriving after local midnight but before the scheduler fires must
// land on the new day, not pollute yesterday's records.
func TestApply_InlineRolloverAfterMidnight(t *testing.T) {
	agg, fake, _ := testAggregator(t)

	require.True(t, agg.Apply(knockEvent("u1", fake.Now(), "won")))

	fake.Advance(16 * time.Hour) // 09:00 -> 01:00 next day
	require.True(t, agg.Apply(knockEvent("u1", fake.Now(), "lost")))

	rec, ok := agg.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "2025-06-03", rec.Day)
	assert.Equal(t, 1, rec.TotalActionCount, "yesterday's action must be gone")
}

func TestApply_ConcurrentUsersIndependent(t *testing.T) {
	agg, fake, _ := testAggregator(t)
	start := fake.Now()

	var wg sync.WaitGroup
	for u := 0; u < 8; u++ {
		wg.Add(1)
		go func(u int) {
			defer wg.Done()
			userID := fmt.Sprintf("u%d", u)
			for i := 0; i < 20; i++ {
				agg.Apply(knockEvent(userID, start.Add(time.Duration(i)*time.Second), "won"))
			}
		}(u)
	}
	wg.Wait()

	records := agg.All()
	require.Len(t, records, 8)
	for _, rec := range records {
		assert.Equal(t, 20, rec.TotalActionCount, rec.UserID)
	}
}
