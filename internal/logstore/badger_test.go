// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

package logstore

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldtrace/fieldtrace/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	s, err := Open(Config{InMemory: true}, loc, zerolog.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func logEvent(userID string, ts time.Time) models.Event {
	return models.Event{
		UserID:    userID,
		Username:  "agent",
		Timestamp: ts.UnixMilli(),
		Type:      models.EventTypeAction,
		Action:    &models.ActionEvent{Kind: "door_knock", OccurredAt: ts.UnixMilli()},
	}
}

func TestAppendAndFetchDayLog(t *testing.T) {
	s := testStore(t)
	loc, _ := time.LoadLocation("Europe/Amsterdam")
	day := time.Date(2025, 6, 2, 10, 0, 0, 0, loc)

	for i := 0; i < 3; i++ {
		ev := logEvent("u1", day.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.Append(context.Background(), &ev))
	}
	other := logEvent("u2", day)
	require.NoError(t, s.Append(context.Background(), &other))

	all, err := s.FetchDayLog(context.Background(), "2025-06-02", "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	scoped, err := s.FetchDayLog(context.Background(), "2025-06-02", "u1")
	require.NoError(t, err)
	assert.Len(t, scoped, 3)
	for _, ev := range scoped {
		assert.Equal(t, "u1", ev.UserID)
	}
}

func TestFetchDayLog_EmptyDay(t *testing.T) {
	s := testStore(t)

	events, err := s.FetchDayLog(context.Background(), "2025-01-01", "")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAppend_AssignsEventID(t *testing.T) {
	s := testStore(t)
	loc, _ := time.LoadLocation("Europe/Amsterdam")

	ev := logEvent("u1", time.Date(2025, 6, 2, 10, 0, 0, 0, loc))
	require.NoError(t, s.Append(context.Background(), &ev))
	assert.NotEmpty(t, ev.ID)
}

func TestAppend_SameIDIsIdempotent(t *testing.T) {
	s := testStore(t)
	loc, _ := time.LoadLocation("Europe/Amsterdam")

	ev := logEvent("u1", time.Date(2025, 6, 2, 10, 0, 0, 0, loc))
	require.NoError(t, s.Append(context.Background(), &ev))
	require.NoError(t, s.Append(context.Background(), &ev))

	events, err := s.FetchDayLog(context.Background(), "2025-06-02", "u1")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestAppend_PartitionsByCivilDay(t *testing.T) {
	s := testStore(t)
	loc, _ := time.LoadLocation("Europe/Amsterdam")

	// 23:30 local on June 2 and 00:30 local on June 3 land in
	// different partitions even though they are an hour apart.
	before := logEvent("u1", time.Date(2025, 6, 2, 23, 30, 0, 0, loc))
	after := logEvent("u1", time.Date(2025, 6, 3, 0, 30, 0, 0, loc))
	require.NoError(t, s.Append(context.Background(), &before))
	require.NoError(t, s.Append(context.Background(), &after))

	day2, err := s.FetchDayLog(context.Background(), "2025-06-02", "")
	require.NoError(t, err)
	day3, err := s.FetchDayLog(context.Background(), "2025-06-03", "")
	require.NoError(t, err)

	assert.Len(t, day2, 1)
	assert.Len(t, day3, 1)
}
