// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

package boundary

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldtrace/fieldtrace/internal/clock"
)

type recordingRoller struct {
	mu   sync.Mutex
	days []string
	ch   chan string
}

func newRecordingRoller() *recordingRoller {
	return &recordingRoller{ch: make(chan string, 8)}
}

func (r *recordingRoller) Rollover(newDay string) {
	r.mu.Lock()
	r.days = append(r.days, newDay)
	r.mu.Unlock()
	r.ch <- newDay
}

func (r *recordingRoller) waitForRoll(t *testing.T) string {
	t.Helper()
	select {
	case day := <-r.ch:
		return day
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for rollover")
		return ""
	}
}

func TestUntilNextMidnight(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{
			name: "mid-afternoon",
			now:  time.Date(2025, 6, 2, 15, 0, 0, 0, loc),
			want: 9 * time.Hour,
		},
		{
			name: "one second before midnight",
			now:  time.Date(2025, 6, 2, 23, 59, 59, 0, loc),
			want: time.Second,
		},
		{
			name: "exactly midnight waits a full day",
			now:  time.Date(2025, 6, 2, 0, 0, 0, 0, loc),
			want: 24 * time.Hour,
		},
		{
			// Spring-forward night is 23 hours long in this timezone.
			name: "dst spring forward",
			now:  time.Date(2025, 3, 29, 23, 0, 0, 0, loc),
			want: 24 * time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UntilNextMidnight(tt.now, loc))
		})
	}
}

func TestScheduler_FiresAtMidnightAndReschedules(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	fake := clock.NewFake(time.Date(2025, 6, 2, 23, 0, 0, 0, loc))
	roller := newRecordingRoller()
	s := New(fake, loc, roller, zerolog.New(io.Discard))

	require.NoError(t, s.Start())
	defer func() { _ = s.Stop() }()

	fake.Advance(time.Hour)
	assert.Equal(t, "2025-06-03", roller.waitForRoll(t))

	// The loop must rearm for the following midnight on its own. The loop
	// goroutine races with Advance here, so keep nudging the clock until
	// the rearmed timer exists and fires; the exact day depends on how far
	// the clock got, but it must be past the first rollover's day.
	deadline := time.Now().Add(2 * time.Second)
	for {
		fake.Advance(8 * time.Hour)
		select {
		case day := <-roller.ch:
			assert.Greater(t, day, "2025-06-03")
			return
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("second rollover never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestScheduler_StartTwiceFails(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/Amsterdam")
	fake := clock.NewFake(time.Date(2025, 6, 2, 12, 0, 0, 0, loc))
	s := New(fake, loc, newRecordingRoller(), zerolog.New(io.Discard))

	require.NoError(t, s.Start())
	assert.Error(t, s.Start())
	require.NoError(t, s.Stop())
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/Amsterdam")
	fake := clock.NewFake(time.Date(2025, 6, 2, 12, 0, 0, 0, loc))
	s := New(fake, loc, newRecordingRoller(), zerolog.New(io.Discard))

	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())
	assert.NoError(t, s.Stop())
}
