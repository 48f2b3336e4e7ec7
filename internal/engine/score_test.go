// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fieldtrace/fieldtrace/internal/models"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		in   ScoreInput
		want int
	}{
		{
			name: "empty day scores zero",
			in:   ScoreInput{ActiveTimeMillis: models.ActiveTimeUnknown},
			want: 0,
		},
		{
			// All four positive components saturated, no penalties. The
			// positive side sums to 95, not 100.
			name: "fully saturated day",
			in: ScoreInput{
				ActiveTimeMillis:   6 * 3600000,
				TotalStatusChanges: 30,
				TotalActionCount:   50,
				DistanceMeters:     10000,
				IdleTimeMillis:     3 * 3600000,
				SessionTimeMillis:  10 * 3600000, // ratio 0.3, no penalty
			},
			want: 95,
		},
		{
			// Half-saturated components with both penalties biting:
			// 15 + 15 + 12.5 + 5 = 47.5, idle -1, offline -5 => 41.5 -> 42.
			name: "half day with penalties",
			in: ScoreInput{
				ActiveTimeMillis:   3 * 3600000,
				TotalStatusChanges: 15,
				TotalActionCount:   25,
				DistanceMeters:     5000,
				IdleTimeMillis:     6 * 3600000,
				SessionTimeMillis:  10 * 3600000, // ratio 0.6
				OfflineCount:       10,
			},
			want: 42,
		},
		{
			name: "components cap individually",
			in: ScoreInput{
				ActiveTimeMillis:   24 * 3600000,
				TotalStatusChanges: 500,
				TotalActionCount:   900,
				DistanceMeters:     80000,
			},
			want: 95,
		},
		{
			name: "idle penalty caps at five",
			in: ScoreInput{
				ActiveTimeMillis:  6 * 3600000,
				IdleTimeMillis:    10 * 3600000,
				SessionTimeMillis: 10 * 3600000, // ratio 1.0 => raw penalty 5
			},
			want: 25,
		},
		{
			name: "offline penalty caps at five",
			in: ScoreInput{
				ActiveTimeMillis: 6 * 3600000,
				OfflineCount:     100,
			},
			want: 25,
		},
		{
			name: "score clamps at zero",
			in: ScoreInput{
				OfflineCount: 100,
			},
			want: 0,
		},
		{
			name: "unknown active time scores like zero hours",
			in: ScoreInput{
				ActiveTimeMillis:   models.ActiveTimeUnknown,
				TotalStatusChanges: 30,
			},
			want: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.in))
		})
	}
}
