// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Europe/Amsterdam", cfg.Timezone)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 20*time.Minute, cfg.Engine.BreakGap)
	assert.Equal(t, 8.0, cfg.Engine.MaxWalkSpeedKmH)
	assert.Equal(t, 5*time.Minute, cfg.Engine.IdleGap)
	assert.Equal(t, uint32(5), cfg.Rebuild.BreakerFailureThreshold)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Amsterdam", loc.String())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
timezone: America/New_York
server:
  addr: ":9090"
engine:
  break_gap: 30m
  housekeeping_kinds:
    - tracker_sync
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "America/New_York", cfg.Timezone)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Engine.BreakGap)
	// Untouched sections keep their defaults.
	assert.Equal(t, "info", cfg.Logging.Level)

	params := cfg.EngineParams()
	assert.Equal(t, 30*time.Minute, params.BreakGap)
	_, ok := params.ExtraHousekeepingKinds["tracker_sync"]
	assert.True(t, ok)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o600))
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("FIELDTRACE_SERVER_ADDR", ":7070")
	t.Setenv("FIELDTRACE_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_InvalidValuesRejected(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		value string
	}{
		{"bad log level", "FIELDTRACE_LOGGING_LEVEL", "verbose"},
		{"bad timezone", "FIELDTRACE_TIMEZONE", "Mars/Olympus_Mons"},
		{"zero walk speed", "FIELDTRACE_ENGINE_MAX_WALK_SPEED_KMH", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
