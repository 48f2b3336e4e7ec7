// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

// Package config loads layered configuration: built-in defaults, then an
// optional YAML file, then environment variables. ENV > file > defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/fieldtrace/fieldtrace/internal/api"
	"github.com/fieldtrace/fieldtrace/internal/engine"
	"github.com/fieldtrace/fieldtrace/internal/ingest"
	"github.com/fieldtrace/fieldtrace/internal/logging"
	"github.com/fieldtrace/fieldtrace/internal/logstore"
	"github.com/fieldtrace/fieldtrace/internal/reconstruct"
)

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/fieldtrace/config.yaml",
	"/etc/fieldtrace/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "FIELDTRACE_CONFIG"

// envPrefix namespaces every setting: FIELDTRACE_SERVER_ADDR, etc.
const envPrefix = "FIELDTRACE_"

// Config is the full process configuration.
type Config struct {
	// Timezone is the IANA zone that defines the civil day. Every record
	// boundary, log partition, and midnight roll uses this zone.
	Timezone string `koanf:"timezone" validate:"required"`

	Logging  LoggingConfig     `koanf:"logging"`
	Server   ServerConfig      `koanf:"server"`
	Engine   EngineConfig      `koanf:"engine"`
	Ingest   IngestConfig      `koanf:"ingest"`
	Logstore LogstoreConfig    `koanf:"logstore"`
	Rebuild  ReconstructConfig `koanf:"rebuild"`
}

// LoggingConfig mirrors the logging package settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	Addr           string        `koanf:"addr" validate:"required"`
	RateLimit      int           `koanf:"rate_limit" validate:"min=0"`
	RateWindow     time.Duration `koanf:"rate_window"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// EngineConfig holds the reconstruction thresholds.
type EngineConfig struct {
	BreakGap          time.Duration `koanf:"break_gap" validate:"min=1m"`
	MaxWalkSpeedKmH   float64       `koanf:"max_walk_speed_kmh" validate:"gt=0"`
	IdleGap           time.Duration `koanf:"idle_gap" validate:"min=1s"`
	LowBatteryPercent float64       `koanf:"low_battery_percent" validate:"min=0,max=100"`
	HousekeepingKinds []string      `koanf:"housekeeping_kinds"`
}

// IngestConfig holds the event pipeline settings.
type IngestConfig struct {
	BufferSize int64 `koanf:"buffer_size" validate:"min=1"`
}

// LogstoreConfig holds the day log store settings.
type LogstoreConfig struct {
	Dir        string        `koanf:"dir"`
	InMemory   bool          `koanf:"in_memory"`
	Retention  time.Duration `koanf:"retention"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// ReconstructConfig holds batch replay settings.
type ReconstructConfig struct {
	CacheTTL                time.Duration `koanf:"cache_ttl"`
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold" validate:"min=1"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
}

func defaultConfig() *Config {
	return &Config{
		Timezone: "Europe/Amsterdam",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			RateLimit:      120,
			RateWindow:     time.Minute,
			RequestTimeout: 30 * time.Second,
		},
		Engine: EngineConfig{
			BreakGap:          20 * time.Minute,
			MaxWalkSpeedKmH:   8,
			IdleGap:           5 * time.Minute,
			LowBatteryPercent: 20,
			HousekeepingKinds: nil,
		},
		Ingest: IngestConfig{
			BufferSize: 256,
		},
		Logstore: LogstoreConfig{
			Dir:        "/data/fieldtrace",
			InMemory:   false,
			Retention:  0,
			GCInterval: 10 * time.Minute,
		},
		Rebuild: ReconstructConfig{
			CacheTTL:                5 * time.Minute,
			BreakerFailureThreshold: 5,
			BreakerTimeout:          30 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// FIELDTRACE_* environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// FIELDTRACE_SERVER_RATE_LIMIT -> server.rate_limit. Section names are
	// single words, so only the first underscore becomes a separator.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.Replace(key, "_", ".", 1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks field constraints and that the timezone resolves.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location resolves the configured civil-day timezone. Validate first.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// EngineParams converts the engine section to reconstruction parameters.
func (c *Config) EngineParams() engine.Params {
	p := engine.Params{
		BreakGap:          c.Engine.BreakGap,
		MaxWalkSpeedKmH:   c.Engine.MaxWalkSpeedKmH,
		IdleGap:           c.Engine.IdleGap,
		LowBatteryPercent: c.Engine.LowBatteryPercent,
	}
	if len(c.Engine.HousekeepingKinds) > 0 {
		p.ExtraHousekeepingKinds = make(map[string]struct{}, len(c.Engine.HousekeepingKinds))
		for _, kind := range c.Engine.HousekeepingKinds {
			p.ExtraHousekeepingKinds[kind] = struct{}{}
		}
	}
	return p
}

// LoggingConfig converts to the logging package's settings.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
	}
}

// ServerConfig converts to the API server's settings.
func (c *Config) ServerConfig() api.Config {
	return api.Config{
		Addr:           c.Server.Addr,
		RateLimit:      c.Server.RateLimit,
		RateWindow:     c.Server.RateWindow,
		RequestTimeout: c.Server.RequestTimeout,
	}
}

// IngestConfig converts to the pipeline's settings.
func (c *Config) IngestConfig() ingest.Config {
	return ingest.Config{BufferSize: c.Ingest.BufferSize}
}

// LogstoreConfig converts to the day log store's settings.
func (c *Config) LogstoreConfig() logstore.Config {
	return logstore.Config{
		Dir:       c.Logstore.Dir,
		InMemory:  c.Logstore.InMemory,
		Retention: c.Logstore.Retention,
	}
}

// ReconstructConfig converts to the reconstructor's settings.
func (c *Config) ReconstructConfig() reconstruct.Config {
	return reconstruct.Config{
		CacheTTL:                c.Rebuild.CacheTTL,
		BreakerFailureThreshold: c.Rebuild.BreakerFailureThreshold,
		BreakerTimeout:          c.Rebuild.BreakerTimeout,
	}
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
