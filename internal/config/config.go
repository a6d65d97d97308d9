// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Store backend names accepted by the store config key.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ScorecardGlob locates scorecard definition files, doublestar syntax.
	ScorecardGlob string `koanf:"scorecard_glob"`

	// RosterPath points at an optional roster YAML loaded into the store
	// at startup. Empty means no roster file.
	RosterPath string `koanf:"roster_path"`

	// Store selects the persistence backend: memory or sqlite.
	Store string `koanf:"store"`

	// DBPath is the SQLite database file used when Store is sqlite.
	DBPath string `koanf:"db_path"`

	// FetchWorkers bounds the concurrent per-table scans of the report path.
	FetchWorkers int `koanf:"fetch_workers"`

	// DedupeSize sets the size of the submission deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxReportDays caps the report window length accepted by the API.
	MaxReportDays int `koanf:"max_report_days"`
}

// New creates a Config populated with defaults.
func New() *Config {
	c := &Config{
		LogLevel:      "info",
		Addr:          ":9080",
		ScorecardGlob: "scorecards/*.yaml",
		RosterPath:    "",
		Store:         StoreMemory,
		DBPath:        "caliper.db",
		FetchWorkers:  runtime.NumCPU(),
		DedupeSize:    100_000,
		MaxReportDays: 366,
	}
	return c
}
