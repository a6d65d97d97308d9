package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if CALIPER_CONFIG is set
//  3. env (prefix CALIPER_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("CALIPER_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: CALIPER_ADDR, CALIPER_FETCH_WORKERS, ...
	// Map env keys like CALIPER_FETCH_WORKERS -> fetch_workers (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("CALIPER_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "caliper_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("%w: db_path must not be empty for the sqlite store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store %q (want memory or sqlite)", ErrInvalidConfig, c.Store)
	}
	if c.FetchWorkers < 1 {
		return fmt.Errorf("%w: fetch_workers must be at least 1", ErrInvalidConfig)
	}
	if c.MaxReportDays < 1 {
		return fmt.Errorf("%w: max_report_days must be at least 1", ErrInvalidConfig)
	}
	return nil
}
