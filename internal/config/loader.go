package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if REMAND_CONFIG is set
//  3. env (prefix REMAND_)
func Load(_ context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("REMAND_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: REMAND_WORKER_COUNT, REMAND_QUEUE_SIZE, ...
	// Map env keys like REMAND_QUEUE_SIZE -> queue_size (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("REMAND_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "remand_")
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

// validate rejects settings the pipeline cannot run with.
func (c *Config) validate() error {
	if c.MaxFollowUpPeriods < 1 {
		return fmt.Errorf("%w: max_follow_up_periods must be at least 1", ErrInvalidConfig)
	}
	if c.ShardCount < 1 {
		return fmt.Errorf("%w: shard_count must be at least 1", ErrInvalidConfig)
	}
	if c.ObservationDate != "" {
		if _, err := time.Parse("2006-01-02", c.ObservationDate); err != nil {
			return fmt.Errorf("%w: observation_date must be YYYY-MM-DD: %w", ErrInvalidConfig, err)
		}
	}
	for i, t := range c.MetricTypes {
		normalized := strings.ToUpper(strings.TrimSpace(t))
		switch normalized {
		case "RATE", "COUNT", "ALL":
			// Store the canonical form so downstream parsing never sees
			// the raw casing.
			c.MetricTypes[i] = normalized
		default:
			return fmt.Errorf("%w: unknown metric type %q", ErrInvalidConfig, t)
		}
	}
	return nil
}
