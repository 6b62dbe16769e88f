// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// JobQueueSize bounds the in-memory person job queue.
	JobQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of calculation workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the person deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the number of shards in the aggregation store.
	ShardCount int `koanf:"shard_count"`

	// MaxFollowUpPeriods caps the follow-up periods measured per release.
	MaxFollowUpPeriods int `koanf:"max_follow_up_periods"`

	// MetricTypes selects which finished metrics to produce.
	// Accepts RATE, COUNT, or ALL.
	MetricTypes []string `koanf:"metric_types"`

	// ObservationDate pins the date releases are observed against, in
	// YYYY-MM-DD form. Empty means the current UTC date.
	ObservationDate string `koanf:"observation_date"`
}

// New creates a Config populated with defaults.
func New() *Config {
	c := &Config{
		LogLevel:           "info",
		JobQueueSize:       100_000,
		WorkerCount:        runtime.NumCPU() * 4,
		DedupeSize:         50_000,
		ShardCount:         8,
		MaxFollowUpPeriods: 10,
		MetricTypes:        []string{"ALL"},
		ObservationDate:    "",
	}
	return c
}
