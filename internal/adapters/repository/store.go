// Package repository defines the aggregation store interface and errors.
//
// The store is the in-process reduce stage: workers feed it every
// (combination, value) pair the engine emits, and it keeps one summed row
// per canonical combination key.
package repository

import (
	"context"

	"github.com/corrkit/remand/internal/domain/calculator"
	"github.com/corrkit/remand/internal/domain/metric"
)

// Store provides write access for workers and snapshot access for metric
// production.
type Store interface {
	// Add folds one engine pair into the aggregate for its combination:
	// the value is added to the recidivated sum and the contribution count
	// is incremented.
	Add(ctx context.Context, combo calculator.Combination, value int) error

	// Snapshot returns a copy of all aggregates. Safe to call while
	// writers are active; the result is a consistent per-row view.
	Snapshot(ctx context.Context) []metric.Aggregate

	// Count returns the number of distinct combinations tracked.
	Count(ctx context.Context) int
}
