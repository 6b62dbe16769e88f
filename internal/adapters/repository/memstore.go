package repository

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/corrkit/remand/internal/domain/calculator"
	"github.com/corrkit/remand/internal/domain/metric"
	"github.com/corrkit/remand/pkg/metrics"
)

// Default store configuration constants.
const (
	defaultShardCount = 8
)

// row accumulates one combination's sums.
type row struct {
	combo    calculator.Combination
	sum      int
	releases int
}

// shard holds a slice of the key space under its own lock.
type shard struct {
	mu   sync.RWMutex
	rows map[string]*row
}

// MemStore implements Store with a sharded in-memory map. Sharding keeps
// lock contention low when many workers fold pairs concurrently.
type MemStore struct {
	shards []*shard
}

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithShardCount sets the number of shards.
func WithShardCount(n int) Option {
	return func(s *MemStore) {
		if n > 0 {
			s.shards = make([]*shard, n)
		}
	}
}

// NewMemStore creates a new sharded in-memory aggregation store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		shards: make([]*shard, defaultShardCount),
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.shards {
		s.shards[i] = &shard{rows: make(map[string]*row)}
	}

	metrics.UpdateRepositoryShardCount(len(s.shards))
	return s
}

// shardFor picks the shard owning the given key.
func (s *MemStore) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[int(h.Sum32())%len(s.shards)]
}

// Add folds one pair into its combination's aggregate.
func (s *MemStore) Add(_ context.Context, combo calculator.Combination, value int) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if value != 0 && value != 1 {
		return ErrInvalidValue
	}

	key := combo.Key()
	sh := s.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	r, ok := sh.rows[key]
	if !ok {
		r = &row{combo: combo}
		sh.rows[key] = r
	}
	r.sum += value
	r.releases++
	return nil
}

// Snapshot returns a copy of all aggregates across shards.
func (s *MemStore) Snapshot(_ context.Context) []metric.Aggregate {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var out []metric.Aggregate
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, r := range sh.rows {
			out = append(out, metric.Aggregate{
				Combination: r.combo,
				Sum:         r.sum,
				Releases:    r.releases,
			})
		}
		sh.mu.RUnlock()
	}

	metrics.UpdateRepositoryRecordsTotal(len(out))
	return out
}

// Count returns the number of distinct combinations tracked.
func (s *MemStore) Count(_ context.Context) int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.rows)
		sh.mu.RUnlock()
	}
	return total
}
