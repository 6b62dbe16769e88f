// Package service provides the core business service that wires the
// recidivism calculation pipeline together.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/corrkit/remand/internal/adapters/mq/queue"
	workerpool "github.com/corrkit/remand/internal/adapters/mq/worker"
	repository "github.com/corrkit/remand/internal/adapters/repository"
	"github.com/corrkit/remand/internal/domain/calculator"
	"github.com/corrkit/remand/internal/domain/dedupe"
	"github.com/corrkit/remand/internal/domain/identifier"
	"github.com/corrkit/remand/internal/domain/metric"
	"github.com/corrkit/remand/internal/domain/model"
	"github.com/corrkit/remand/pkg/logger"
	"github.com/corrkit/remand/pkg/metrics"
)

// drainPollInterval is how often Drain re-checks the queue and workers.
const drainPollInterval = 10 * time.Millisecond

// Service implements the calculation pipeline for recidivism metrics.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	jobQueue   jobqueue.Queue
	engine     *calculator.Engine
	workerPool *workerpool.Pool

	// Configuration
	workerCount        int
	queueSize          int
	dedupeSize         int
	shardCount         int
	maxFollowUpPeriods int
	metricTypes        []string
	observationDate    time.Time

	// State
	jobID         string
	includedTypes map[metric.Type]bool
	submitted     atomic.Int64
	started       bool
	stopCh        chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the number of shards in the aggregation store.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithMaxFollowUpPeriods caps the follow-up periods measured per release.
func WithMaxFollowUpPeriods(periods int) Option {
	return func(s *Service) {
		if periods > 0 {
			s.maxFollowUpPeriods = periods
		}
	}
}

// WithMetricTypes selects which finished metric types to produce.
func WithMetricTypes(types []string) Option {
	return func(s *Service) {
		if len(types) > 0 {
			s.metricTypes = types
		}
	}
}

// WithObservationDate pins the date releases are observed against.
func WithObservationDate(date time.Time) Option {
	return func(s *Service) {
		if !date.IsZero() {
			s.observationDate = date
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:        runtime.NumCPU() * 4,
		queueSize:          100_000,
		dedupeSize:         50_000,
		shardCount:         8,
		maxFollowUpPeriods: 10,
		metricTypes:        []string{"ALL"},
		stopCh:             make(chan struct{}),
		logger:             nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	included, err := metric.ParseTypes(s.metricTypes)
	if err != nil {
		return fmt.Errorf("invalid metric types: %w", err)
	}
	s.includedTypes = included

	// Each run is identified once so that every produced metric carries the
	// same job id.
	s.jobID = uuid.NewString()
	s.submitted.Store(0)

	s.logger.Info(ctx, "starting recidivism calculation service...",
		logger.String("jobID", s.jobID),
	)

	// Initialize components
	s.store = repository.NewMemStore(
		repository.WithShardCount(s.shardCount),
	)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
	)

	engineOpts := []calculator.Option{
		calculator.WithMaxFollowUpPeriods(s.maxFollowUpPeriods),
	}
	if !s.observationDate.IsZero() {
		engineOpts = append(engineOpts, calculator.WithToday(s.observationDate))
	}
	s.engine = calculator.New(engineOpts...)

	// Create and start worker pool
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s.engine, s.store)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "recidivism calculation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("shardCount", s.shardCount),
		logger.Int("maxFollowUpPeriods", s.maxFollowUpPeriods),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping recidivism calculation service...")

	// Shutdown closes the queue so the workers drain what remains, then
	// waits for every worker to exit.
	if s.workerPool != nil {
		if err := s.workerPool.Shutdown(context.Background()); err != nil {
			s.logger.Warn(context.Background(), "worker pool shutdown incomplete", logger.Error(err))
		}
	} else if q, ok := s.jobQueue.(*jobqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	// Signal cleanup loop to stop
	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "recidivism calculation service stopped")
}

// JobID returns the identifier stamped on every metric of this run.
func (s *Service) JobID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobID
}

// SeenAndRecord atomically checks if a job id was seen and records it if not.
// Returns true if the job was already seen, false if it was newly recorded.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordJobDuplicate()
	}
	return seen
}

// Unrecord removes a job id from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Submit enqueues a person job for asynchronous processing. Duplicate jobs
// are accepted and dropped. Returns false when the queue rejects the job.
func (s *Service) Submit(ctx context.Context, job jobqueue.Job) bool {
	if s.SeenAndRecord(ctx, job.ID) {
		s.logger.Debug(ctx, "duplicate person job detected, skipping",
			logger.String("jobID", job.ID),
		)
		return true
	}

	ok := s.jobQueue.Enqueue(ctx, job)
	if ok {
		s.submitted.Add(1)
	} else {
		// Allow resubmission after a transient enqueue failure
		s.Unrecord(ctx, job.ID)
	}
	metrics.UpdateDedupeSize(s.deduper.Size())
	return ok
}

// SubmitPeriods identifies release events from a person's incarceration
// history and submits the resulting job.
func (s *Service) SubmitPeriods(ctx context.Context, person model.Person,
	periods []model.IncarcerationPeriod) (bool, error) {
	events, err := identifier.FindReleaseEvents(periods)
	if err != nil {
		return false, fmt.Errorf("identify release events: %w", err)
	}
	if len(events) == 0 {
		return true, nil
	}

	job := jobqueue.Job{
		ID:     fmt.Sprintf("person-%d", person.ID),
		Person: person,
		Events: events,
	}
	return s.Submit(ctx, job), nil
}

// Drain blocks until every submitted job has been processed or the context
// is canceled. Completion is judged by the pool's processed count, not the
// queue length: a job already dequeued but still in a worker's hands would
// otherwise be invisible.
func (s *Service) Drain(ctx context.Context) error {
	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()

	for {
		if s.workerPool.Processed() >= s.submitted.Load() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("drain interrupted: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Metrics reduces the aggregation store into finished recidivism metrics.
func (s *Service) Metrics(ctx context.Context) []metric.Metric {
	s.mu.RLock()
	jobID := s.jobID
	included := s.includedTypes
	s.mu.RUnlock()

	aggregates := s.store.Snapshot(ctx)
	produced := metric.Produce(jobID, aggregates, included)
	metrics.RecordMetricsProduced(len(produced))
	return produced
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		combinations := s.store.Count(ctx)

		stats["jobID"] = s.jobID
		stats["queueLength"] = queueLen
		stats["combinationKeys"] = combinations

		// Update metrics
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
