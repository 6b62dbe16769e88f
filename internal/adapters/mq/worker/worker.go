// Package worker defines worker contracts for mapping person jobs to metric
// combinations and folding them into the aggregation store.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/corrkit/remand/internal/domain/calculator"
	"github.com/corrkit/remand/internal/domain/model"
	"github.com/corrkit/remand/pkg/logger"
	"github.com/corrkit/remand/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = model.PersonJob

// Calculator maps one person's release history to combination/value pairs.
type Calculator interface {
	MapCombinations(ctx context.Context, person model.Person,
		eventsByCohort map[int][]model.ReleaseEvent) ([]calculator.Pair, error)
}

// Updater folds emitted pairs into the reduce stage.
type Updater interface {
	Add(ctx context.Context, combo calculator.Combination, value int) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes person jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing person jobs.
type InMemoryWorker struct {
	queue   Queue
	calc    Calculator
	updater Updater
	name    string

	inFlight  *atomic.Int64
	processed *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
			w.logger = logger.Get().Named(name)
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, calc Calculator, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		calc:      calc,
		updater:   updater,
		name:      "worker",
		inFlight:  &atomic.Int64{},
		processed: &atomic.Int64{},
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.inFlight.Add(1)
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing person job", logger.Error(err))
			}
			w.inFlight.Add(-1)
			// Count after the job's pairs are folded, success or not, so
			// completion checks never run ahead of the store.
			w.processed.Add(1)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob maps one person to combinations and folds every pair into the
// aggregation store.
func (w *InMemoryWorker) processJob(ctx context.Context, job Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	calcStart := time.Now()
	pairs, err := w.calc.MapCombinations(ctx, job.Person, job.Events)
	metrics.RecordCalculationLatency(float64(time.Since(calcStart).Milliseconds()))

	if err != nil {
		metrics.RecordCalculationError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "calculation_error")
		w.logger.Error(ctx, "calculation failed for person job",
			logger.String("jobID", job.ID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to calculate job %s: %w", job.ID, err)
	}

	for _, pair := range pairs {
		if err := w.updater.Add(ctx, pair.Combination, pair.Value); err != nil {
			metrics.RecordAggregationError()
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "aggregation_error")
			w.logger.Error(ctx, "aggregation failed for person job",
				logger.String("jobID", job.ID),
				logger.Error(err),
			)
			return fmt.Errorf("aggregation failed: %w", err)
		}
	}

	metrics.RecordPersonProcessed()
	metrics.RecordPairsEmitted(len(pairs))
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	calc    Calculator
	updater Updater

	inFlight  atomic.Int64
	processed atomic.Int64

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, calc Calculator, updater Updater) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		calc:     calc,
		updater:  updater,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			q,
			calc,
			updater,
			WithName("worker-"+strconv.Itoa(i)),
		)
		pool.workers[i].inFlight = &pool.inFlight
		pool.workers[i].processed = &pool.processed
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// InFlight returns the number of jobs currently being processed.
func (p *Pool) InFlight() int {
	return int(p.inFlight.Load())
}

// Processed returns the number of jobs fully processed so far. A job counts
// only once every pair it produced has been folded into the store, so a job
// dequeued but still in a worker's hands is not yet counted.
func (p *Pool) Processed() int64 {
	return p.processed.Load()
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, w := range p.workers {
		select {
		case <-w.shutdown:
		default:
			close(w.shutdown)
		}
	}

	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown drains the queue and stops the pool, honoring the context
// deadline.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
