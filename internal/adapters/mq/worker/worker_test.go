package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/corrkit/remand/internal/adapters/mq/queue"
	worker "github.com/corrkit/remand/internal/adapters/mq/worker"
	"github.com/corrkit/remand/internal/domain/calculator"
	"github.com/corrkit/remand/internal/domain/model"
	"github.com/corrkit/remand/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

// stubCalculator returns a fixed pair list, or an error, per invocation.
type stubCalculator struct {
	pairs []calculator.Pair
	err   error

	mu    sync.Mutex
	calls int
}

func (s *stubCalculator) MapCombinations(_ context.Context, _ model.Person,
	_ map[int][]model.ReleaseEvent) ([]calculator.Pair, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.pairs, nil
}

func (s *stubCalculator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// collectingUpdater records every folded pair.
type collectingUpdater struct {
	mu    sync.Mutex
	pairs []calculator.Pair
	err   error
}

func (u *collectingUpdater) Add(_ context.Context, combo calculator.Combination, value int) error {
	if u.err != nil {
		return u.err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pairs = append(u.pairs, calculator.Pair{Combination: combo, Value: value})
	return nil
}

func (u *collectingUpdater) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.pairs)
}

// slowUpdater folds pairs with a fixed delay per call.
type slowUpdater struct {
	collectingUpdater
	delay time.Duration
}

func (u *slowUpdater) Add(ctx context.Context, combo calculator.Combination, value int) error {
	time.Sleep(u.delay)
	return u.collectingUpdater.Add(ctx, combo, value)
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func testJob(id string) worker.Job {
	return worker.Job{
		ID:     id,
		Person: model.Person{ID: 1, Gender: model.GenderFemale},
		Events: map[int][]model.ReleaseEvent{
			2008: {
				model.NewNonRecidivismEvent(
					time.Date(2005, time.July, 19, 0, 0, 0, 0, time.UTC),
					time.Date(2008, time.September, 19, 0, 0, 0, 0, time.UTC),
					"Hudson"),
			},
		},
	}
}

func TestWorkerPool(t *testing.T) {
	Convey("Given a pool over a queue with a stub calculator", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		calc := &stubCalculator{
			pairs: []calculator.Pair{
				{Combination: calculator.Combination{calculator.DimMethodology: "PERSON"}, Value: 1},
				{Combination: calculator.Combination{calculator.DimMethodology: "EVENT"}, Value: 0},
			},
		}
		updater := &collectingUpdater{}

		pool := worker.NewPool(2, q, calc, updater)
		pool.Start(ctx)

		Convey("When jobs are enqueued", func() {
			So(q.Enqueue(ctx, testJob("person-1")), ShouldBeTrue)
			So(q.Enqueue(ctx, testJob("person-2")), ShouldBeTrue)

			Convey("Then every pair of every job is folded", func() {
				So(waitFor(2*time.Second, func() bool { return updater.count() == 4 }), ShouldBeTrue)
				So(calc.callCount(), ShouldEqual, 2)
				So(pool.InFlight(), ShouldEqual, 0)
			})
		})

		Convey("When the pool shuts down with the queue closed", func() {
			So(q.Close(), ShouldBeNil)

			Convey("Then shutdown returns cleanly", func() {
				So(pool.Shutdown(ctx), ShouldBeNil)
			})
		})
	})

	Convey("Given a pool over a slow store", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		calc := &stubCalculator{
			pairs: []calculator.Pair{
				{Combination: calculator.Combination{calculator.DimMethodology: "PERSON"}, Value: 1},
				{Combination: calculator.Combination{calculator.DimMethodology: "EVENT"}, Value: 0},
			},
		}
		updater := &slowUpdater{delay: 200 * time.Millisecond}

		pool := worker.NewPool(1, q, calc, updater)
		pool.Start(ctx)
		defer pool.Stop()

		Convey("When a job is dequeued but not yet folded", func() {
			So(q.Enqueue(ctx, testJob("person-1")), ShouldBeTrue)
			So(waitFor(2*time.Second, func() bool { return q.Len(ctx) == 0 }), ShouldBeTrue)

			Convey("Then the queue is already empty but the job is not counted as processed", func() {
				So(pool.Processed(), ShouldEqual, 0)
			})

			Convey("And once counted, every pair has reached the store", func() {
				So(waitFor(2*time.Second, func() bool { return pool.Processed() == 1 }), ShouldBeTrue)
				So(updater.count(), ShouldEqual, 2)
				So(pool.InFlight(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a calculator that fails", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		calc := &stubCalculator{err: errors.New("bad history")}
		updater := &collectingUpdater{}

		pool := worker.NewPool(1, q, calc, updater)
		pool.Start(ctx)
		defer pool.Stop()

		Convey("When a job is processed", func() {
			So(q.Enqueue(ctx, testJob("person-1")), ShouldBeTrue)
			So(waitFor(2*time.Second, func() bool { return calc.callCount() == 1 }), ShouldBeTrue)

			Convey("Then nothing reaches the store and the pool keeps running", func() {
				So(updater.count(), ShouldEqual, 0)

				So(q.Enqueue(ctx, testJob("person-2")), ShouldBeTrue)
				So(waitFor(2*time.Second, func() bool { return calc.callCount() == 2 }), ShouldBeTrue)
			})
		})
	})

	Convey("Given an updater that fails", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		calc := &stubCalculator{
			pairs: []calculator.Pair{
				{Combination: calculator.Combination{calculator.DimMethodology: "PERSON"}, Value: 1},
			},
		}
		updater := &collectingUpdater{err: errors.New("store unavailable")}

		pool := worker.NewPool(1, q, calc, updater)
		pool.Start(ctx)
		defer pool.Stop()

		Convey("When a job is processed", func() {
			So(q.Enqueue(ctx, testJob("person-1")), ShouldBeTrue)

			Convey("Then the worker survives the failure", func() {
				So(waitFor(2*time.Second, func() bool { return calc.callCount() == 1 }), ShouldBeTrue)
				So(waitFor(2*time.Second, func() bool { return pool.InFlight() == 0 }), ShouldBeTrue)
			})
		})
	})

	Convey("Given a single worker", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		calc := &stubCalculator{}
		updater := &collectingUpdater{}

		w := worker.NewInMemoryWorker(q, calc, updater, worker.WithName("worker-test"))
		go w.Run(ctx)

		Convey("When it is shut down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			Convey("Then it stops within the deadline", func() {
				So(w.Shutdown(shutdownCtx), ShouldBeNil)
			})
		})
	})
}
