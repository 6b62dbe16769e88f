package repository_test

import (
	"context"
	"sync"
	"testing"

	repository "github.com/corrkit/remand/internal/adapters/repository"
	"github.com/corrkit/remand/internal/domain/calculator"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemStore(t *testing.T) {
	ctx := context.Background()

	combo := calculator.Combination{
		calculator.DimGender:         "FEMALE",
		calculator.DimMethodology:    "PERSON",
		calculator.DimFollowUpPeriod: "2",
	}

	Convey("Given an empty store", t, func() {
		store := repository.NewMemStore()

		Convey("When folding values into one combination", func() {
			So(store.Add(ctx, combo, 1), ShouldBeNil)
			So(store.Add(ctx, combo, 0), ShouldBeNil)
			So(store.Add(ctx, combo, 1), ShouldBeNil)

			Convey("Then one aggregate tracks the sum and contribution count", func() {
				aggregates := store.Snapshot(ctx)
				So(aggregates, ShouldHaveLength, 1)
				So(aggregates[0].Sum, ShouldEqual, 2)
				So(aggregates[0].Releases, ShouldEqual, 3)
				So(aggregates[0].Combination.Key(), ShouldEqual, combo.Key())
			})

			Convey("And the key count reflects distinct combinations", func() {
				So(store.Count(ctx), ShouldEqual, 1)

				other := calculator.Combination{calculator.DimMethodology: "EVENT"}
				So(store.Add(ctx, other, 0), ShouldBeNil)
				So(store.Count(ctx), ShouldEqual, 2)
			})
		})

		Convey("When equivalent combinations are built independently", func() {
			twin := calculator.Combination{
				calculator.DimFollowUpPeriod: "2",
				calculator.DimMethodology:    "PERSON",
				calculator.DimGender:         "FEMALE",
			}
			So(store.Add(ctx, combo, 1), ShouldBeNil)
			So(store.Add(ctx, twin, 1), ShouldBeNil)

			Convey("Then they fold into the same aggregate", func() {
				So(store.Count(ctx), ShouldEqual, 1)
				So(store.Snapshot(ctx)[0].Sum, ShouldEqual, 2)
			})
		})

		Convey("When a value outside the indicator range arrives", func() {
			err := store.Add(ctx, combo, 2)

			Convey("Then the store rejects it untouched", func() {
				So(err, ShouldEqual, repository.ErrInvalidValue)
				So(store.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When nothing was added", func() {
			So(store.Snapshot(ctx), ShouldBeEmpty)
			So(store.Count(ctx), ShouldEqual, 0)
		})
	})

	Convey("Given a store with a single shard", t, func() {
		store := repository.NewMemStore(repository.WithShardCount(1))

		Convey("Then folding still works", func() {
			So(store.Add(ctx, combo, 1), ShouldBeNil)
			So(store.Count(ctx), ShouldEqual, 1)
		})
	})

	Convey("Given many workers folding concurrently", t, func() {
		store := repository.NewMemStore()

		const goroutines = 16
		const perGoroutine = 200

		var wg sync.WaitGroup
		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < perGoroutine; j++ {
					_ = store.Add(ctx, combo, j%2)
				}
			}()
		}
		wg.Wait()

		Convey("Then no contribution is lost", func() {
			aggregates := store.Snapshot(ctx)
			So(aggregates, ShouldHaveLength, 1)
			So(aggregates[0].Releases, ShouldEqual, goroutines*perGoroutine)
			So(aggregates[0].Sum, ShouldEqual, goroutines*perGoroutine/2)
		})
	})
}
