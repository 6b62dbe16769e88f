package metric_test

import (
	"errors"
	"testing"

	"github.com/corrkit/remand/internal/domain/calculator"
	metric "github.com/corrkit/remand/internal/domain/metric"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseTypes(t *testing.T) {
	Convey("Given metric type names", t, func() {
		Convey("When ALL is requested", func() {
			included, err := metric.ParseTypes([]string{"ALL"})
			So(err, ShouldBeNil)
			So(included[metric.TypeRate], ShouldBeTrue)
			So(included[metric.TypeCount], ShouldBeTrue)
		})

		Convey("When only RATE is requested", func() {
			included, err := metric.ParseTypes([]string{"RATE"})
			So(err, ShouldBeNil)
			So(included[metric.TypeRate], ShouldBeTrue)
			So(included[metric.TypeCount], ShouldBeFalse)
		})

		Convey("When the list is empty", func() {
			included, err := metric.ParseTypes(nil)
			So(err, ShouldBeNil)
			So(included[metric.TypeRate], ShouldBeFalse)
			So(included[metric.TypeCount], ShouldBeFalse)
		})

		Convey("When the name is unknown", func() {
			_, err := metric.ParseTypes([]string{"LIBERATION"})
			So(errors.Is(err, metric.ErrUnknownType), ShouldBeTrue)
		})
	})
}

func TestProduce(t *testing.T) {
	Convey("Given an aggregate row for one slice", t, func() {
		aggregates := []metric.Aggregate{
			{
				Combination: calculator.Combination{
					calculator.DimGender:         "FEMALE",
					calculator.DimMethodology:    "PERSON",
					calculator.DimFollowUpPeriod: "3",
				},
				Sum:      2,
				Releases: 8,
			},
		}
		all := map[metric.Type]bool{metric.TypeRate: true, metric.TypeCount: true}

		Convey("When producing all metric types", func() {
			out := metric.Produce("job-1", aggregates, all)

			Convey("Then one rate and one count metric come back", func() {
				So(out, ShouldHaveLength, 2)
				So(out[0].Type, ShouldEqual, metric.TypeRate)
				So(out[0].Rate, ShouldNotBeNil)
				So(out[0].Count, ShouldBeNil)
				So(out[1].Type, ShouldEqual, metric.TypeCount)
				So(out[1].Count, ShouldNotBeNil)
				So(out[1].Rate, ShouldBeNil)
			})

			Convey("And the rate divides sum by releases", func() {
				So(out[0].Rate.TotalReleases, ShouldEqual, 8)
				So(out[0].Rate.RecidivatedReleases, ShouldEqual, 2)
				So(out[0].Rate.RecidivismRate, ShouldEqual, 0.25)
			})

			Convey("And both carry the run's job id and dimensions", func() {
				So(out[0].Rate.JobID, ShouldEqual, "job-1")
				So(out[1].Count.JobID, ShouldEqual, "job-1")
				So(out[0].Rate.Gender, ShouldEqual, "FEMALE")
				So(out[0].Rate.Methodology, ShouldEqual, "PERSON")
				So(out[0].Rate.FollowUpPeriod, ShouldEqual, 3)
				So(out[1].Count.Returns, ShouldEqual, 2)
			})
		})

		Convey("When only counts are enabled", func() {
			out := metric.Produce("job-1", aggregates, map[metric.Type]bool{metric.TypeCount: true})
			So(out, ShouldHaveLength, 1)
			So(out[0].Type, ShouldEqual, metric.TypeCount)
		})

		Convey("When no types are enabled", func() {
			out := metric.Produce("job-1", aggregates, map[metric.Type]bool{})
			So(out, ShouldBeEmpty)
		})
	})

	Convey("Given an aggregate with zero releases", t, func() {
		aggregates := []metric.Aggregate{
			{Combination: calculator.Combination{calculator.DimMethodology: "EVENT"}, Sum: 0, Releases: 0},
		}

		Convey("When producing all metric types", func() {
			out := metric.Produce("job-1", aggregates,
				map[metric.Type]bool{metric.TypeRate: true, metric.TypeCount: true})

			Convey("Then no rate is emitted for an undefined denominator", func() {
				So(out, ShouldHaveLength, 1)
				So(out[0].Type, ShouldEqual, metric.TypeCount)
			})
		})
	})
}
