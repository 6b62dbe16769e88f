// Package metric turns aggregated combination sums into the named metrics
// persisted downstream.
package metric

import (
	"fmt"

	"github.com/corrkit/remand/internal/domain/calculator"
)

// Type discriminates the closed set of metric variants.
type Type string

// Metric variants.
const (
	TypeRate  Type = "RATE"
	TypeCount Type = "COUNT"
)

// ParseTypes normalizes a configured list of metric type names. "ALL"
// enables every variant.
func ParseTypes(names []string) (map[Type]bool, error) {
	included := map[Type]bool{TypeRate: false, TypeCount: false}
	for _, name := range names {
		switch name {
		case "ALL":
			included[TypeRate] = true
			included[TypeCount] = true
		case string(TypeRate):
			included[TypeRate] = true
		case string(TypeCount):
			included[TypeCount] = true
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
		}
	}
	return included, nil
}

// Dimensions is the flattened slice identity shared by both metric variants.
// Empty fields mean the dimension was not part of the combination.
type Dimensions struct {
	Gender              string `json:"gender,omitempty"`
	AgeBucket           string `json:"age_bucket,omitempty"`
	Race                string `json:"race,omitempty"`
	Ethnicity           string `json:"ethnicity,omitempty"`
	StayLengthBucket    string `json:"stay_length_bucket,omitempty"`
	ReleaseFacility     string `json:"release_facility,omitempty"`
	Methodology         string `json:"methodology,omitempty"`
	FollowUpPeriod      int    `json:"follow_up_period,omitempty"`
	ReturnType          string `json:"return_type,omitempty"`
	FromSupervisionType string `json:"from_supervision_type,omitempty"`
}

// RateMetric reports the share of releases followed by recidivism for one
// slice.
type RateMetric struct {
	JobID string `json:"job_id"`
	Dimensions

	TotalReleases       int     `json:"total_releases"`
	RecidivatedReleases int     `json:"recidivated_releases"`
	RecidivismRate      float64 `json:"recidivism_rate"`
}

// CountMetric reports the number of qualifying returns for one slice.
type CountMetric struct {
	JobID string `json:"job_id"`
	Dimensions

	Returns int `json:"returns"`
}

// Metric is a closed tagged union over the metric variants. Exactly one of
// Rate and Count is non-nil, matching Type; routing code switches on Type
// exhaustively.
type Metric struct {
	Type  Type         `json:"metric_type"`
	Rate  *RateMetric  `json:"rate,omitempty"`
	Count *CountMetric `json:"count,omitempty"`
}

// Aggregate is one row of the reduce stage: a combination together with its
// summed indicator values and the number of contributions summed.
type Aggregate struct {
	Combination calculator.Combination
	Sum         int
	Releases    int
}

// Produce converts aggregates to metrics for the enabled types. The job id
// is computed once per run by the caller and threaded through explicitly.
func Produce(jobID string, aggregates []Aggregate, included map[Type]bool) []Metric {
	out := make([]Metric, 0, len(aggregates)*2)
	for _, agg := range aggregates {
		dims := dimensionsFrom(agg.Combination)

		if included[TypeRate] && agg.Releases > 0 {
			out = append(out, Metric{
				Type: TypeRate,
				Rate: &RateMetric{
					JobID:               jobID,
					Dimensions:          dims,
					TotalReleases:       agg.Releases,
					RecidivatedReleases: agg.Sum,
					RecidivismRate:      float64(agg.Sum) / float64(agg.Releases),
				},
			})
		}
		if included[TypeCount] {
			out = append(out, Metric{
				Type: TypeCount,
				Count: &CountMetric{
					JobID:      jobID,
					Dimensions: dims,
					Returns:    agg.Sum,
				},
			})
		}
	}
	return out
}

// dimensionsFrom flattens a combination into the fixed dimension fields.
func dimensionsFrom(combo calculator.Combination) Dimensions {
	return Dimensions{
		Gender:              combo[calculator.DimGender],
		AgeBucket:           combo[calculator.DimAge],
		Race:                combo[calculator.DimRace],
		Ethnicity:           combo[calculator.DimEthnicity],
		StayLengthBucket:    combo[calculator.DimStayLength],
		ReleaseFacility:     combo[calculator.DimReleaseFacility],
		Methodology:         combo[calculator.DimMethodology],
		FollowUpPeriod:      combo.FollowUpPeriod(),
		ReturnType:          combo[calculator.DimReturnType],
		FromSupervisionType: combo[calculator.DimFromSupervisionType],
	}
}
