package calculator

import (
	"sort"
	"strconv"
	"strings"
)

// Dimension names used as combination keys.
const (
	DimGender              = "gender"
	DimAge                 = "age"
	DimRace                = "race"
	DimEthnicity           = "ethnicity"
	DimStayLength          = "stay_length"
	DimReleaseFacility     = "release_facility"
	DimMethodology         = "methodology"
	DimFollowUpPeriod      = "follow_up_period"
	DimReturnType          = "return_type"
	DimFromSupervisionType = "from_supervision_type"
)

// Methodology selects how occurrences are counted: once per person per
// period, or once per qualifying event.
type Methodology string

// Counting methodologies.
const (
	MethodologyPerson Methodology = "PERSON"
	MethodologyEvent  Methodology = "EVENT"
)

// Combination identifies one reportable statistical slice: an unordered
// mapping from dimension name to value. Only a subset of dimensions is
// present on any given combination. Two combinations are equal iff their
// key/value mappings are equal; they carry no identity beyond key content.
type Combination map[string]string

// Pair couples a combination with its 0/1 indicator value, ready for
// downstream sum-aggregation.
type Pair struct {
	Combination Combination
	Value       int
}

// clone returns a copy that can be augmented without touching the original.
func (c Combination) clone() Combination {
	out := make(Combination, len(c)+4)
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Has reports whether the dimension is present.
func (c Combination) Has(dim string) bool {
	_, ok := c[dim]
	return ok
}

// FollowUpPeriod returns the follow-up period dimension as an integer.
// It returns 0 if the dimension is absent or malformed.
func (c Combination) FollowUpPeriod() int {
	p, err := strconv.Atoi(c[DimFollowUpPeriod])
	if err != nil {
		return 0
	}
	return p
}

// Key returns a canonical string form of the combination, stable across
// runs, for use as a grouping key in the reduce stage.
func (c Combination) Key() string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(c[k])
	}
	return b.String()
}

// AugmentCombination returns a copy of combo with the given dimensions
// added. Existing dimensions are overwritten on the copy; combo itself is
// never modified.
func AugmentCombination(combo Combination, dims Combination) Combination {
	out := combo.clone()
	for k, v := range dims {
		out[k] = v
	}
	return out
}
