// Package calculator computes recidivism metric combinations for one
// person's release history.
//
// Given a person's demographic snapshot and their release events grouped by
// cohort year, the engine enumerates every statistical slice the person
// belongs to (demographics crossed with facility, stay length, counting
// methodology, follow-up period, and return classification) and computes a
// 0/1 indicator per slice. The output pairs are summed downstream across
// millions of people; nothing here holds state between invocations.
package calculator

import (
	"sort"
	"strconv"
	"time"

	"github.com/corrkit/remand/internal/domain/model"
)

// Reincarcerations builds a date-indexed map of every reincarceration found
// across all cohort years, keyed by reincarceration date. Non-recidivism
// events contribute nothing. Collisions on the same date are not expected;
// last write wins.
func Reincarcerations(eventsByCohort map[int][]model.ReleaseEvent) map[time.Time]model.ReturnInfo {
	index := make(map[time.Time]model.ReturnInfo)
	for _, events := range eventsByCohort {
		for _, ev := range events {
			if ev.Kind != model.KindRecidivism {
				continue
			}
			index[ev.ReincarcerationDate] = model.ReturnInfo{
				ReturnType:          ev.ReturnType,
				FromSupervisionType: ev.FromSupervisionType,
			}
		}
	}
	return index
}

// ReincarcerationsInWindow returns the return classifications of all
// reincarcerations falling within the window [start, start+years), ordered
// by ascending date. Every entry is retained distinctly; multiple
// reincarcerations in one window stay separate so event-level counting can
// see each of them.
func ReincarcerationsInWindow(start time.Time, years int, index map[time.Time]model.ReturnInfo) []model.ReturnInfo {
	end := start.AddDate(years, 0, 0)

	dates := make([]time.Time, 0, len(index))
	for d := range index {
		if !d.Before(start) && d.Before(end) {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]model.ReturnInfo, len(dates))
	for i, d := range dates {
		out[i] = index[d]
	}
	return out
}

// EarliestReincarceration returns the date and classification of the first
// reincarceration at or after the release. The third return is false when
// none exists.
func EarliestReincarceration(release time.Time, index map[time.Time]model.ReturnInfo) (time.Time, model.ReturnInfo, bool) {
	var (
		best  time.Time
		found bool
	)
	for d := range index {
		if d.Before(release) {
			continue
		}
		if !found || d.Before(best) {
			best = d
			found = true
		}
	}
	if !found {
		return time.Time{}, model.ReturnInfo{}, false
	}
	return best, index[best], true
}

// RelevantFollowUpPeriods returns the follow-up periods that have fully
// begun by today: period p is relevant iff release + (p-1) years is not
// after today. The result starts at 1 with no gaps and never exceeds
// maxPeriods; it is empty when even period 1 has not started.
func RelevantFollowUpPeriods(release, today time.Time, maxPeriods int) []int {
	var periods []int
	for p := 1; p <= maxPeriods; p++ {
		if release.AddDate(p-1, 0, 0).After(today) {
			break
		}
		periods = append(periods, p)
	}
	return periods
}

// EarliestRecidivatedFollowUpPeriod returns the smallest period p such that
// the reincarceration falls within [release+(p-1)y, release+py). A
// reincarceration on an exact anniversary belongs to the period ending on
// that date, not the one starting there. The second return is false when no
// reincarceration date is given.
func EarliestRecidivatedFollowUpPeriod(release, reincarceration time.Time) (int, bool) {
	if reincarceration.IsZero() {
		return 0, false
	}

	years := reincarceration.Year() - release.Year()
	anniversary := release.AddDate(years, 0, 0)
	if reincarceration.Before(anniversary) {
		years--
		anniversary = release.AddDate(years, 0, 0)
	}
	if reincarceration.After(anniversary) {
		return years + 1, true
	}
	// Exact anniversary: counted in the earlier period.
	if years < 1 {
		return 1, true
	}
	return years, true
}

// AgeAtDate returns the person's age on the given date. The second return
// is false when the birthdate is unknown.
func AgeAtDate(person model.Person, date time.Time) (int, bool) {
	if !person.HasBirthdate() {
		return 0, false
	}
	b := person.Birthdate
	age := date.Year() - b.Year()
	if date.Month() < b.Month() ||
		(date.Month() == b.Month() && date.Day() < b.Day()) {
		age--
	}
	return age, true
}

// AgeBucket maps an age to its reporting bucket: <25, 25-29, 30-34, 35-39,
// 40<.
func AgeBucket(age int) string {
	switch {
	case age < 25:
		return "<25"
	case age <= 29:
		return "25-29"
	case age <= 34:
		return "30-34"
	case age <= 39:
		return "35-39"
	default:
		return "40<"
	}
}

// StayLengthFromEvent computes the whole months between original admission
// and release. The second return is false when either date is unknown.
func StayLengthFromEvent(ev model.ReleaseEvent) (int, bool) {
	if ev.OriginalAdmissionDate.IsZero() || ev.ReleaseDate.IsZero() {
		return 0, false
	}
	a, r := ev.OriginalAdmissionDate, ev.ReleaseDate
	months := (r.Year()-a.Year())*12 + int(r.Month()) - int(a.Month())
	if r.Day() < a.Day() {
		months--
	}
	return months, true
}

// StayLengthBucket maps a stay length in months to a 12-month reporting
// bucket: <12, 12-24, ..., 108-120, 120<.
func StayLengthBucket(months int) string {
	switch {
	case months < 12:
		return "<12"
	case months >= 120:
		return "120<"
	default:
		low := (months / 12) * 12
		return strconv.Itoa(low) + "-" + strconv.Itoa(low+12)
	}
}

// ForCharacteristics returns the full powerset of the given characteristics,
// including the empty combination. The result is deterministic for the same
// input: subsets are emitted smallest first over sorted dimension names.
func ForCharacteristics(characteristics Combination) []Combination {
	keys := make([]string, 0, len(characteristics))
	for k := range characteristics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	combos := []Combination{{}}
	for size := 1; size <= len(keys); size++ {
		for _, subset := range subsetsOfSize(keys, size) {
			combo := make(Combination, size)
			for _, k := range subset {
				combo[k] = characteristics[k]
			}
			combos = append(combos, combo)
		}
	}
	return combos
}

// subsetsOfSize enumerates all size-k subsets of keys in lexicographic order.
func subsetsOfSize(keys []string, k int) [][]string {
	var out [][]string
	var rec func(start int, cur []string)
	rec = func(start int, cur []string) {
		if len(cur) == k {
			out = append(out, append([]string(nil), cur...))
			return
		}
		for i := start; i <= len(keys)-(k-len(cur)); i++ {
			rec(i+1, append(cur, keys[i]))
		}
	}
	rec(0, nil)
	return out
}

// ForCharacteristicsRacesEthnicities crosses the characteristic powerset
// with the person's race and ethnicity records: the bare powerset, a copy
// per race, a copy per ethnicity, and a copy per race-ethnicity pair. Zero
// races or ethnicities simply omit those branches; no combination ever
// carries an empty race or ethnicity value.
func ForCharacteristicsRacesEthnicities(races []model.RaceRecord, ethnicities []model.EthnicityRecord,
	characteristics Combination) []Combination {
	base := ForCharacteristics(characteristics)

	combos := make([]Combination, 0, len(base)*(1+len(races))*(1+len(ethnicities)))
	combos = append(combos, base...)

	for _, race := range races {
		for _, combo := range base {
			combos = append(combos, AugmentCombination(combo, Combination{DimRace: string(race.Race)}))
		}
	}
	for _, eth := range ethnicities {
		for _, combo := range base {
			combos = append(combos, AugmentCombination(combo, Combination{DimEthnicity: string(eth.Ethnicity)}))
		}
	}
	for _, race := range races {
		for _, eth := range ethnicities {
			for _, combo := range base {
				combos = append(combos, AugmentCombination(combo, Combination{
					DimRace:      string(race.Race),
					DimEthnicity: string(eth.Ethnicity),
				}))
			}
		}
	}
	return combos
}

// CharacteristicCombinations assembles the base characteristics for one
// release event (gender, age bucket at release, stay-length bucket, release
// facility) and crosses them with the person's races and ethnicities.
// Unknown attributes are silently omitted from the base set.
func CharacteristicCombinations(person model.Person, ev model.ReleaseEvent) []Combination {
	characteristics := Combination{}
	if ev.ReleaseFacility != "" {
		characteristics[DimReleaseFacility] = ev.ReleaseFacility
	}
	if months, ok := StayLengthFromEvent(ev); ok {
		characteristics[DimStayLength] = StayLengthBucket(months)
	}
	if age, ok := AgeAtDate(person, ev.ReleaseDate); ok {
		characteristics[DimAge] = AgeBucket(age)
	}
	if person.Gender != "" {
		characteristics[DimGender] = string(person.Gender)
	}
	return ForCharacteristicsRacesEthnicities(person.Races, person.Ethnicities, characteristics)
}

// AugmentedComboList produces the five return-classification variants of
// the base combination for one methodology and follow-up period: no return
// type, NEW_ADMISSION, REVOCATION, REVOCATION from parole, and REVOCATION
// from probation. Every variant carries the methodology and period.
func AugmentedComboList(base Combination, methodology Methodology, followUpPeriod int) []Combination {
	stamped := AugmentCombination(base, Combination{
		DimMethodology:    string(methodology),
		DimFollowUpPeriod: strconv.Itoa(followUpPeriod),
	})

	return []Combination{
		stamped,
		AugmentCombination(stamped, Combination{DimReturnType: string(model.ReturnNewAdmission)}),
		AugmentCombination(stamped, Combination{DimReturnType: string(model.ReturnRevocation)}),
		AugmentCombination(stamped, Combination{
			DimReturnType:          string(model.ReturnRevocation),
			DimFromSupervisionType: string(model.SupervisionParole),
		}),
		AugmentCombination(stamped, Combination{
			DimReturnType:          string(model.ReturnRevocation),
			DimFromSupervisionType: string(model.SupervisionProbation),
		}),
	}
}

// RecidivismValueForMetric decides whether the actual outcome satisfies the
// combination. A nil actual means no reincarceration was observed in the
// window being measured, so only combinations without a return-type
// dimension could match, and even those count 0 because no recidivism
// occurred.
func RecidivismValueForMetric(combo Combination, actual *model.ReturnInfo) int {
	if actual == nil {
		return 0
	}
	if !combo.Has(DimReturnType) {
		return 1
	}
	if combo[DimReturnType] != string(actual.ReturnType) {
		return 0
	}
	if !combo.Has(DimFromSupervisionType) {
		return 1
	}
	if combo[DimFromSupervisionType] == string(actual.FromSupervisionType) {
		return 1
	}
	return 0
}
