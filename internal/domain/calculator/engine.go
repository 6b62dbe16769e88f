package calculator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/corrkit/remand/internal/domain/model"
)

// Default engine configuration constants.
const (
	defaultMaxFollowUpPeriods = 10
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithMaxFollowUpPeriods caps how many follow-up periods are measured per
// release.
func WithMaxFollowUpPeriods(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxPeriods = n
		}
	}
}

// WithToday fixes the observation horizon used for window eligibility.
// Supplying it makes results reproducible for a fixed run.
func WithToday(today time.Time) Option {
	return func(e *Engine) {
		if !today.IsZero() {
			e.today = today
		}
	}
}

// Engine maps one person's release history to metric combinations. It is
// pure and deterministic: no shared state, no I/O, safe to invoke from any
// number of goroutines at once.
type Engine struct {
	maxPeriods int
	today      time.Time
}

// New constructs an Engine with configuration options.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxPeriods: defaultMaxFollowUpPeriods,
		today:      time.Now().UTC().Truncate(24 * time.Hour),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MapCombinations enumerates every (combination, value) pair for the
// person's release events. For each event and each fully elapsed follow-up
// period, the person-based variants are valued against the earliest
// reincarceration after the release once its recidivated period is reached,
// and the event-based variants are valued once per reincarceration in the
// window (a single pass with no actual outcome when the window is empty).
//
// It fails only on structurally invalid events; empty input and
// out-of-horizon events are normal zero-producing paths.
func (e *Engine) MapCombinations(ctx context.Context, person model.Person,
	eventsByCohort map[int][]model.ReleaseEvent) ([]Pair, error) {
	for _, events := range eventsByCohort {
		for _, ev := range events {
			if err := ev.Validate(); err != nil {
				return nil, fmt.Errorf("person %d: %w", person.ID, err)
			}
		}
	}

	index := Reincarcerations(eventsByCohort)

	cohorts := make([]int, 0, len(eventsByCohort))
	for year := range eventsByCohort {
		cohorts = append(cohorts, year)
	}
	sort.Ints(cohorts)

	var pairs []Pair
	for _, year := range cohorts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, ev := range eventsByCohort[year] {
			pairs = append(pairs, e.mapEventCombinations(person, ev, index)...)
		}
	}
	return pairs, nil
}

// mapEventCombinations emits all pairs for a single release event.
func (e *Engine) mapEventCombinations(person model.Person, ev model.ReleaseEvent,
	index map[time.Time]model.ReturnInfo) []Pair {
	characteristics := CharacteristicCombinations(person, ev)
	periods := RelevantFollowUpPeriods(ev.ReleaseDate, e.today, e.maxPeriods)

	// The earliest reincarceration after the release drives the
	// person-based valuation: the person counts as recidivated from its
	// earliest follow-up period onward, with a return on an exact
	// anniversary belonging to the earlier period.
	reincDate, reincInfo, recidivated := EarliestReincarceration(ev.ReleaseDate, index)
	earliestPeriod := 0
	if recidivated {
		earliestPeriod, _ = EarliestRecidivatedFollowUpPeriod(ev.ReleaseDate, reincDate)
	}

	var pairs []Pair
	for _, period := range periods {
		window := ReincarcerationsInWindow(ev.ReleaseDate, period, index)

		var personActual *model.ReturnInfo
		if recidivated && earliestPeriod <= period {
			personActual = &reincInfo
		}

		for _, combo := range characteristics {
			for _, augmented := range AugmentedComboList(combo, MethodologyPerson, period) {
				pairs = append(pairs, Pair{augmented, RecidivismValueForMetric(augmented, personActual)})
			}

			if len(window) == 0 {
				// A single pass with no actual outcome keeps the
				// no-recidivism slices represented at the event level.
				for _, augmented := range AugmentedComboList(combo, MethodologyEvent, period) {
					pairs = append(pairs, Pair{augmented, RecidivismValueForMetric(augmented, nil)})
				}
				continue
			}
			for i := range window {
				for _, augmented := range AugmentedComboList(combo, MethodologyEvent, period) {
					pairs = append(pairs, Pair{augmented, RecidivismValueForMetric(augmented, &window[i])})
				}
			}
		}
	}
	return pairs
}
