// Package identifier classifies a person's incarceration periods into
// release events, deciding per release whether a later admission counts as a
// qualifying reincarceration. The calculator treats the resulting events as
// opaque input; all classification policy lives here.
package identifier

import (
	"fmt"
	"sort"
	"time"

	"github.com/corrkit/remand/internal/domain/model"
)

// FindReleaseEvents walks the person's incarceration periods in
// chronological order and produces release events grouped by cohort year
// (the year of release).
//
// A release starts a cohort only when the period actually ended in a release
// to liberty; transfers between facilities neither end a stay nor count as
// reincarcerations. The first later admission with a qualifying reason turns
// the release into a recidivism event.
func FindReleaseEvents(periods []model.IncarcerationPeriod) (map[int][]model.ReleaseEvent, error) {
	usable := make([]model.IncarcerationPeriod, 0, len(periods))
	for _, p := range periods {
		if p.AdmissionDate.IsZero() {
			// Nothing to anchor the stay on; skip rather than guess.
			continue
		}
		if p.Released() && p.ReleaseDate.Before(p.AdmissionDate) {
			return nil, fmt.Errorf("%w: period %d released %s before admission %s",
				model.ErrInvalidPeriod, p.ID,
				p.ReleaseDate.Format("2006-01-02"), p.AdmissionDate.Format("2006-01-02"))
		}
		usable = append(usable, p)
	}

	sort.Slice(usable, func(i, j int) bool {
		return usable[i].AdmissionDate.Before(usable[j].AdmissionDate)
	})

	eventsByCohort := make(map[int][]model.ReleaseEvent)
	for i, p := range usable {
		if !countsAsRelease(p) {
			continue
		}

		next, found := nextReincarceration(usable[i+1:], p.ReleaseDate)
		if !found {
			ev := model.NewNonRecidivismEvent(p.AdmissionDate, p.ReleaseDate, p.Facility)
			eventsByCohort[p.ReleaseDate.Year()] = append(eventsByCohort[p.ReleaseDate.Year()], ev)
			continue
		}

		returnType, fromSupervision := classifyReturn(next.AdmissionReason)
		ev := model.NewRecidivismEvent(p.AdmissionDate, p.ReleaseDate, p.Facility,
			next.AdmissionDate, next.Facility, returnType, fromSupervision)
		eventsByCohort[p.ReleaseDate.Year()] = append(eventsByCohort[p.ReleaseDate.Year()], ev)
	}

	if len(eventsByCohort) == 0 {
		return nil, nil
	}
	return eventsByCohort, nil
}

// countsAsRelease reports whether the period ended in a release that starts
// a follow-up cohort.
func countsAsRelease(p model.IncarcerationPeriod) bool {
	if !p.Released() {
		return false
	}
	switch p.ReleaseReason {
	case model.ReleaseSentenceServed, model.ReleaseConditional, model.ReleaseCourtOrder:
		return true
	default:
		return false
	}
}

// nextReincarceration finds the first period admitted after the release date
// for a reason that qualifies as a return to incarceration.
func nextReincarceration(later []model.IncarcerationPeriod, release time.Time) (model.IncarcerationPeriod, bool) {
	for _, p := range later {
		if !p.AdmissionDate.After(release) {
			continue
		}
		switch p.AdmissionReason {
		case model.AdmissionNewCommitment, model.AdmissionParoleRevocation, model.AdmissionProbationRevocation:
			return p, true
		case model.AdmissionTransfer:
			// A transfer continues an existing stay.
			continue
		default:
			continue
		}
	}
	return model.IncarcerationPeriod{}, false
}

// classifyReturn maps an admission reason to the return classification
// carried on the recidivism event.
func classifyReturn(reason model.AdmissionReason) (model.ReturnType, model.SupervisionType) {
	switch reason {
	case model.AdmissionParoleRevocation:
		return model.ReturnRevocation, model.SupervisionParole
	case model.AdmissionProbationRevocation:
		return model.ReturnRevocation, model.SupervisionProbation
	default:
		return model.ReturnNewAdmission, ""
	}
}
