package model

import (
	"fmt"
	"time"
)

// EventKind discriminates the two release-event variants.
type EventKind string

// Release event variants.
const (
	// KindRecidivism marks a release that was followed by a qualifying
	// reincarceration.
	KindRecidivism EventKind = "RECIDIVISM"
	// KindNonRecidivism marks a release with no later reincarceration
	// observed.
	KindNonRecidivism EventKind = "NON_RECIDIVISM"
)

// ReturnType classifies a reincarceration.
type ReturnType string

// Reincarceration return classifications.
const (
	ReturnNewAdmission ReturnType = "NEW_ADMISSION"
	ReturnRevocation   ReturnType = "REVOCATION"
)

// SupervisionType is the kind of supervision a person was revoked from.
// Empty unless the return type is REVOCATION.
type SupervisionType string

// Supervision types at revocation.
const (
	SupervisionParole    SupervisionType = "PAROLE"
	SupervisionProbation SupervisionType = "PROBATION"
)

// ReleaseEvent describes one incarceration stay that ended in release. It is
// a tagged variant: Kind selects which fields are meaningful. The
// reincarceration fields are only set on KindRecidivism events, and
// FromSupervisionType only when ReturnType is REVOCATION.
//
// A zero OriginalAdmissionDate or ReleaseDate means the date is unknown; the
// engine omits the stay-length dimension rather than failing.
type ReleaseEvent struct {
	Kind EventKind `json:"kind"`

	OriginalAdmissionDate time.Time `json:"original_admission_date,omitempty"`
	ReleaseDate           time.Time `json:"release_date"`
	ReleaseFacility       string    `json:"release_facility,omitempty"`

	ReincarcerationDate     time.Time       `json:"reincarceration_date,omitempty"`
	ReincarcerationFacility string          `json:"reincarceration_facility,omitempty"`
	ReturnType              ReturnType      `json:"return_type,omitempty"`
	FromSupervisionType     SupervisionType `json:"from_supervision_type,omitempty"`
}

// NewNonRecidivismEvent builds a release with no later reincarceration.
func NewNonRecidivismEvent(admission, release time.Time, facility string) ReleaseEvent {
	return ReleaseEvent{
		Kind:                  KindNonRecidivism,
		OriginalAdmissionDate: admission,
		ReleaseDate:           release,
		ReleaseFacility:       facility,
	}
}

// NewRecidivismEvent builds a release followed by a qualifying
// reincarceration. Pass an empty SupervisionType for NEW_ADMISSION returns.
func NewRecidivismEvent(admission, release time.Time, facility string,
	reincarceration time.Time, reincarcerationFacility string,
	returnType ReturnType, fromSupervision SupervisionType) ReleaseEvent {
	return ReleaseEvent{
		Kind:                    KindRecidivism,
		OriginalAdmissionDate:   admission,
		ReleaseDate:             release,
		ReleaseFacility:         facility,
		ReincarcerationDate:     reincarceration,
		ReincarcerationFacility: reincarcerationFacility,
		ReturnType:              returnType,
		FromSupervisionType:     fromSupervision,
	}
}

// Validate checks the structural invariants the engine cannot reason
// without. Missing optional dates are fine; impossible orderings are not.
func (e ReleaseEvent) Validate() error {
	if e.ReleaseDate.IsZero() && e.Kind == KindRecidivism {
		return fmt.Errorf("%w: recidivism event without a release date", ErrInvalidEvent)
	}
	if !e.OriginalAdmissionDate.IsZero() && !e.ReleaseDate.IsZero() &&
		e.ReleaseDate.Before(e.OriginalAdmissionDate) {
		return fmt.Errorf("%w: release %s precedes admission %s",
			ErrInvalidEvent, e.ReleaseDate.Format("2006-01-02"), e.OriginalAdmissionDate.Format("2006-01-02"))
	}
	switch e.Kind {
	case KindNonRecidivism:
		return nil
	case KindRecidivism:
		if !e.ReincarcerationDate.After(e.ReleaseDate) {
			return fmt.Errorf("%w: reincarceration %s not after release %s",
				ErrInvalidEvent, e.ReincarcerationDate.Format("2006-01-02"), e.ReleaseDate.Format("2006-01-02"))
		}
		if e.ReturnType != ReturnRevocation && e.FromSupervisionType != "" {
			return fmt.Errorf("%w: from_supervision_type set on %s return", ErrInvalidEvent, e.ReturnType)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown event kind %q", ErrInvalidEvent, e.Kind)
	}
}

// ReturnInfo is the return classification of one reincarceration, as stored
// in the date-indexed reincarceration map.
type ReturnInfo struct {
	ReturnType          ReturnType
	FromSupervisionType SupervisionType
}
