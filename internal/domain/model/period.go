package model

import "time"

// AdmissionReason explains why an incarceration period began.
type AdmissionReason string

// Admission reasons relevant to return classification.
const (
	AdmissionNewCommitment       AdmissionReason = "NEW_ADMISSION"
	AdmissionParoleRevocation    AdmissionReason = "PAROLE_REVOCATION"
	AdmissionProbationRevocation AdmissionReason = "PROBATION_REVOCATION"
	AdmissionTransfer            AdmissionReason = "TRANSFER"
)

// ReleaseReason explains why an incarceration period ended.
type ReleaseReason string

// Release reasons. Only sentence-served and conditional releases start a
// follow-up cohort; transfers and deaths do not.
const (
	ReleaseSentenceServed  ReleaseReason = "SENTENCE_SERVED"
	ReleaseConditional     ReleaseReason = "CONDITIONAL_RELEASE"
	ReleaseTransferReason  ReleaseReason = "TRANSFER"
	ReleaseDeath           ReleaseReason = "DEATH"
	ReleaseCourtOrder      ReleaseReason = "COURT_ORDER"
	ReleaseExternalUnknown ReleaseReason = "EXTERNAL_UNKNOWN"
)

// IncarcerationPeriod is one uninterrupted stay at a single facility. Periods
// form an arena addressed by ID; relationships to sentences are expressed as
// id-lists, never as embedded references back into the person graph.
type IncarcerationPeriod struct {
	ID       int64 `json:"incarceration_period_id"`
	PersonID int64 `json:"person_id"`

	AdmissionDate   time.Time       `json:"admission_date,omitempty"`
	ReleaseDate     time.Time       `json:"release_date,omitempty"`
	Facility        string          `json:"facility,omitempty"`
	AdmissionReason AdmissionReason `json:"admission_reason,omitempty"`
	ReleaseReason   ReleaseReason   `json:"release_reason,omitempty"`

	SentenceIDs []int64 `json:"sentence_ids,omitempty"`
}

// Released reports whether the period has ended in a release.
func (p IncarcerationPeriod) Released() bool {
	return !p.ReleaseDate.IsZero()
}
