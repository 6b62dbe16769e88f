// Package model contains domain models passed between layers.
package model

import "time"

// Gender is a person's reported gender.
type Gender string

// Known gender values.
const (
	GenderFemale          Gender = "FEMALE"
	GenderMale            Gender = "MALE"
	GenderTransFemale     Gender = "TRANS_FEMALE"
	GenderTransMale       Gender = "TRANS_MALE"
	GenderExternalUnknown Gender = "EXTERNAL_UNKNOWN"
)

// Race is a single reported race value.
type Race string

// Known race values.
const (
	RaceAmericanIndianAlaskanNative   Race = "AMERICAN_INDIAN_ALASKAN_NATIVE"
	RaceAsian                         Race = "ASIAN"
	RaceBlack                         Race = "BLACK"
	RaceNativeHawaiianPacificIslander Race = "NATIVE_HAWAIIAN_PACIFIC_ISLANDER"
	RaceOther                         Race = "OTHER"
	RaceWhite                         Race = "WHITE"
	RaceExternalUnknown               Race = "EXTERNAL_UNKNOWN"
)

// Ethnicity is a single reported ethnicity value.
type Ethnicity string

// Known ethnicity values.
const (
	EthnicityHispanic        Ethnicity = "HISPANIC"
	EthnicityNotHispanic     Ethnicity = "NOT_HISPANIC"
	EthnicityExternalUnknown Ethnicity = "EXTERNAL_UNKNOWN"
)

// RaceRecord is one race report for a person, with the jurisdiction that
// reported it. A person may carry several from different states.
type RaceRecord struct {
	StateCode string `json:"state_code"`
	Race      Race   `json:"race"`
}

// EthnicityRecord is one ethnicity report for a person.
type EthnicityRecord struct {
	StateCode string    `json:"state_code"`
	Ethnicity Ethnicity `json:"ethnicity"`
}

// Person is the demographic snapshot the engine consumes. Birthdate and
// Gender are optional: a zero Birthdate omits the age dimension and an empty
// Gender omits the gender dimension. Race and ethnicity records are sets;
// their order never matters.
type Person struct {
	ID          int64             `json:"person_id"`
	Birthdate   time.Time         `json:"birthdate,omitempty"`
	Gender      Gender            `json:"gender,omitempty"`
	Races       []RaceRecord      `json:"races,omitempty"`
	Ethnicities []EthnicityRecord `json:"ethnicities,omitempty"`
}

// HasBirthdate reports whether the person's birthdate is known.
func (p Person) HasBirthdate() bool {
	return !p.Birthdate.IsZero()
}
