// Command gen-cohort writes a synthetic release cohort file for exercising
// the calculation pipeline.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/corrkit/remand/internal/domain/model"
)

// Default configuration constants.
const (
	defaultNumPersons = 1000
	defaultMaxPeriods = 4
	minStayDays       = 30
	maxStayDays       = 365 * 6
	maxGapDays        = 365 * 3
)

type cohortRecord struct {
	Person  model.Person                `json:"person"`
	Periods []model.IncarcerationPeriod `json:"periods"`
}

var genders = []model.Gender{model.GenderFemale, model.GenderMale}

var races = []model.Race{
	model.RaceWhite,
	model.RaceBlack,
	model.RaceAsian,
	model.RaceAmericanIndianAlaskanNative,
	model.RaceNativeHawaiianPacificIslander,
	model.RaceOther,
}

var ethnicities = []model.Ethnicity{
	model.EthnicityHispanic,
	model.EthnicityNotHispanic,
}

var admissionReasons = []model.AdmissionReason{
	model.AdmissionNewCommitment,
	model.AdmissionNewCommitment,
	model.AdmissionParoleRevocation,
	model.AdmissionProbationRevocation,
}

var facilities = []string{"Hudson", "Sing Sing", "Adirondack", "Greene", "Marcy"}

func main() {
	var (
		numPersons = flag.Int("persons", defaultNumPersons, "Number of persons to generate")
		maxPeriods = flag.Int("max-periods", defaultMaxPeriods, "Maximum incarceration periods per person")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
		outputFile = flag.String("output", "cohort.json", "Output file for the generated cohort")
	)
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	cohort := make([]cohortRecord, 0, *numPersons)
	for i := 0; i < *numPersons; i++ {
		personID := int64(i + 1)
		cohort = append(cohort, cohortRecord{
			Person:  generatePerson(rng, personID),
			Periods: generatePeriods(rng, personID, 1+rng.Intn(*maxPeriods)),
		})
	}

	data, err := json.MarshalIndent(cohort, "", "  ")
	if err != nil {
		os.Stderr.WriteString("failed to encode cohort: " + err.Error() + "\n")
		return
	}
	if err := os.WriteFile(*outputFile, data, 0o600); err != nil {
		os.Stderr.WriteString("failed to write cohort file: " + err.Error() + "\n")
		return
	}

	fmt.Printf("wrote %d persons to %s (seed %d)\n", *numPersons, *outputFile, *seed)
}

func generatePerson(rng *rand.Rand, id int64) model.Person {
	birth := time.Date(1950+rng.Intn(50), time.Month(1+rng.Intn(12)), 1+rng.Intn(28),
		0, 0, 0, 0, time.UTC)

	p := model.Person{
		ID:        id,
		Birthdate: birth,
		Gender:    genders[rng.Intn(len(genders))],
		Races: []model.RaceRecord{
			{StateCode: "US_NY", Race: races[rng.Intn(len(races))]},
		},
		Ethnicities: []model.EthnicityRecord{
			{StateCode: "US_NY", Ethnicity: ethnicities[rng.Intn(len(ethnicities))]},
		},
	}

	// A slice of the cohort carries no birthdate so age buckets get omitted.
	if rng.Intn(20) == 0 {
		p.Birthdate = time.Time{}
	}
	return p
}

func generatePeriods(rng *rand.Rand, personID int64, count int) []model.IncarcerationPeriod {
	periods := make([]model.IncarcerationPeriod, 0, count)

	admission := time.Date(1990+rng.Intn(20), time.Month(1+rng.Intn(12)), 1+rng.Intn(28),
		0, 0, 0, 0, time.UTC)

	for i := 0; i < count; i++ {
		release := admission.AddDate(0, 0, minStayDays+rng.Intn(maxStayDays-minStayDays))

		reason := model.AdmissionNewCommitment
		if i > 0 {
			reason = admissionReasons[rng.Intn(len(admissionReasons))]
		}

		periods = append(periods, model.IncarcerationPeriod{
			ID:              int64(len(periods)+1) + personID*100,
			PersonID:        personID,
			AdmissionDate:   admission,
			ReleaseDate:     release,
			Facility:        facilities[rng.Intn(len(facilities))],
			AdmissionReason: reason,
			ReleaseReason:   model.ReleaseSentenceServed,
		})

		// Next admission lands after a supervised gap in the community.
		admission = release.AddDate(0, 0, 1+rng.Intn(maxGapDays))
	}
	return periods
}
