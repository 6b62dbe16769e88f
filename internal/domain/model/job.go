package model

// PersonJob is one unit of pipeline work: a person's demographic snapshot
// together with their release events grouped by cohort year. Jobs are
// independent of each other; workers may process them in any order.
type PersonJob struct {
	// ID identifies the job for idempotency. Defaults to the person id
	// when the submitter does not set one.
	ID string `json:"id"`

	Person Person                 `json:"person"`
	Events map[int][]ReleaseEvent `json:"events"`
}
