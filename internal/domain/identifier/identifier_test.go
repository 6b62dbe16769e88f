package identifier_test

import (
	"errors"
	"testing"
	"time"

	identifier "github.com/corrkit/remand/internal/domain/identifier"
	"github.com/corrkit/remand/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFindReleaseEvents(t *testing.T) {
	Convey("Given a single completed stay", t, func() {
		periods := []model.IncarcerationPeriod{
			{
				ID:              1,
				PersonID:        9,
				AdmissionDate:   date(2005, time.July, 19),
				ReleaseDate:     date(2008, time.September, 19),
				Facility:        "Hudson",
				AdmissionReason: model.AdmissionNewCommitment,
				ReleaseReason:   model.ReleaseSentenceServed,
			},
		}

		Convey("When identifying release events", func() {
			events, err := identifier.FindReleaseEvents(periods)
			So(err, ShouldBeNil)

			Convey("Then one non-recidivism event lands in the release-year cohort", func() {
				So(events, ShouldHaveLength, 1)
				So(events[2008], ShouldHaveLength, 1)
				So(events[2008][0].Kind, ShouldEqual, model.KindNonRecidivism)
				So(events[2008][0].ReleaseFacility, ShouldEqual, "Hudson")
			})
		})
	})

	Convey("Given a release followed by a new commitment", t, func() {
		periods := []model.IncarcerationPeriod{
			{
				ID:              1,
				AdmissionDate:   date(2005, time.July, 19),
				ReleaseDate:     date(2008, time.September, 19),
				Facility:        "Hudson",
				AdmissionReason: model.AdmissionNewCommitment,
				ReleaseReason:   model.ReleaseSentenceServed,
			},
			{
				ID:              2,
				AdmissionDate:   date(2011, time.April, 5),
				ReleaseDate:     date(2014, time.April, 14),
				Facility:        "Sing Sing",
				AdmissionReason: model.AdmissionNewCommitment,
				ReleaseReason:   model.ReleaseConditional,
			},
		}

		Convey("When identifying release events", func() {
			events, err := identifier.FindReleaseEvents(periods)
			So(err, ShouldBeNil)

			Convey("Then the first release becomes a recidivism event", func() {
				first := events[2008][0]
				So(first.Kind, ShouldEqual, model.KindRecidivism)
				So(first.ReincarcerationDate, ShouldEqual, date(2011, time.April, 5))
				So(first.ReincarcerationFacility, ShouldEqual, "Sing Sing")
				So(first.ReturnType, ShouldEqual, model.ReturnNewAdmission)
				So(first.FromSupervisionType, ShouldBeEmpty)
			})

			Convey("And the second release has no later return", func() {
				second := events[2014][0]
				So(second.Kind, ShouldEqual, model.KindNonRecidivism)
			})
		})
	})

	Convey("Given a return by parole revocation", t, func() {
		periods := []model.IncarcerationPeriod{
			{
				ID:              1,
				AdmissionDate:   date(2005, time.July, 19),
				ReleaseDate:     date(2008, time.September, 19),
				AdmissionReason: model.AdmissionNewCommitment,
				ReleaseReason:   model.ReleaseConditional,
			},
			{
				ID:              2,
				AdmissionDate:   date(2009, time.February, 14),
				AdmissionReason: model.AdmissionParoleRevocation,
			},
		}

		Convey("When identifying release events", func() {
			events, err := identifier.FindReleaseEvents(periods)
			So(err, ShouldBeNil)

			Convey("Then the return carries the revocation classification", func() {
				ev := events[2008][0]
				So(ev.ReturnType, ShouldEqual, model.ReturnRevocation)
				So(ev.FromSupervisionType, ShouldEqual, model.SupervisionParole)
			})
		})
	})

	Convey("Given a return by probation revocation", t, func() {
		periods := []model.IncarcerationPeriod{
			{
				ID:              1,
				AdmissionDate:   date(2005, time.July, 19),
				ReleaseDate:     date(2008, time.September, 19),
				AdmissionReason: model.AdmissionNewCommitment,
				ReleaseReason:   model.ReleaseCourtOrder,
			},
			{
				ID:              2,
				AdmissionDate:   date(2010, time.December, 1),
				AdmissionReason: model.AdmissionProbationRevocation,
			},
		}

		events, err := identifier.FindReleaseEvents(periods)
		So(err, ShouldBeNil)
		So(events[2008][0].FromSupervisionType, ShouldEqual, model.SupervisionProbation)
	})

	Convey("Given a transfer between facilities", t, func() {
		periods := []model.IncarcerationPeriod{
			{
				ID:              1,
				AdmissionDate:   date(2005, time.July, 19),
				ReleaseDate:     date(2007, time.March, 1),
				AdmissionReason: model.AdmissionNewCommitment,
				ReleaseReason:   model.ReleaseTransferReason,
			},
			{
				ID:              2,
				AdmissionDate:   date(2007, time.March, 1),
				ReleaseDate:     date(2008, time.September, 19),
				AdmissionReason: model.AdmissionTransfer,
				ReleaseReason:   model.ReleaseSentenceServed,
			},
		}

		Convey("When identifying release events", func() {
			events, err := identifier.FindReleaseEvents(periods)
			So(err, ShouldBeNil)

			Convey("Then the transfer neither starts a cohort nor counts as a return", func() {
				So(events, ShouldHaveLength, 1)
				So(events[2008], ShouldHaveLength, 1)
				So(events[2008][0].Kind, ShouldEqual, model.KindNonRecidivism)
			})
		})
	})

	Convey("Given a stay ending in death", t, func() {
		periods := []model.IncarcerationPeriod{
			{
				ID:              1,
				AdmissionDate:   date(2005, time.July, 19),
				ReleaseDate:     date(2008, time.September, 19),
				AdmissionReason: model.AdmissionNewCommitment,
				ReleaseReason:   model.ReleaseDeath,
			},
		}

		events, err := identifier.FindReleaseEvents(periods)
		So(err, ShouldBeNil)
		So(events, ShouldBeNil)
	})

	Convey("Given periods in scrambled order", t, func() {
		periods := []model.IncarcerationPeriod{
			{
				ID:              2,
				AdmissionDate:   date(2011, time.April, 5),
				AdmissionReason: model.AdmissionNewCommitment,
			},
			{
				ID:              1,
				AdmissionDate:   date(2005, time.July, 19),
				ReleaseDate:     date(2008, time.September, 19),
				AdmissionReason: model.AdmissionNewCommitment,
				ReleaseReason:   model.ReleaseSentenceServed,
			},
		}

		Convey("When identifying release events", func() {
			events, err := identifier.FindReleaseEvents(periods)
			So(err, ShouldBeNil)

			Convey("Then chronology wins over input order", func() {
				So(events[2008][0].Kind, ShouldEqual, model.KindRecidivism)
				So(events[2008][0].ReincarcerationDate, ShouldEqual, date(2011, time.April, 5))
			})
		})
	})

	Convey("Given a period without an admission date", t, func() {
		periods := []model.IncarcerationPeriod{
			{ID: 1, ReleaseDate: date(2008, time.September, 19), ReleaseReason: model.ReleaseSentenceServed},
		}

		Convey("Then it is skipped rather than guessed at", func() {
			events, err := identifier.FindReleaseEvents(periods)
			So(err, ShouldBeNil)
			So(events, ShouldBeNil)
		})
	})

	Convey("Given a period released before it was admitted", t, func() {
		periods := []model.IncarcerationPeriod{
			{
				ID:            1,
				AdmissionDate: date(2008, time.September, 19),
				ReleaseDate:   date(2005, time.July, 19),
				ReleaseReason: model.ReleaseSentenceServed,
			},
		}

		Convey("Then the whole history is rejected", func() {
			events, err := identifier.FindReleaseEvents(periods)
			So(events, ShouldBeNil)
			So(errors.Is(err, model.ErrInvalidPeriod), ShouldBeTrue)
		})
	})

	Convey("Given no periods at all", t, func() {
		events, err := identifier.FindReleaseEvents(nil)
		So(err, ShouldBeNil)
		So(events, ShouldBeNil)
	})
}
