package appointments

import (
	"testing"
	"time"

	"github.com/wolfman30/sofia-scheduler/internal/clinic"
	"github.com/wolfman30/sofia-scheduler/pkg/logging"
)

// monday 2025-03-10 09:00 UTC
var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func testSchedule() *clinic.Schedule {
	s := clinic.DefaultSchedule("test")
	s.Timezone = "UTC"
	return s
}

type fixture struct {
	repo    *InMemoryRepository
	checker *Checker
	store   *Store
	finder  *Finder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureAt(t, testNow, testSchedule())
}

func newFixtureAt(t *testing.T, now time.Time, schedule *clinic.Schedule) *fixture {
	t.Helper()
	repo := NewInMemoryRepository()
	checker := NewChecker(schedule, repo, WithClock(func() time.Time { return now }))
	return &fixture{
		repo:    repo,
		checker: checker,
		store:   NewStore(repo, checker, logging.Default(), nil),
		finder:  NewFinder(checker, DefaultHorizonDays),
	}
}

func janeDoe(date, clock string) BookRequest {
	return BookRequest{
		PatientName: "Jane Doe",
		Phone:       "+1 555 0100",
		Date:        date,
		Time:        clock,
		Treatment:   TreatmentCheckup,
	}
}
