package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wolfman30/sofia-scheduler/internal/appointments"
	"github.com/wolfman30/sofia-scheduler/internal/clinic"
	"github.com/wolfman30/sofia-scheduler/pkg/logging"
)

// monday 2025-03-10 09:00 UTC
var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeMirror struct {
	mu        sync.Mutex
	published []*appointments.Appointment
	err       error
}

func (m *fakeMirror) Publish(_ context.Context, appt *appointments.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, appt)
	return m.err
}

// failingRepo accepts lookups but cannot store anything.
type failingRepo struct {
	*appointments.InMemoryRepository
}

func (failingRepo) InsertConfirmed(context.Context, *appointments.Appointment, *appointments.Patient) (*appointments.Appointment, error) {
	return nil, errors.New("connection refused")
}

type harness struct {
	store  *appointments.Store
	finder *appointments.Finder
	orch   *Orchestrator
	mirror *fakeMirror
}

func newHarness(t *testing.T, opts ...OrchestratorOption) *harness {
	t.Helper()
	return newHarnessWithRepo(t, appointments.NewInMemoryRepository(), opts...)
}

func newHarnessWithRepo(t *testing.T, repo appointments.Repository, opts ...OrchestratorOption) *harness {
	t.Helper()
	schedule := clinic.DefaultSchedule("test")
	schedule.Timezone = "UTC"
	checker := appointments.NewChecker(schedule, repo, appointments.WithClock(func() time.Time { return testNow }))
	store := appointments.NewStore(repo, checker, logging.Default(), nil)
	finder := appointments.NewFinder(checker, appointments.DefaultHorizonDays)
	mirror := &fakeMirror{}
	opts = append([]OrchestratorOption{WithMirror(mirror)}, opts...)
	return &harness{
		store:  store,
		finder: finder,
		orch:   NewOrchestrator(store, finder, opts...),
		mirror: mirror,
	}
}

// readySession is a conversation that only lacks the caller's "yes".
func (h *harness) readySession(locale, date, clock string) *Session {
	sess := h.orch.Start("sess-1", locale)
	sess.Reason = "Kontrolle"
	sess.Treatment = appointments.TreatmentCheckup
	sess.FollowUpAsked = true
	sess.Name = "Jane Doe"
	sess.Phone = "0151 2345678"
	sess.Date = date
	sess.Time = clock
	sess.State = StateConfirming
	return sess
}

func (h *harness) bookOther(t *testing.T, date, clock string) {
	t.Helper()
	_, err := h.store.Book(context.Background(), appointments.BookRequest{
		PatientName: "Max Mustermann",
		Phone:       "0170 1111111",
		Date:        date,
		Time:        clock,
	})
	require.NoError(t, err)
}

func say(t *testing.T, h *harness, sess *Session, text string) string {
	t.Helper()
	reply, err := h.orch.HandleUtterance(context.Background(), sess, text)
	require.NoError(t, err)
	return reply
}
