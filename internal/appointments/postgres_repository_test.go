package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var appointmentRowColumns = []string{
	"id", "patient_name", "telefon", "email", "datum", "uhrzeit",
	"behandlungsart", "beschreibung", "status", "notizen", "erstellt_am", "aktualisiert_am",
}

func newMockRepo(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewPostgresRepository(mock), mock
}

func TestPostgresRepository_InsertConfirmed(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	appt := &Appointment{PatientName: "Jane Doe", Phone: "+1 555 0100", Date: "2025-03-11", Time: "10:00", Treatment: TreatmentCheckup}
	patient := &Patient{Phone: "+1 555 0100", Name: "Jane Doe"}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO termine").
		WithArgs("Jane Doe", "+1 555 0100", "", "2025-03-11", "10:00", "checkup", "", "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "erstellt_am", "aktualisiert_am"}).AddRow(int64(7), created, created))
	mock.ExpectExec("INSERT INTO patienten").
		WithArgs("+1 555 0100", "Jane Doe", "", "", "", "", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	stored, err := repo.InsertConfirmed(context.Background(), appt, patient)
	if err != nil {
		t.Fatalf("InsertConfirmed: %v", err)
	}
	if stored.ID != 7 || stored.Status != StatusConfirmed || !stored.CreatedAt.Equal(created) {
		t.Fatalf("unexpected stored appointment: %+v", stored)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_InsertConfirmedUniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO termine").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	appt := &Appointment{PatientName: "John Roe", Phone: "0302", Date: "2025-03-11", Time: "10:00", Treatment: TreatmentCheckup}
	_, err := repo.InsertConfirmed(context.Background(), appt, nil)
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected SLOT_TAKEN, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_IsSlotTaken(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("2025-03-11", "10:00").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.IsSlotTaken(context.Background(), "2025-03-11", "10:00")
	if err != nil {
		t.Fatalf("IsSlotTaken: %v", err)
	}
	if !taken {
		t.Fatal("expected slot to be taken")
	}
}

func TestPostgresRepository_Cancel(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE termine").
		WithArgs(int64(3), "Cancellation reason: sick", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE termine").
		WithArgs(int64(3), "", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.Cancel(context.Background(), 3, "Cancellation reason: sick", at)
	if err != nil || !ok {
		t.Fatalf("first cancel: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Cancel(context.Background(), 3, "", at)
	if err != nil || ok {
		t.Fatalf("second cancel: ok=%v err=%v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_GetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM termine WHERE id").
		WithArgs(int64(42)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresRepository_SearchScansRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	ts := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("ILIKE").
		WithArgs("%reinigung%", "2025-03-10", "2025-03-17", "cleaning").
		WillReturnRows(pgxmock.NewRows(appointmentRowColumns).
			AddRow(int64(1), "Anna Schmidt", "0301", "", "2025-03-11", "09:00", "cleaning", "", "confirmed", "", ts, ts).
			AddRow(int64(2), "Bernd Meier", "0302", "b@example.com", "2025-03-12", "14:00", "cleaning", "", "confirmed", "", ts, ts))

	list, err := repo.Search(context.Background(), SearchFilter{Query: "reinigung", Treatment: TreatmentCleaning, From: "2025-03-10", To: "2025-03-17"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(list))
	}
	if list[1].Treatment != TreatmentCleaning || list[1].Status != StatusConfirmed || list[1].Email != "b@example.com" {
		t.Fatalf("unexpected row: %+v", list[1])
	}
}

func TestPostgresRepository_SearchEscapesWildcards(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("ESCAPE").
		WithArgs(`%100\%\_a\\b%`, "2025-03-10", "2025-03-17", "").
		WillReturnRows(pgxmock.NewRows(appointmentRowColumns))

	list, err := repo.Search(context.Background(), SearchFilter{Query: `100%_a\b`, From: "2025-03-10", To: "2025-03-17"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no rows, got %d", len(list))
	}
	if got := containsPattern("m_ller"); got != `%m\_ller%` {
		t.Fatalf("unexpected pattern %q", got)
	}
}

func TestPostgresRepository_GetPatient(t *testing.T) {
	repo, mock := newMockRepo(t)
	ts := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM patienten").
		WithArgs("0301").
		WillReturnRows(pgxmock.NewRows([]string{"telefon", "name", "email", "geburtsdatum", "vorerkrankungen", "medikamente", "allergien", "erstellt_am", "aktualisiert_am"}).
			AddRow("0301", "Anna Schmidt", "", "1980-04-01", "", "", "Penicillin", ts, ts))
	mock.ExpectQuery("FROM patienten").
		WithArgs("0000").
		WillReturnError(pgx.ErrNoRows)

	p, err := repo.GetPatient(context.Background(), "0301")
	if err != nil {
		t.Fatalf("GetPatient: %v", err)
	}
	if p.Allergies != "Penicillin" || p.BirthDate != "1980-04-01" {
		t.Fatalf("unexpected patient: %+v", p)
	}
	if _, err := repo.GetPatient(context.Background(), "0000"); !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
}
