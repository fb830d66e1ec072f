package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the termine/patienten tables.
// Double booking is prevented by the partial unique index on
// termine(datum, uhrzeit) WHERE status = 'confirmed'.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(pool db) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

const appointmentColumns = `id, patient_name, telefon, email, to_char(datum, 'YYYY-MM-DD'), to_char(uhrzeit, 'HH24:MI'),
		behandlungsart, beschreibung, status, notizen, erstellt_am, aktualisiert_am`

// IsSlotTaken checks for a confirmed appointment at the slot.
func (r *PostgresRepository) IsSlotTaken(ctx context.Context, date, clock string) (bool, error) {
	var taken bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM termine
			WHERE datum = $1::date AND uhrzeit = $2::time AND status = 'confirmed'
		)
	`, date, clock).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("appointments: slot lookup failed: %w", err)
	}
	return taken, nil
}

// InsertConfirmed inserts the appointment and upserts the patient in one transaction.
func (r *PostgresRepository) InsertConfirmed(ctx context.Context, appt *Appointment, patient *Patient) (*Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	stored := *appt
	stored.Status = StatusConfirmed
	err = tx.QueryRow(ctx, `
		INSERT INTO termine (patient_name, telefon, email, datum, uhrzeit, behandlungsart, beschreibung, status, notizen)
		VALUES ($1, $2, $3, $4::date, $5::time, $6, $7, 'confirmed', $8)
		RETURNING id, erstellt_am, aktualisiert_am
	`,
		appt.PatientName,
		appt.Phone,
		appt.Email,
		appt.Date,
		appt.Time,
		string(appt.Treatment),
		appt.Description,
		appt.Notes,
	).Scan(&stored.ID, &stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, newError(KindSlotTaken, appt.Date, appt.Time, "%s at %s is already booked", appt.Date, appt.Time)
		}
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}

	if patient != nil {
		if _, err := tx.Exec(ctx, `
			INSERT INTO patienten (telefon, name, email, geburtsdatum, vorerkrankungen, medikamente, allergien)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (telefon) DO UPDATE SET
				name = EXCLUDED.name,
				email = COALESCE(NULLIF(EXCLUDED.email, ''), patienten.email),
				geburtsdatum = COALESCE(NULLIF(EXCLUDED.geburtsdatum, ''), patienten.geburtsdatum),
				vorerkrankungen = COALESCE(NULLIF(EXCLUDED.vorerkrankungen, ''), patienten.vorerkrankungen),
				medikamente = COALESCE(NULLIF(EXCLUDED.medikamente, ''), patienten.medikamente),
				allergien = COALESCE(NULLIF(EXCLUDED.allergien, ''), patienten.allergien),
				aktualisiert_am = now()
		`,
			patient.Phone,
			patient.Name,
			patient.Email,
			patient.BirthDate,
			patient.Conditions,
			patient.Medications,
			patient.Allergies,
		); err != nil {
			return nil, fmt.Errorf("appointments: upsert patient failed: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("appointments: commit failed: %w", err)
	}
	return &stored, nil
}

// Cancel marks a confirmed appointment cancelled and appends the note.
func (r *PostgresRepository) Cancel(ctx context.Context, id int64, note string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE termine
		SET status = 'cancelled',
			notizen = CASE WHEN $2 = '' THEN notizen
				WHEN notizen = '' THEN $2
				ELSE notizen || E'\n' || $2 END,
			aktualisiert_am = $3
		WHERE id = $1 AND status = 'confirmed'
	`, id, note, at)
	if err != nil {
		return false, fmt.Errorf("appointments: cancel failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByID fetches one appointment.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM termine WHERE id = $1`, id)
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return appt, nil
}

// Search matches confirmed appointments by substring within the window.
func (r *PostgresRepository) Search(ctx context.Context, filter SearchFilter) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM termine
		WHERE (patient_name ILIKE $1 ESCAPE '\' OR telefon ILIKE $1 ESCAPE '\' OR behandlungsart ILIKE $1 ESCAPE '\' OR behandlungsart = $4)
			AND datum >= $2::date AND datum <= $3::date
			AND status = 'confirmed'
		ORDER BY datum, uhrzeit, id
	`, containsPattern(filter.Query), filter.From, filter.To, string(filter.Treatment))
	if err != nil {
		return nil, fmt.Errorf("appointments: search failed: %w", err)
	}
	return collectAppointments(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE substring pattern with the query's own
// wildcards escaped.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

// History returns all appointments for a phone number, newest first.
func (r *PostgresRepository) History(ctx context.Context, phone string) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM termine
		WHERE telefon = $1
		ORDER BY datum DESC, uhrzeit DESC, id DESC
	`, phone)
	if err != nil {
		return nil, fmt.Errorf("appointments: history failed: %w", err)
	}
	return collectAppointments(rows)
}

// ListRange returns appointments of any status in the window.
func (r *PostgresRepository) ListRange(ctx context.Context, from, to string) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM termine
		WHERE datum >= $1::date AND datum <= $2::date
		ORDER BY datum, uhrzeit, id
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("appointments: list range failed: %w", err)
	}
	return collectAppointments(rows)
}

// GetPatient looks up a patient record by phone.
func (r *PostgresRepository) GetPatient(ctx context.Context, phone string) (*Patient, error) {
	var p Patient
	err := r.db.QueryRow(ctx, `
		SELECT telefon, name, email, geburtsdatum, vorerkrankungen, medikamente, allergien, erstellt_am, aktualisiert_am
		FROM patienten
		WHERE telefon = $1
	`, phone).Scan(
		&p.Phone,
		&p.Name,
		&p.Email,
		&p.BirthDate,
		&p.Conditions,
		&p.Medications,
		&p.Allergies,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("appointments: select patient failed: %w", err)
	}
	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		appt      Appointment
		treatment string
		status    string
	)
	if err := row.Scan(
		&appt.ID,
		&appt.PatientName,
		&appt.Phone,
		&appt.Email,
		&appt.Date,
		&appt.Time,
		&treatment,
		&appt.Description,
		&status,
		&appt.Notes,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	); err != nil {
		return nil, err
	}
	appt.Treatment = TreatmentType(treatment)
	appt.Status = Status(status)
	return &appt, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()
	var out []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, *appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: rows failed: %w", err)
	}
	return out, nil
}
