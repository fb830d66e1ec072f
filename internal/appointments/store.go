package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/sofia-scheduler/internal/clinic"
	"github.com/wolfman30/sofia-scheduler/internal/observability/metrics"
	"github.com/wolfman30/sofia-scheduler/pkg/logging"
)

var appointmentsTracer = otel.Tracer("sofia.internal.appointments")

// Store is the authoritative appointment book: it validates through the
// Checker and commits through the Repository.
type Store struct {
	repo    Repository
	checker *Checker
	logger  *logging.Logger
	metrics *metrics.SchedulingMetrics
}

// NewStore constructs an appointment store.
func NewStore(repo Repository, checker *Checker, logger *logging.Logger, m *metrics.SchedulingMetrics) *Store {
	if repo == nil {
		panic("appointments: repository required")
	}
	if checker == nil {
		panic("appointments: checker required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{repo: repo, checker: checker, logger: logger.WithComponent("appointments"), metrics: m}
}

// Checker exposes the availability rules used by the store.
func (s *Store) Checker() *Checker {
	return s.checker
}

// Book validates and commits a confirmed appointment. Classified failures
// are returned as *Error; anything else is a storage failure.
func (s *Store) Book(ctx context.Context, req BookRequest) (*Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.book")
	defer span.End()

	req.normalize()
	span.SetAttributes(
		attribute.String("sofia.date", req.Date),
		attribute.String("sofia.time", req.Time),
		attribute.String("sofia.treatment", string(req.Treatment)),
	)

	appt, err := s.book(ctx, req)
	if err != nil {
		outcome := string(KindOf(err))
		if outcome == "" {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, "booking failed")
			s.logger.Error("appointment booking failed", "date", req.Date, "time", req.Time, "error", err)
		} else {
			s.logger.Info("appointment rejected", "date", req.Date, "time", req.Time, "kind", outcome)
		}
		s.metrics.ObserveBooking(outcome, string(req.Treatment))
		return nil, err
	}

	span.SetAttributes(attribute.Int64("sofia.appointment_id", appt.ID))
	s.metrics.ObserveBooking("booked", string(appt.Treatment))
	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"date", appt.Date,
		"time", appt.Time,
		"treatment", appt.Treatment,
		"audit", BookedNote(appt, s.checker.Now()).Text,
	)
	return appt, nil
}

func (s *Store) book(ctx context.Context, req BookRequest) (*Appointment, error) {
	if req.PatientName == "" {
		return nil, &Error{Kind: KindPatientFieldMissing, Field: "patient_name", Message: "patient name is required"}
	}
	if req.Phone == "" {
		return nil, &Error{Kind: KindPatientFieldMissing, Field: "phone", Message: "phone number is required"}
	}
	if !req.Treatment.Valid() {
		if t, ok := ParseTreatmentType(string(req.Treatment)); ok {
			req.Treatment = t
		} else {
			req.Treatment = DefaultTreatment
		}
	}

	_, clock, err := s.checker.validate(req.Date, req.Time)
	if err != nil {
		return nil, err
	}

	now := s.checker.Now()
	appt := &Appointment{
		PatientName: req.PatientName,
		Phone:       req.Phone,
		Email:       req.Email,
		Date:        req.Date,
		Time:        clock,
		Treatment:   req.Treatment,
		Description: req.Description,
		Notes:       req.Notes,
		Status:      StatusConfirmed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	stored, err := s.repo.InsertConfirmed(ctx, appt, req.patient(now))
	if err != nil {
		if KindOf(err) != kindNone {
			return nil, err
		}
		return nil, fmt.Errorf("appointments: book: %w", err)
	}
	return stored, nil
}

// Cancel transitions an appointment to cancelled. Returns false without an
// error when the id is unknown or already cancelled.
func (s *Store) Cancel(ctx context.Context, id int64, reason string) (bool, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.cancel")
	defer span.End()
	span.SetAttributes(attribute.Int64("sofia.appointment_id", id))

	var line string
	if reason = strings.TrimSpace(reason); reason != "" {
		line = "Cancellation reason: " + reason
	}
	now := s.checker.Now()
	ok, err := s.repo.Cancel(ctx, id, line, now)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveCancellation("error")
		s.logger.Error("appointment cancellation failed", "appointment_id", id, "error", err)
		return false, fmt.Errorf("appointments: cancel: %w", err)
	}
	if !ok {
		s.metrics.ObserveCancellation("not_found_or_cancelled")
		s.logger.Info("appointment cancellation ignored", "appointment_id", id)
		return false, nil
	}
	s.metrics.ObserveCancellation("cancelled")
	s.logger.Info("appointment cancelled", "appointment_id", id, "audit", CancelledNote(id, reason, now).Text)
	return true, nil
}

// Get returns one appointment by id.
func (s *Store) Get(ctx context.Context, id int64) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// Search finds confirmed appointments whose name, phone or treatment
// contains query, inside [from, to]. Empty bounds default to the next 7 days.
func (s *Store) Search(ctx context.Context, query, from, to string) ([]Appointment, error) {
	today := s.checker.Today()
	if from == "" {
		from = today.Format(clinic.DateLayout)
	}
	if to == "" {
		to = today.AddDate(0, 0, 7).Format(clinic.DateLayout)
	}
	for _, d := range []string{from, to} {
		if _, err := clinic.ParseDate(d, nil); err != nil {
			return nil, newError(KindInvalidFormat, d, "", "date %q must look like YYYY-MM-DD", d)
		}
	}
	filter := SearchFilter{Query: strings.TrimSpace(query), From: from, To: to}
	if t, ok := ParseTreatmentType(filter.Query); ok {
		filter.Treatment = t
	}
	list, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("appointments: search: %w", err)
	}
	return list, nil
}

// SearchPeriod runs Search over a named window such as "next_week".
func (s *Store) SearchPeriod(ctx context.Context, query, period string) ([]Appointment, error) {
	from, to, err := PeriodWindow(period, s.checker.Now())
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, query, from.Format(clinic.DateLayout), to.Format(clinic.DateLayout))
}

// History returns all appointments of a patient, newest first.
func (s *Store) History(ctx context.Context, phone string) ([]Appointment, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, &Error{Kind: KindPatientFieldMissing, Field: "phone", Message: "phone number is required"}
	}
	list, err := s.repo.History(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("appointments: history: %w", err)
	}
	return list, nil
}

// Patient returns the registered patient for a phone number.
func (s *Store) Patient(ctx context.Context, phone string) (*Patient, error) {
	p, err := s.repo.GetPatient(ctx, strings.TrimSpace(phone))
	if err != nil && !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("appointments: patient: %w", err)
	}
	return p, err
}
