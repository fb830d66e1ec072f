package calendarbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/sofia-scheduler/internal/appointments"
	"github.com/wolfman30/sofia-scheduler/pkg/logging"
)

// MirrorJob asks the worker to copy one confirmed appointment into the
// calendar.
type MirrorJob struct {
	ID            string             `json:"id"`
	AppointmentID int64              `json:"appointment_id"`
	Request       AppointmentRequest `json:"request"`
	EnqueuedAt    time.Time          `json:"enqueued_at"`
}

// Mirror enqueues confirmed appointments for asynchronous calendar mirroring.
// It satisfies booking.Publisher.
type Mirror struct {
	queue  Queue
	locale string
	logger *logging.Logger
	now    func() time.Time
}

// NewMirror creates a queue-backed mirror. Treatment names are sent in the
// given locale; the calendar staff read German, so "de" is the default.
func NewMirror(queue Queue, locale string, logger *logging.Logger) *Mirror {
	if queue == nil {
		panic("calendarbridge: queue cannot be nil")
	}
	if strings.TrimSpace(locale) == "" {
		locale = "de"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Mirror{
		queue:  queue,
		locale: locale,
		logger: logger.WithComponent("calendar-mirror"),
		now:    time.Now,
	}
}

// Publish enqueues a mirror job for appt.
func (m *Mirror) Publish(ctx context.Context, appt *appointments.Appointment) error {
	if appt == nil {
		return errors.New("calendarbridge: appointment required")
	}
	job := MirrorJob{
		ID:            uuid.NewString(),
		AppointmentID: appt.ID,
		Request:       RequestFor(appt, m.locale),
		EnqueuedAt:    m.now().UTC(),
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("calendarbridge: encode mirror job: %w", err)
	}
	if err := m.queue.Send(ctx, string(body)); err != nil {
		return fmt.Errorf("calendarbridge: enqueue mirror job: %w", err)
	}
	m.logger.Debug("mirror job enqueued", "job_id", job.ID, "appointment_id", appt.ID)
	return nil
}

// RequestFor maps a stored appointment onto the calendar's create body.
func RequestFor(appt *appointments.Appointment, locale string) AppointmentRequest {
	return AppointmentRequest{
		PatientName:   appt.PatientName,
		PatientPhone:  appt.Phone,
		RequestedDate: appt.Date,
		RequestedTime: appt.Time,
		TreatmentType: appt.Treatment.DisplayName(locale),
	}
}

func maskPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if len(phone) <= 4 {
		return "****"
	}
	return "***" + phone[len(phone)-4:]
}
