// Package appointments owns the booked-slot collection, the patient
// directory and the availability rules that guard them.
package appointments

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Appointment is a booked slot.
type Appointment struct {
	ID          int64         `json:"id"`
	PatientName string        `json:"patient_name"`
	Phone       string        `json:"phone"`
	Email       string        `json:"email,omitempty"`
	Date        string        `json:"date"`
	Time        string        `json:"time"`
	Treatment   TreatmentType `json:"treatment_type"`
	Description string        `json:"description,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	Status      Status        `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// SlotKey identifies the (date, time) pair the appointment occupies.
func (a *Appointment) SlotKey() string {
	return slotKey(a.Date, a.Time)
}

// Duration is the default length of the appointment's treatment.
func (a *Appointment) Duration() time.Duration {
	return a.Treatment.Duration()
}

func slotKey(date, clock string) string {
	return date + " " + clock
}

// Patient is identified by phone number.
type Patient struct {
	Phone       string    `json:"phone"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	BirthDate   string    `json:"birth_date,omitempty"`
	Conditions  string    `json:"conditions,omitempty"`
	Medications string    `json:"medications,omitempty"`
	Allergies   string    `json:"allergies,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BookRequest carries everything needed to commit a booking.
type BookRequest struct {
	PatientName string        `json:"patient_name"`
	Phone       string        `json:"phone"`
	Email       string        `json:"email,omitempty"`
	Date        string        `json:"appointment_date"`
	Time        string        `json:"appointment_time"`
	Treatment   TreatmentType `json:"treatment_type,omitempty"`
	Description string        `json:"description,omitempty"`
	Notes       string        `json:"notes,omitempty"`

	BirthDate   string `json:"birth_date,omitempty"`
	Conditions  string `json:"conditions,omitempty"`
	Medications string `json:"medications,omitempty"`
	Allergies   string `json:"allergies,omitempty"`
}

func (r *BookRequest) normalize() {
	r.PatientName = strings.TrimSpace(r.PatientName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	if r.Treatment == "" {
		r.Treatment = DefaultTreatment
	}
}

func (r *BookRequest) patient(now time.Time) *Patient {
	return &Patient{
		Phone:       r.Phone,
		Name:        r.PatientName,
		Email:       r.Email,
		BirthDate:   r.BirthDate,
		Conditions:  r.Conditions,
		Medications: r.Medications,
		Allergies:   r.Allergies,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SearchFilter narrows Search to a date window.
type SearchFilter struct {
	Query     string
	Treatment TreatmentType
	From      string
	To        string
}

// Note is a human readable audit line produced by a booking mutation.
type Note struct {
	At   time.Time `json:"at"`
	Text string    `json:"text"`
}

// String renders the note as "HH:MM: text".
func (n Note) String() string {
	return fmt.Sprintf("%s: %s", n.At.Format("15:04"), n.Text)
}

// BookedNote describes a successful booking.
func BookedNote(a *Appointment, at time.Time) Note {
	return Note{At: at, Text: fmt.Sprintf("appointment #%d booked for %s on %s at %s (%s)",
		a.ID, a.PatientName, a.Date, a.Time, a.Treatment)}
}

// CancelledNote describes a cancellation.
func CancelledNote(id int64, reason string, at time.Time) Note {
	text := fmt.Sprintf("appointment #%d cancelled", id)
	if reason = strings.TrimSpace(reason); reason != "" {
		text += ": " + reason
	}
	return Note{At: at, Text: text}
}

func appendNote(existing, line string) string {
	if existing == "" {
		return line
	}
	return existing + "\n" + line
}
