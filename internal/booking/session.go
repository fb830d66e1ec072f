package booking

import (
	"time"

	"github.com/wolfman30/sofia-scheduler/internal/appointments"
	"github.com/wolfman30/sofia-scheduler/internal/resolver"
)

// State is the step a booking conversation is in.
type State string

const (
	StateCollectingReason State = "COLLECTING_REASON"
	StateCollectingName   State = "COLLECTING_NAME"
	StateCollectingTime   State = "COLLECTING_TIME"
	StateCollectingPhone  State = "COLLECTING_PHONE"
	StateConfirming       State = "CONFIRMING"
	StateBooked           State = "BOOKED"
	StateRejected         State = "REJECTED"
)

// Terminal reports whether the conversation has finished.
func (s State) Terminal() bool {
	return s == StateBooked || s == StateRejected
}

// Session is the per-conversation booking context. It is a plain value so
// it can be stored between tool calls.
type Session struct {
	ID     string `json:"id"`
	State  State  `json:"state"`
	Locale string `json:"locale"`

	Name      string                     `json:"name,omitempty"`
	Phone     string                     `json:"phone,omitempty"`
	Email     string                     `json:"email,omitempty"`
	Reason    string                     `json:"reason,omitempty"`
	Treatment appointments.TreatmentType `json:"treatment_type,omitempty"`
	Date      string                     `json:"date,omitempty"`
	Time      string                     `json:"time,omitempty"`
	Details   string                     `json:"details,omitempty"`

	Alternatives     []appointments.Slot `json:"alternatives,omitempty"`
	SlotTakenRetries int                 `json:"slot_taken_retries"`
	FollowUpAsked    bool                `json:"follow_up_asked,omitempty"`
	FollowUpPending  bool                `json:"follow_up_pending,omitempty"`

	// Notes is the audit trail of this conversation, one "HH:MM: text" line
	// per event.
	Notes       []string                  `json:"notes,omitempty"`
	Appointment *appointments.Appointment `json:"appointment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession starts a conversation waiting for the reason of the visit.
func NewSession(id, locale string, now time.Time) *Session {
	return &Session{
		ID:        id,
		State:     StateCollectingReason,
		Locale:    resolver.NormalizeLocale(locale),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddNote appends an audit line stamped with at.
func (s *Session) AddNote(at time.Time, text string) {
	s.Notes = append(s.Notes, appointments.Note{At: at, Text: text}.String())
	s.UpdatedAt = at
}

// next returns the first step whose field is still empty.
func (s *Session) next() State {
	switch {
	case s.Reason == "":
		return StateCollectingReason
	case s.Name == "":
		return StateCollectingName
	case s.Date == "" || s.Time == "":
		return StateCollectingTime
	case s.Phone == "":
		return StateCollectingPhone
	default:
		return StateConfirming
	}
}

func (s *Session) request() appointments.BookRequest {
	return appointments.BookRequest{
		PatientName: s.Name,
		Phone:       s.Phone,
		Email:       s.Email,
		Date:        s.Date,
		Time:        s.Time,
		Treatment:   s.Treatment,
		Description: s.Reason,
		Notes:       s.Details,
	}
}

func (s *Session) clone() *Session {
	out := *s
	out.Alternatives = append([]appointments.Slot(nil), s.Alternatives...)
	out.Notes = append([]string(nil), s.Notes...)
	if s.Appointment != nil {
		appt := *s.Appointment
		out.Appointment = &appt
	}
	return &out
}
