package appointments

import (
	"errors"
	"fmt"
)

// Kind classifies why a slot cannot be booked.
type Kind string

const (
	KindPastDate            Kind = "PAST_DATE"
	KindOutsideHours        Kind = "OUTSIDE_HOURS"
	KindSlotTaken           Kind = "SLOT_TAKEN"
	KindInvalidFormat       Kind = "INVALID_FORMAT"
	KindPatientFieldMissing Kind = "PATIENT_FIELD_MISSING"
	KindBridgeUnavailable   Kind = "BRIDGE_UNAVAILABLE"
	kindNone                Kind = ""
)

// Error is a classified booking failure.
type Error struct {
	Kind    Kind
	Message string
	Date    string
	Time    string
	Field   string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrPastDate            = &Error{Kind: KindPastDate}
	ErrOutsideHours        = &Error{Kind: KindOutsideHours}
	ErrSlotTaken           = &Error{Kind: KindSlotTaken}
	ErrInvalidFormat       = &Error{Kind: KindInvalidFormat}
	ErrPatientFieldMissing = &Error{Kind: KindPatientFieldMissing}
	ErrBridgeUnavailable   = &Error{Kind: KindBridgeUnavailable}

	// ErrNotFound is returned when an appointment id does not exist.
	ErrNotFound = errors.New("appointment not found")

	// ErrPatientNotFound is returned when no patient is registered under a phone number.
	ErrPatientNotFound = errors.New("patient not found")
)

// KindOf extracts the classification from err, or "" for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return kindNone
}

func newError(kind Kind, date, clock, format string, args ...any) *Error {
	return &Error{Kind: kind, Date: date, Time: clock, Message: fmt.Sprintf(format, args...)}
}
