// Package booking runs the booking conversation: it collects the reason,
// name, time and phone of a caller, validates the slot, commits it to the
// appointment store and mirrors it to the external calendar.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/sofia-scheduler/internal/appointments"
	"github.com/wolfman30/sofia-scheduler/internal/clinic"
	"github.com/wolfman30/sofia-scheduler/internal/resolver"
	"github.com/wolfman30/sofia-scheduler/pkg/logging"
)

var bookingTracer = otel.Tracer("sofia.internal.booking")

// ErrNilSession is returned when a caller passes no session.
var ErrNilSession = errors.New("booking: session is nil")

const (
	alternativeCount = 3
	// a second SLOT_TAKEN in the same conversation rejects it
	maxSlotTaken = 2
)

// Publisher mirrors a committed appointment to an external calendar. It is
// fire-and-forget from the conversation's point of view.
type Publisher interface {
	Publish(ctx context.Context, appt *appointments.Appointment) error
}

// Orchestrator sequences one booking conversation at a time over an explicit
// Session. It never returns an error for anything the caller said; replies
// are always speakable strings.
type Orchestrator struct {
	store    *appointments.Store
	finder   *appointments.Finder
	checker  *appointments.Checker
	resolver *resolver.Resolver
	mirror   Publisher
	logger   *logging.Logger

	autoRebook bool
}

// OrchestratorOption configures the orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithResolver overrides the all-locale resolver.
func WithResolver(r *resolver.Resolver) OrchestratorOption {
	return func(o *Orchestrator) {
		if r != nil {
			o.resolver = r
		}
	}
}

// WithMirror publishes every new booking to p.
func WithMirror(p Publisher) OrchestratorOption {
	return func(o *Orchestrator) {
		o.mirror = p
	}
}

// WithAutoRebook books the first alternative automatically, once, when the
// confirmed slot was taken in the meantime.
func WithAutoRebook(enabled bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.autoRebook = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator wires the orchestrator to the appointment book.
func NewOrchestrator(store *appointments.Store, finder *appointments.Finder, opts ...OrchestratorOption) *Orchestrator {
	if store == nil || finder == nil {
		panic("booking: store and finder required")
	}
	o := &Orchestrator{
		store:    store,
		finder:   finder,
		checker:  store.Checker(),
		resolver: resolver.New(),
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.WithComponent("booking")
	return o
}

// Start opens a new session.
func (o *Orchestrator) Start(id, locale string) *Session {
	return NewSession(id, locale, o.checker.Now())
}

// HandleUtterance folds one caller utterance into the session and returns
// the next thing to say.
func (o *Orchestrator) HandleUtterance(ctx context.Context, sess *Session, text string) (string, error) {
	if sess == nil {
		return "", ErrNilSession
	}
	ctx, span := bookingTracer.Start(ctx, "booking.handle_utterance")
	defer span.End()
	span.SetAttributes(
		attribute.String("sofia.session_id", sess.ID),
		attribute.String("sofia.state_before", string(sess.State)),
	)

	reply := o.handle(ctx, sess, text)
	sess.UpdatedAt = o.checker.Now()

	span.SetAttributes(attribute.String("sofia.state_after", string(sess.State)))
	if sess.State == StateRejected {
		span.SetStatus(codes.Error, "booking rejected")
	}
	return reply, nil
}

func (o *Orchestrator) handle(ctx context.Context, sess *Session, text string) string {
	m := messagesFor(sess.Locale)
	now := o.checker.Now()

	switch sess.State {
	case StateBooked:
		return fmt.Sprintf(m.alreadyBooked, resolver.SpokenDateString(sess.Date, sess.Locale), resolver.SpokenClock(sess.Time, sess.Locale))
	case StateRejected:
		return m.rejected
	}

	if sess.FollowUpPending {
		sess.FollowUpPending = false
		if answer := strings.TrimSpace(text); answer != "" {
			sess.Details = appendLine(sess.Details, answer)
		}
		return o.advance(ctx, sess)
	}

	text, contact := extractContact(text)
	if contact.phone != "" {
		sess.Phone = contact.phone
	}
	if contact.email != "" {
		sess.Email = contact.email
	}
	res := o.resolver.Resolve(text, now)

	if sess.State == StateConfirming {
		changed := (res.DateResolved && res.Date != sess.Date) || (res.TimeResolved && res.Time != sess.Time)
		if changed {
			o.absorbWhen(sess, res)
			return o.advance(ctx, sess)
		}
		switch o.resolver.Confirmation(text) {
		case resolver.AnswerYes:
			return o.commit(ctx, sess)
		case resolver.AnswerNo:
			sess.Time = ""
			sess.State = StateCollectingTime
			return m.askTime
		default:
			return m.repeatConfirm
		}
	}

	if len(sess.Alternatives) > 0 && !res.TimeResolved {
		if i, ok := ordinalChoice(text, sess.Locale, len(sess.Alternatives)); ok {
			o.pick(sess, sess.Alternatives[i])
			return o.advance(ctx, sess)
		}
		if sess.State == StateCollectingTime && o.resolver.Confirmation(text) == resolver.AnswerYes {
			o.pick(sess, sess.Alternatives[0])
			return o.advance(ctx, sess)
		}
	}

	extracted := contact.phone != "" || contact.email != "" || res.DateResolved || res.TimeResolved
	if sess.Name == "" {
		fallback := sess.State == StateCollectingName && !res.TreatmentMatched &&
			!o.mentionsWhen(firstSegment(text)) && o.resolver.Confirmation(text) == resolver.AnswerUnknown
		if name, ok := extractName(text, fallback); ok {
			sess.Name = name
			extracted = true
		}
	}
	o.absorbWhen(sess, res)

	if sess.Reason == "" {
		reason := strings.TrimSpace(text)
		if res.TreatmentMatched || (sess.State == StateCollectingReason && !extracted && reason != "") {
			sess.Reason = reason
			sess.Treatment = res.Treatment
		}
	} else if res.TreatmentMatched && sess.Treatment == appointments.DefaultTreatment {
		sess.Treatment = res.Treatment
	}
	return o.advance(ctx, sess)
}

// absorbWhen copies a resolved date and time into the session. A bare time
// keeps the date already chosen, or the date of a matching alternative.
func (o *Orchestrator) absorbWhen(sess *Session, res resolver.Result) {
	if !res.DateResolved && !res.TimeResolved {
		return
	}
	if res.DateResolved {
		sess.Date = res.Date
	}
	if res.TimeResolved {
		sess.Time = res.Time
		if !res.DateResolved {
			switch {
			case alternativeAt(sess.Alternatives, res.Time) != "":
				sess.Date = alternativeAt(sess.Alternatives, res.Time)
			case sess.Date == "":
				sess.Date = res.Date
			}
		}
	}
	sess.Alternatives = nil
}

func (o *Orchestrator) mentionsWhen(text string) bool {
	res := o.resolver.Resolve(text, o.checker.Now())
	return res.DateResolved || res.TimeResolved
}

func alternativeAt(alts []appointments.Slot, clock string) string {
	for _, a := range alts {
		if a.Time == clock {
			return a.Date
		}
	}
	return ""
}

func (o *Orchestrator) pick(sess *Session, slot appointments.Slot) {
	sess.Date, sess.Time = slot.Date, slot.Time
	sess.Alternatives = nil
}

// advance validates what has been collected and asks for the first missing
// field, or for confirmation once everything is there.
func (o *Orchestrator) advance(ctx context.Context, sess *Session) string {
	m := messagesFor(sess.Locale)

	if sess.Date != "" && sess.Time != "" {
		if err := o.checker.Check(ctx, sess.Date, sess.Time); err != nil {
			return o.guidance(ctx, sess, err)
		}
	}

	if sess.Reason != "" && !sess.FollowUpAsked {
		sess.FollowUpAsked = true
		if q := MedicalFollowUp(sess.Reason, sess.Locale); q != "" {
			sess.FollowUpPending = true
			sess.State = StateCollectingReason
			return q
		}
	}

	sess.State = sess.next()
	switch sess.State {
	case StateCollectingReason:
		return m.askReason
	case StateCollectingName:
		return m.askName
	case StateCollectingTime:
		return o.askTime(ctx, sess)
	case StateCollectingPhone:
		return m.askPhone
	default:
		return fmt.Sprintf(m.confirm,
			sess.Name,
			sess.Treatment.DisplayName(sess.Locale),
			resolver.SpokenDateString(sess.Date, sess.Locale),
			resolver.SpokenClock(sess.Time, sess.Locale),
			sess.Phone,
		)
	}
}

// askTime asks for a time, offering free slots when a day is already known
// or the visit is urgent.
func (o *Orchestrator) askTime(ctx context.Context, sess *Session) string {
	m := messagesFor(sess.Locale)
	switch {
	case sess.Date != "":
		date, err := clinic.ParseDate(sess.Date, o.checker.Schedule().Location())
		if err != nil {
			sess.Date = ""
			return m.invalidFormat
		}
		if date.Before(o.checker.Today()) {
			sess.Date = ""
			return m.pastDate
		}
		if o.checker.Schedule().IsClosedDay(date) {
			from := sess.Date
			sess.Date = ""
			return fmt.Sprintf(m.closedDay, resolver.SpokenDate(date, sess.Locale)) + " " + o.offer(ctx, sess, from, "")
		}
		slots, err := o.finder.FindNext(ctx, sess.Date, alternativeCount)
		if err != nil && appointments.KindOf(err) == "" {
			return o.integrityFailure(sess, err)
		}
		sameDay := slots[:0]
		for _, s := range slots {
			if s.Date == sess.Date {
				sameDay = append(sameDay, s)
			}
		}
		spoken := resolver.SpokenDate(date, sess.Locale)
		if len(sameDay) == 0 {
			return fmt.Sprintf(m.askTimeOn, spoken)
		}
		sess.Alternatives = sameDay
		return fmt.Sprintf(m.freeOn, spoken, spokenClocks(sameDay, sess.Locale)) + " " + fmt.Sprintf(m.askTimeOn, spoken)
	case sess.Treatment.IsTimeSensitive():
		return o.offer(ctx, sess, "", "")
	default:
		return m.askTime
	}
}

// offer looks up alternatives from date (or after date+clock) and phrases
// them. The session keeps them so the caller can pick one by ordinal.
func (o *Orchestrator) offer(ctx context.Context, sess *Session, date, clock string) string {
	m := messagesFor(sess.Locale)
	var (
		slots []appointments.Slot
		err   error
	)
	opt := appointments.WithTreatment(sess.Treatment)
	if clock != "" {
		slots, err = o.finder.FindAfter(ctx, date, clock, alternativeCount, opt)
	} else {
		slots, err = o.finder.FindNext(ctx, date, alternativeCount, opt)
	}
	if err != nil && appointments.KindOf(err) == "" {
		return o.integrityFailure(sess, err)
	}
	sess.Alternatives = slots
	if len(slots) == 0 {
		return m.noneFree
	}
	return fmt.Sprintf(m.offer, spokenSlots(slots, o.checker.Now(), sess.Locale))
}

// guidance turns a classified availability error into advice and moves the
// conversation back to collecting a time.
func (o *Orchestrator) guidance(ctx context.Context, sess *Session, err error) string {
	m := messagesFor(sess.Locale)
	kind := appointments.KindOf(err)
	if kind == "" {
		return o.integrityFailure(sess, err)
	}
	date, clock := sess.Date, sess.Time
	sess.State = StateCollectingTime
	sess.Time = ""

	switch kind {
	case appointments.KindPastDate:
		if date < o.checker.Today().Format(clinic.DateLayout) {
			sess.Date = ""
		}
		return m.pastDate
	case appointments.KindOutsideHours:
		day, perr := clinic.ParseDate(date, o.checker.Schedule().Location())
		if perr != nil {
			sess.Date = ""
			return m.invalidFormat
		}
		if o.checker.Schedule().IsClosedDay(day) {
			sess.Date = ""
			return fmt.Sprintf(m.closedDay, resolver.SpokenDate(day, sess.Locale)) + " " + o.offer(ctx, sess, date, "")
		}
		hours := spokenHours(o.checker.Schedule(), day, sess.Locale)
		return fmt.Sprintf(m.outsideHours, resolver.SpokenClock(clock, sess.Locale), resolver.SpokenDate(day, sess.Locale), hours) +
			" " + o.offer(ctx, sess, date, clock)
	case appointments.KindSlotTaken:
		return fmt.Sprintf(m.slotTaken, resolver.SpokenDateString(date, sess.Locale), resolver.SpokenClock(clock, sess.Locale)) +
			" " + o.offer(ctx, sess, date, clock)
	case appointments.KindInvalidFormat:
		sess.Date = ""
		return m.invalidFormat
	default:
		return o.integrityFailure(sess, err)
	}
}

// commit books the confirmed slot.
func (o *Orchestrator) commit(ctx context.Context, sess *Session) string {
	m := messagesFor(sess.Locale)
	now := o.checker.Now()

	appt, err := o.store.Book(ctx, sess.request())
	if err == nil {
		return o.booked(ctx, sess, appt, "")
	}

	switch appointments.KindOf(err) {
	case appointments.KindSlotTaken:
		date, clock := sess.Date, sess.Time
		sess.SlotTakenRetries++
		sess.AddNote(now, fmt.Sprintf("slot %s %s was taken", date, clock))
		taken := fmt.Sprintf(m.slotTaken, resolver.SpokenDateString(date, sess.Locale), resolver.SpokenClock(clock, sess.Locale))

		alts, ferr := o.finder.FindAfter(ctx, date, clock, alternativeCount, appointments.WithTreatment(sess.Treatment))
		if ferr != nil && appointments.KindOf(ferr) == "" {
			return o.integrityFailure(sess, ferr)
		}
		if sess.SlotTakenRetries >= maxSlotTaken || len(alts) == 0 {
			return o.reject(sess, taken)
		}
		if o.autoRebook {
			sess.Date, sess.Time = alts[0].Date, alts[0].Time
			appt, err := o.store.Book(ctx, sess.request())
			if err == nil {
				instead := fmt.Sprintf(m.bookedInstead, resolver.SpokenDateString(appt.Date, sess.Locale), resolver.SpokenClock(appt.Time, sess.Locale))
				return o.booked(ctx, sess, appt, instead)
			}
			if appointments.KindOf(err) == appointments.KindSlotTaken {
				sess.SlotTakenRetries++
				return o.reject(sess, taken)
			}
			return o.guidance(ctx, sess, err)
		}
		sess.State = StateCollectingTime
		sess.Time = ""
		sess.Alternatives = alts
		return taken + " " + fmt.Sprintf(m.offer, spokenSlots(alts, now, sess.Locale))

	case appointments.KindPatientFieldMissing:
		var e *appointments.Error
		if errors.As(err, &e) && e.Field == "phone" {
			sess.Phone = ""
		} else {
			sess.Name = ""
		}
		return o.advance(ctx, sess)

	default:
		return o.guidance(ctx, sess, err)
	}
}

func (o *Orchestrator) booked(ctx context.Context, sess *Session, appt *appointments.Appointment, prefix string) string {
	m := messagesFor(sess.Locale)
	now := o.checker.Now()

	sess.State = StateBooked
	sess.Appointment = appt
	sess.Date, sess.Time = appt.Date, appt.Time
	sess.Alternatives = nil
	sess.AddNote(now, appointments.BookedNote(appt, now).Text)
	o.logger.WithSession(sess.ID).Info("booking conversation completed",
		"appointment_id", appt.ID,
		"slot_taken_retries", sess.SlotTakenRetries,
	)

	if o.mirror != nil {
		if err := o.mirror.Publish(ctx, appt); err != nil {
			o.logger.WithSession(sess.ID).Warn("calendar mirror unavailable",
				"kind", appointments.KindBridgeUnavailable,
				"appointment_id", appt.ID,
				"error", err,
			)
			sess.AddNote(now, fmt.Sprintf("calendar mirror pending for appointment #%d", appt.ID))
		}
	}

	reply := fmt.Sprintf(m.booked, appt.PatientName,
		resolver.SpokenDateString(appt.Date, sess.Locale), resolver.SpokenClock(appt.Time, sess.Locale))
	if prefix != "" {
		reply = prefix + " " + reply
	}
	return reply
}

func (o *Orchestrator) reject(sess *Session, prefix string) string {
	sess.State = StateRejected
	sess.Time = ""
	sess.Alternatives = nil
	sess.AddNote(o.checker.Now(), "booking rejected after repeated conflicts")
	o.logger.WithSession(sess.ID).Info("booking conversation rejected", "slot_taken_retries", sess.SlotTakenRetries)
	return prefix + " " + messagesFor(sess.Locale).rejected
}

func (o *Orchestrator) integrityFailure(sess *Session, err error) string {
	o.logger.WithSession(sess.ID).Error("booking storage failure", "state", sess.State, "error", err)
	return messagesFor(sess.Locale).tryLater
}

// BookExplicit commits structured fields from an agent tool call. Dates and
// times that are not in canonical form are run through the resolver first.
// Missing fields are asked for like in the conversational path.
func (o *Orchestrator) BookExplicit(ctx context.Context, sess *Session, req appointments.BookRequest) (string, error) {
	if sess == nil {
		return "", ErrNilSession
	}
	ctx, span := bookingTracer.Start(ctx, "booking.book_explicit")
	defer span.End()
	span.SetAttributes(attribute.String("sofia.session_id", sess.ID))

	m := messagesFor(sess.Locale)
	if sess.State == StateBooked {
		return fmt.Sprintf(m.alreadyBooked, resolver.SpokenDateString(sess.Date, sess.Locale), resolver.SpokenClock(sess.Time, sess.Locale)), nil
	}
	if sess.State == StateRejected {
		sess.SlotTakenRetries = 0
	}

	setIf(&sess.Name, req.PatientName)
	setIf(&sess.Phone, req.Phone)
	setIf(&sess.Email, req.Email)
	setIf(&sess.Details, req.Notes)
	if t := strings.TrimSpace(string(req.Treatment)); t != "" {
		if parsed, ok := appointments.ParseTreatmentType(t); ok {
			sess.Treatment = parsed
		} else if detected, ok := resolver.DetectTreatment(t); ok {
			sess.Treatment = detected
		}
	}
	if sess.Treatment == "" {
		sess.Treatment = appointments.DefaultTreatment
	}
	setIf(&sess.Reason, req.Description)
	if sess.Reason == "" {
		sess.Reason = string(sess.Treatment)
	}
	sess.FollowUpAsked = true

	now := o.checker.Now()
	if d := strings.TrimSpace(req.Date); d != "" {
		sess.Date = d
		if _, err := clinic.ParseDate(d, o.checker.Schedule().Location()); err != nil {
			if res := o.resolver.Resolve(d, now); res.DateResolved {
				sess.Date = res.Date
			}
		}
	}
	if c := strings.TrimSpace(req.Time); c != "" {
		sess.Time = c
		if _, err := clinic.ParseClock(c); err != nil {
			if clock, ok := o.resolver.ResolveClock(c); ok {
				sess.Time = clock
			}
		}
	}
	sess.Alternatives = nil
	sess.UpdatedAt = now

	if sess.next() != StateConfirming {
		return o.advance(ctx, sess), nil
	}
	return o.commit(ctx, sess), nil
}

// Cancel cancels an active appointment and phrases the result.
func (o *Orchestrator) Cancel(ctx context.Context, sess *Session, id int64, reason string) (string, error) {
	if sess == nil {
		return "", ErrNilSession
	}
	m := messagesFor(sess.Locale)

	appt, err := o.store.Get(ctx, id)
	if errors.Is(err, appointments.ErrNotFound) {
		return fmt.Sprintf(m.cancelNotFound, id), nil
	}
	if err != nil {
		return o.integrityFailure(sess, err), nil
	}
	ok, err := o.store.Cancel(ctx, id, reason)
	if err != nil {
		return o.integrityFailure(sess, err), nil
	}
	if !ok {
		return fmt.Sprintf(m.cancelNotFound, id), nil
	}

	now := o.checker.Now()
	sess.AddNote(now, appointments.CancelledNote(id, reason, now).Text)
	if sess.Appointment != nil && sess.Appointment.ID == id {
		sess.Appointment.Status = appointments.StatusCancelled
	}
	return fmt.Sprintf(m.cancelled, resolver.SpokenDateString(appt.Date, sess.Locale), resolver.SpokenClock(appt.Time, sess.Locale)), nil
}

// NextAvailable proposes the next free slots for a treatment and keeps them
// on the session for selection.
func (o *Orchestrator) NextAvailable(ctx context.Context, sess *Session, treatment appointments.TreatmentType) (string, error) {
	if sess == nil {
		return "", ErrNilSession
	}
	m := messagesFor(sess.Locale)
	if treatment == "" {
		treatment = sess.Treatment
	}

	slots, err := o.finder.Suggest(ctx, alternativeCount, appointments.WithTreatment(treatment))
	if err != nil {
		return o.integrityFailure(sess, err), nil
	}
	sess.Alternatives = slots
	if len(slots) == 0 {
		return m.noneFree, nil
	}
	return fmt.Sprintf(m.nextAvailable, spokenSlots(slots, o.checker.Now(), sess.Locale)), nil
}

func setIf(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

func appendLine(existing, line string) string {
	if existing == "" {
		return line
	}
	return existing + "\n" + line
}
