package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/sofia-scheduler/internal/clinic"
	"github.com/wolfman30/sofia-scheduler/internal/observability/metrics"
)

// SlotLookup answers whether a confirmed appointment occupies a slot.
type SlotLookup interface {
	IsSlotTaken(ctx context.Context, date, clock string) (bool, error)
}

// Checker decides whether a (date, time) pair is bookable.
type Checker struct {
	schedule *clinic.Schedule
	slots    SlotLookup
	now      func() time.Time
	metrics  *metrics.SchedulingMetrics
}

// CheckerOption customizes a Checker.
type CheckerOption func(*Checker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) CheckerOption {
	return func(c *Checker) {
		if now != nil {
			c.now = now
		}
	}
}

// WithCheckerMetrics records availability results.
func WithCheckerMetrics(m *metrics.SchedulingMetrics) CheckerOption {
	return func(c *Checker) {
		c.metrics = m
	}
}

// NewChecker builds a checker over a schedule and the booked-slot lookup.
func NewChecker(schedule *clinic.Schedule, slots SlotLookup, opts ...CheckerOption) *Checker {
	if schedule == nil {
		schedule = clinic.DefaultSchedule("default")
	}
	if slots == nil {
		panic("appointments: slot lookup required")
	}
	c := &Checker{schedule: schedule, slots: slots, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Schedule exposes the clinic hours the checker enforces.
func (c *Checker) Schedule() *clinic.Schedule {
	return c.schedule
}

// Now returns the current time in the clinic's location.
func (c *Checker) Now() time.Time {
	return c.now().In(c.schedule.Location())
}

// Today returns midnight of the current clinic day.
func (c *Checker) Today() time.Time {
	return clinic.DateOf(c.now(), c.schedule.Location())
}

// IsAvailable reports whether the slot can be booked. A false result always
// comes with an error explaining why; classified errors are *Error values.
func (c *Checker) IsAvailable(ctx context.Context, date, clock string) (bool, error) {
	if err := c.Check(ctx, date, clock); err != nil {
		return false, err
	}
	return true, nil
}

// Check returns nil when the slot is bookable.
func (c *Checker) Check(ctx context.Context, date, clock string) error {
	_, clock, err := c.validate(date, clock)
	if err != nil {
		c.metrics.ObserveAvailability(string(KindOf(err)))
		return err
	}
	taken, err := c.slots.IsSlotTaken(ctx, date, clock)
	if err != nil {
		c.metrics.ObserveAvailability("error")
		return fmt.Errorf("appointments: slot lookup: %w", err)
	}
	if taken {
		c.metrics.ObserveAvailability(string(KindSlotTaken))
		return newError(KindSlotTaken, date, clock, "%s at %s is already booked", date, clock)
	}
	c.metrics.ObserveAvailability("available")
	return nil
}

// validate covers every rule that does not need the appointment collection:
// format, past moments and opening hours. Returns the slot start and the
// clock normalized to HH:MM.
func (c *Checker) validate(date, clock string) (time.Time, string, error) {
	loc := c.schedule.Location()
	day, err := clinic.ParseDate(date, loc)
	if err != nil {
		return time.Time{}, clock, newError(KindInvalidFormat, date, clock, "date %q must look like YYYY-MM-DD", date)
	}
	minutes, err := clinic.ParseClock(clock)
	if err != nil {
		return time.Time{}, clock, newError(KindInvalidFormat, date, clock, "time %q must look like HH:MM", clock)
	}
	clock = clinic.FormatClock(minutes)
	start := clinic.At(day, minutes)
	if !start.After(c.now()) {
		return time.Time{}, clock, newError(KindPastDate, date, clock, "%s %s is in the past", date, clock)
	}
	if !c.schedule.Contains(day, minutes) {
		if closure, ok := c.schedule.ClosureOn(day); ok {
			return time.Time{}, clock, newError(KindOutsideHours, date, clock, "practice closed on %s: %s", date, closure.Reason)
		}
		return time.Time{}, clock, newError(KindOutsideHours, date, clock, "%s %s is outside opening hours", date, clock)
	}
	return start, clock, nil
}
