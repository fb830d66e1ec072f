package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/sofia-scheduler/internal/clinic"
)

// DefaultHorizonDays bounds how far ahead the finder scans.
const DefaultHorizonDays = 30

// Slot is an open (date, time) pair.
type Slot struct {
	Date  string    `json:"date"`
	Time  string    `json:"time"`
	Start time.Time `json:"start"`
}

// DaysFrom returns how many calendar days lie between now and the slot.
func (s Slot) DaysFrom(now time.Time) int {
	today := clinic.DateOf(now, s.Start.Location())
	day := clinic.DateOf(s.Start, s.Start.Location())
	return int(day.Sub(today).Hours()+12) / 24
}

// Finder scans forward for open slots.
type Finder struct {
	checker     *Checker
	horizonDays int
}

// NewFinder builds a finder; horizonDays <= 0 uses DefaultHorizonDays.
func NewFinder(checker *Checker, horizonDays int) *Finder {
	if checker == nil {
		panic("appointments: checker required")
	}
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return &Finder{checker: checker, horizonDays: horizonDays}
}

type findOptions struct {
	timeSensitive bool
	after         int
}

// FindOption tunes a FindNext call.
type FindOption func(*findOptions)

// WithTimeSensitive starts the scan today so same-day slots come first,
// even when the requested start date lies later.
func WithTimeSensitive() FindOption {
	return func(o *findOptions) {
		o.timeSensitive = true
	}
}

// WithTreatment applies the preference implied by the treatment, such as
// urgency for emergencies.
func WithTreatment(t TreatmentType) FindOption {
	return func(o *findOptions) {
		if t.IsTimeSensitive() {
			o.timeSensitive = true
		}
	}
}

// FindNext returns up to count open slots from fromDate (inclusive) in
// strictly chronological order. An empty or short result is not an error.
func (f *Finder) FindNext(ctx context.Context, fromDate string, count int, opts ...FindOption) ([]Slot, error) {
	o := findOptions{after: -1}
	for _, opt := range opts {
		opt(&o)
	}
	if count <= 0 {
		return []Slot{}, nil
	}

	schedule := f.checker.Schedule()
	today := f.checker.Today()
	start := today
	if fromDate != "" {
		d, err := clinic.ParseDate(fromDate, schedule.Location())
		if err != nil {
			return nil, newError(KindInvalidFormat, fromDate, "", "date %q must look like YYYY-MM-DD", fromDate)
		}
		start = d
	}
	requested := start
	if o.timeSensitive && today.Before(start) {
		start = today
	}
	if start.Before(today) {
		start = today
	}

	slots := make([]Slot, 0, count)
	for i := 0; i < f.horizonDays && len(slots) < count; i++ {
		if err := ctx.Err(); err != nil {
			return slots, err
		}
		day := start.AddDate(0, 0, i)
		if schedule.IsClosedDay(day) {
			continue
		}
		date := day.Format(clinic.DateLayout)
		for _, m := range schedule.SlotsOn(day) {
			if m <= o.after && day.Equal(requested) {
				continue
			}
			clock := clinic.FormatClock(m)
			err := f.checker.Check(ctx, date, clock)
			if err == nil {
				slots = append(slots, Slot{Date: date, Time: clock, Start: clinic.At(day, m)})
				if len(slots) == count {
					break
				}
				continue
			}
			if KindOf(err) == kindNone {
				return slots, err
			}
		}
	}
	return slots, nil
}

// FindAfter returns up to count open slots strictly after (date, clock),
// which keeps alternatives close to a slot that turned out to be taken.
func (f *Finder) FindAfter(ctx context.Context, date, clock string, count int, opts ...FindOption) ([]Slot, error) {
	m, err := clinic.ParseClock(clock)
	if err != nil {
		return nil, newError(KindInvalidFormat, date, clock, "time %q must look like HH:MM", clock)
	}
	opts = append(opts, func(o *findOptions) { o.after = m })
	return f.FindNext(ctx, date, count, opts...)
}

// Suggest picks a sensible starting day: today while it is still morning and
// the practice is open, otherwise tomorrow.
func (f *Finder) Suggest(ctx context.Context, count int, opts ...FindOption) ([]Slot, error) {
	now := f.checker.Now()
	start := f.checker.Today()
	if now.Hour() >= 12 || !f.checker.Schedule().IsOpenAt(now) {
		start = start.AddDate(0, 0, 1)
	}
	return f.FindNext(ctx, start.Format(clinic.DateLayout), count, opts...)
}

// RelativeLabel phrases the slot's distance from now in English:
// "today", "tomorrow", "the day after tomorrow" or "in N days".
func (s Slot) RelativeLabel(now time.Time) string {
	switch days := s.DaysFrom(now); days {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	case 2:
		return "the day after tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}
