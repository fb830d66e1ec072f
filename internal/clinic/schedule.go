// Package clinic provides the practice's weekly opening structure and the
// slot grid derived from it.
package clinic

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// DateLayout is the canonical calendar date format.
	DateLayout = "2006-01-02"
	// ClockLayout is the canonical time-of-day format.
	ClockLayout = "15:04"
	// DefaultSlotMinutes is the appointment grid granularity.
	DefaultSlotMinutes = 30
	// DefaultTimezone is used when a schedule names no location.
	DefaultTimezone = "Europe/Berlin"
)

var (
	ErrInvalidInterval = errors.New("clinic: invalid interval")
	ErrInvalidClosure  = errors.New("clinic: invalid closure")

	errInvalidTimezone = errors.New("clinic: unknown timezone")
)

// Interval is an open block of the day. End is the last bookable slot
// start, inclusive.
type Interval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Closure marks a whole day as closed (holiday, vacation, training).
type Closure struct {
	Date   string `json:"date"`
	Reason string `json:"reason,omitempty"`
}

// WeeklyHours maps weekdays to their open intervals. An empty slice means closed.
type WeeklyHours struct {
	Monday    []Interval `json:"monday,omitempty"`
	Tuesday   []Interval `json:"tuesday,omitempty"`
	Wednesday []Interval `json:"wednesday,omitempty"`
	Thursday  []Interval `json:"thursday,omitempty"`
	Friday    []Interval `json:"friday,omitempty"`
	Saturday  []Interval `json:"saturday,omitempty"`
	Sunday    []Interval `json:"sunday,omitempty"`
}

// Schedule is the static opening configuration of one practice.
type Schedule struct {
	ClinicID    string      `json:"clinic_id"`
	Name        string      `json:"name,omitempty"`
	Timezone    string      `json:"timezone"`
	SlotMinutes int         `json:"slot_minutes"`
	Hours       WeeklyHours `json:"hours"`
	Closures    []Closure   `json:"closures,omitempty"`
}

// DefaultSchedule returns the practice hours: Mon-Fri 09:00-11:30 and
// 14:00-17:30, Sat 09:00-12:30, Sun closed.
func DefaultSchedule(clinicID string) *Schedule {
	weekday := func() []Interval {
		return []Interval{{Start: "09:00", End: "11:30"}, {Start: "14:00", End: "17:30"}}
	}
	return &Schedule{
		ClinicID:    clinicID,
		Name:        "Zahnarztpraxis",
		Timezone:    DefaultTimezone,
		SlotMinutes: DefaultSlotMinutes,
		Hours: WeeklyHours{
			Monday:    weekday(),
			Tuesday:   weekday(),
			Wednesday: weekday(),
			Thursday:  weekday(),
			Friday:    weekday(),
			Saturday:  []Interval{{Start: "09:00", End: "12:30"}},
		},
	}
}

// ForDay returns the intervals for a weekday.
func (h *WeeklyHours) ForDay(weekday time.Weekday) []Interval {
	switch weekday {
	case time.Sunday:
		return h.Sunday
	case time.Monday:
		return h.Monday
	case time.Tuesday:
		return h.Tuesday
	case time.Wednesday:
		return h.Wednesday
	case time.Thursday:
		return h.Thursday
	case time.Friday:
		return h.Friday
	case time.Saturday:
		return h.Saturday
	default:
		return nil
	}
}

func (h *WeeklyHours) all() map[time.Weekday][]Interval {
	return map[time.Weekday][]Interval{
		time.Monday: h.Monday, time.Tuesday: h.Tuesday, time.Wednesday: h.Wednesday,
		time.Thursday: h.Thursday, time.Friday: h.Friday, time.Saturday: h.Saturday,
		time.Sunday: h.Sunday,
	}
}

// loaded timezones by name; unknown names map to UTC
var locations sync.Map

// Location resolves the schedule's timezone, falling back to UTC. Each zone
// is loaded from the tz database once per process.
func (s *Schedule) Location() *time.Location {
	name := s.Timezone
	if name == "" {
		name = DefaultTimezone
	}
	return loadLocation(name)
}

func loadLocation(name string) *time.Location {
	if loc, ok := locations.Load(name); ok {
		return loc.(*time.Location)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.UTC
	}
	actual, _ := locations.LoadOrStore(name, loc)
	return actual.(*time.Location)
}

func (s *Schedule) slotMinutes() int {
	if s.SlotMinutes <= 0 {
		return DefaultSlotMinutes
	}
	return s.SlotMinutes
}

// Validate checks that every interval is well formed and aligned to the slot grid.
func (s *Schedule) Validate() error {
	if s == nil {
		return errors.New("clinic: schedule is nil")
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("%w %q: %v", errInvalidTimezone, s.Timezone, err)
		}
	}
	step := s.slotMinutes()
	for day, intervals := range s.Hours.all() {
		prevEnd := -1
		for _, iv := range sortedIntervals(intervals) {
			start, err := ParseClock(iv.Start)
			if err != nil {
				return fmt.Errorf("%w: %s start %q", ErrInvalidInterval, day, iv.Start)
			}
			end, err := ParseClock(iv.End)
			if err != nil {
				return fmt.Errorf("%w: %s end %q", ErrInvalidInterval, day, iv.End)
			}
			if end < start {
				return fmt.Errorf("%w: %s %s ends before it starts", ErrInvalidInterval, day, iv.Start)
			}
			if (end-start)%step != 0 {
				return fmt.Errorf("%w: %s %s-%s is not aligned to %d minutes", ErrInvalidInterval, day, iv.Start, iv.End, step)
			}
			if start <= prevEnd {
				return fmt.Errorf("%w: %s intervals overlap at %s", ErrInvalidInterval, day, iv.Start)
			}
			prevEnd = end
		}
	}
	for _, c := range s.Closures {
		if _, err := time.Parse(DateLayout, c.Date); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidClosure, c.Date)
		}
	}
	return nil
}

// ClosureOn reports the closure rule covering date, if any.
func (s *Schedule) ClosureOn(date time.Time) (Closure, bool) {
	key := date.Format(DateLayout)
	for _, c := range s.Closures {
		if c.Date == key {
			return c, true
		}
	}
	return Closure{}, false
}

// IntervalsOn returns the open intervals for a calendar date, honoring closures.
func (s *Schedule) IntervalsOn(date time.Time) []Interval {
	if _, closed := s.ClosureOn(date); closed {
		return nil
	}
	return sortedIntervals(s.Hours.ForDay(date.Weekday()))
}

// IsClosedDay reports whether no slot can ever be booked on date.
func (s *Schedule) IsClosedDay(date time.Time) bool {
	return len(s.IntervalsOn(date)) == 0
}

// Contains reports whether clock (minutes after midnight) is a bookable
// slot start on date: inside an interval and on the slot grid.
func (s *Schedule) Contains(date time.Time, clock int) bool {
	step := s.slotMinutes()
	for _, iv := range s.IntervalsOn(date) {
		start, err := ParseClock(iv.Start)
		if err != nil {
			continue
		}
		end, err := ParseClock(iv.End)
		if err != nil {
			continue
		}
		if clock >= start && clock <= end && (clock-start)%step == 0 {
			return true
		}
	}
	return false
}

// SlotsOn enumerates bookable slot starts for a date in chronological order.
func (s *Schedule) SlotsOn(date time.Time) []int {
	step := s.slotMinutes()
	var slots []int
	for _, iv := range s.IntervalsOn(date) {
		start, err := ParseClock(iv.Start)
		if err != nil {
			continue
		}
		end, err := ParseClock(iv.End)
		if err != nil {
			continue
		}
		for m := start; m <= end; m += step {
			slots = append(slots, m)
		}
	}
	return slots
}

// IsOpenAt reports whether the practice is inside opening hours at t.
func (s *Schedule) IsOpenAt(t time.Time) bool {
	local := t.In(s.Location())
	minutes := local.Hour()*60 + local.Minute()
	for _, iv := range s.IntervalsOn(local) {
		start, err1 := ParseClock(iv.Start)
		end, err2 := ParseClock(iv.End)
		if err1 != nil || err2 != nil {
			continue
		}
		if minutes >= start && minutes <= end {
			return true
		}
	}
	return false
}

// NextOpenTime returns when the practice next opens. Returns t when already open.
func (s *Schedule) NextOpenTime(t time.Time) time.Time {
	loc := s.Location()
	local := t.In(loc)
	if s.IsOpenAt(local) {
		return local
	}
	today := DateOf(local, loc)
	minutes := local.Hour()*60 + local.Minute()
	for i := 0; i < 14; i++ {
		day := today.AddDate(0, 0, i)
		for _, slot := range s.SlotsOn(day) {
			if i == 0 && slot <= minutes {
				continue
			}
			return At(day, slot)
		}
	}
	return time.Date(local.Year(), local.Month(), local.Day()+1, 9, 0, 0, 0, loc)
}

// DescribeDay renders the opening intervals of date as "09:00-11:30, 14:00-17:30".
// Returns "" when closed.
func (s *Schedule) DescribeDay(date time.Time) string {
	intervals := s.IntervalsOn(date)
	parts := make([]string, 0, len(intervals))
	for _, iv := range intervals {
		parts = append(parts, iv.Start+"-"+iv.End)
	}
	return strings.Join(parts, ", ")
}

// WithClosure returns a copy of the schedule with an extra closure day.
func (s *Schedule) WithClosure(c Closure) (*Schedule, error) {
	if _, err := time.Parse(DateLayout, c.Date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidClosure, c.Date)
	}
	out := *s
	out.Closures = make([]Closure, 0, len(s.Closures)+1)
	for _, existing := range s.Closures {
		if existing.Date != c.Date {
			out.Closures = append(out.Closures, existing)
		}
	}
	out.Closures = append(out.Closures, c)
	sort.Slice(out.Closures, func(i, j int) bool { return out.Closures[i].Date < out.Closures[j].Date })
	return &out, nil
}

func sortedIntervals(in []Interval) []Interval {
	if len(in) < 2 {
		return in
	}
	out := append([]Interval(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
