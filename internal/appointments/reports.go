package appointments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/sofia-scheduler/internal/clinic"
)

// PeriodWindow resolves a named period into an inclusive date window.
// Accepted: today, tomorrow, next_week, next_month, this_week, this_month
// (German aliases heute, morgen, naechste_woche, naechster_monat,
// diese_woche, diesen_monat).
func PeriodWindow(period string, now time.Time) (time.Time, time.Time, error) {
	today := clinic.DateOf(now, now.Location())
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "today", "heute":
		return today, today, nil
	case "tomorrow", "morgen":
		d := today.AddDate(0, 0, 1)
		return d, d, nil
	case "", "next_week", "naechste_woche":
		return today, today.AddDate(0, 0, 7), nil
	case "next_month", "naechster_monat":
		return today, today.AddDate(0, 0, 30), nil
	case "this_week", "diese_woche":
		monday := mondayOf(today)
		return monday, monday.AddDate(0, 0, 6), nil
	case "this_month", "diesen_monat":
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()), today, nil
	default:
		return time.Time{}, time.Time{}, newError(KindInvalidFormat, "", "", "unknown period %q", period)
	}
}

func mondayOf(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// DayPlan is the agenda of a single day.
type DayPlan struct {
	Date          string        `json:"date"`
	Weekday       string        `json:"weekday"`
	Hours         string        `json:"hours,omitempty"`
	Closed        bool          `json:"closed"`
	ClosureReason string        `json:"closure_reason,omitempty"`
	Appointments  []Appointment `json:"appointments"`
	FreeSlots     []string      `json:"free_slots"`
}

// DaySummary is one row of the week overview.
type DaySummary struct {
	Date      string `json:"date"`
	Weekday   string `json:"weekday"`
	Closed    bool   `json:"closed"`
	Confirmed int    `json:"confirmed"`
	Free      int    `json:"free"`
}

// Statistics summarizes bookings in a period.
type Statistics struct {
	Period        string                `json:"period"`
	From          string                `json:"from"`
	To            string                `json:"to"`
	Total         int                   `json:"total"`
	Confirmed     int                   `json:"confirmed"`
	Cancelled     int                   `json:"cancelled"`
	ByTreatment   map[TreatmentType]int `json:"by_treatment"`
	WorkingDays   int                   `json:"working_days"`
	AveragePerDay float64               `json:"average_per_day"`
}

// DayPlan lists confirmed appointments and free slots for date.
func (s *Store) DayPlan(ctx context.Context, date string) (*DayPlan, error) {
	schedule := s.checker.Schedule()
	day, err := clinic.ParseDate(date, schedule.Location())
	if err != nil {
		return nil, newError(KindInvalidFormat, date, "", "date %q must look like YYYY-MM-DD", date)
	}

	list, err := s.repo.ListRange(ctx, date, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: day plan: %w", err)
	}

	plan := &DayPlan{
		Date:         date,
		Weekday:      day.Weekday().String(),
		Hours:        schedule.DescribeDay(day),
		Closed:       schedule.IsClosedDay(day),
		Appointments: []Appointment{},
		FreeSlots:    []string{},
	}
	if closure, ok := schedule.ClosureOn(day); ok {
		plan.ClosureReason = closure.Reason
	}
	taken := make(map[string]bool)
	for _, appt := range list {
		if appt.Status == StatusConfirmed {
			plan.Appointments = append(plan.Appointments, appt)
			taken[appt.Time] = true
		}
	}
	now := s.checker.Now()
	for _, m := range schedule.SlotsOn(day) {
		clock := clinic.FormatClock(m)
		if taken[clock] || !clinic.At(day, m).After(now) {
			continue
		}
		plan.FreeSlots = append(plan.FreeSlots, clock)
	}
	return plan, nil
}

// WeekOverview summarizes the seven days of the week containing date.
func (s *Store) WeekOverview(ctx context.Context, date string) ([]DaySummary, error) {
	schedule := s.checker.Schedule()
	day, err := clinic.ParseDate(date, schedule.Location())
	if err != nil {
		return nil, newError(KindInvalidFormat, date, "", "date %q must look like YYYY-MM-DD", date)
	}
	monday := mondayOf(day)
	sunday := monday.AddDate(0, 0, 6)

	list, err := s.repo.ListRange(ctx, monday.Format(clinic.DateLayout), sunday.Format(clinic.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("appointments: week overview: %w", err)
	}
	confirmed := make(map[string]int)
	for _, appt := range list {
		if appt.Status == StatusConfirmed {
			confirmed[appt.Date]++
		}
	}

	out := make([]DaySummary, 0, 7)
	for i := 0; i < 7; i++ {
		d := monday.AddDate(0, 0, i)
		key := d.Format(clinic.DateLayout)
		slots := len(schedule.SlotsOn(d))
		free := slots - confirmed[key]
		if free < 0 {
			free = 0
		}
		out = append(out, DaySummary{
			Date:      key,
			Weekday:   d.Weekday().String(),
			Closed:    slots == 0,
			Confirmed: confirmed[key],
			Free:      free,
		})
	}
	return out, nil
}

// Statistics aggregates bookings for today, this_week or this_month.
func (s *Store) Statistics(ctx context.Context, period string) (*Statistics, error) {
	if period == "" {
		period = "this_week"
	}
	from, to, err := PeriodWindow(period, s.checker.Now())
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListRange(ctx, from.Format(clinic.DateLayout), to.Format(clinic.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("appointments: statistics: %w", err)
	}

	stats := &Statistics{
		Period:      period,
		From:        from.Format(clinic.DateLayout),
		To:          to.Format(clinic.DateLayout),
		ByTreatment: make(map[TreatmentType]int),
	}
	for _, appt := range list {
		stats.Total++
		stats.ByTreatment[appt.Treatment]++
		switch appt.Status {
		case StatusConfirmed:
			stats.Confirmed++
		case StatusCancelled:
			stats.Cancelled++
		}
	}
	schedule := s.checker.Schedule()
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !schedule.IsClosedDay(d) {
			stats.WorkingDays++
		}
	}
	if stats.WorkingDays > 0 {
		stats.AveragePerDay = float64(stats.Total) / float64(stats.WorkingDays)
	}
	return stats, nil
}
