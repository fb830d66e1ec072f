package resolver

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/sofia-scheduler/internal/clinic"
)

// DateInfo describes "now" from the practice's point of view.
type DateInfo struct {
	Date         string       `json:"date"`
	Time         string       `json:"time"`
	Weekday      time.Weekday `json:"weekday"`
	Tomorrow     string       `json:"tomorrow"`
	NextWeek     string       `json:"next_week"`
	WorkingDay   bool         `json:"working_day"`
	OpenNow      bool         `json:"open_now"`
	HoursToday   string       `json:"hours_today,omitempty"`
	NextOpenTime time.Time    `json:"next_open_time"`
}

// Info summarizes the current date against the schedule.
func Info(now time.Time, schedule *clinic.Schedule) DateInfo {
	loc := schedule.Location()
	local := now.In(loc)
	today := clinic.DateOf(local, loc)
	return DateInfo{
		Date:         today.Format(clinic.DateLayout),
		Time:         local.Format(clinic.ClockLayout),
		Weekday:      today.Weekday(),
		Tomorrow:     today.AddDate(0, 0, 1).Format(clinic.DateLayout),
		NextWeek:     NextMonday(today).Format(clinic.DateLayout),
		WorkingDay:   !schedule.IsClosedDay(today),
		OpenNow:      schedule.IsOpenAt(local),
		HoursToday:   schedule.DescribeDay(today),
		NextOpenTime: schedule.NextOpenTime(local),
	}
}

// Describe renders the info as one or two spoken sentences.
func (i DateInfo) Describe(locale string) string {
	v := vocabularyFor(locale)
	date := i.Date
	if d, err := clinic.ParseDate(i.Date, time.UTC); err == nil {
		date = SpokenDate(d, locale)
	}
	parts := []string{fmt.Sprintf(v.todayTemplate, date)}
	switch {
	case !i.WorkingDay:
		parts = append(parts, v.closedDayPhrase)
	case i.OpenNow:
		parts = append(parts, v.openNowPhrase)
	default:
		parts = append(parts, v.closedNowPhrase)
	}
	return strings.Join(parts, " ")
}
