package resolver

import (
	"fmt"
	"time"

	"github.com/wolfman30/sofia-scheduler/internal/clinic"
)

// WeekdayName returns the localized weekday.
func WeekdayName(wd time.Weekday, locale string) string {
	return vocabularyFor(locale).weekdayNames[wd]
}

// SpokenDate renders a date the way it is read aloud, e.g.
// "Dienstag, den 11. März" or "Tuesday, March 11".
func SpokenDate(date time.Time, locale string) string {
	v := vocabularyFor(locale)
	return fmt.Sprintf(v.dateTemplate, v.weekdayNames[date.Weekday()], date.Day(), v.monthNames[date.Month()-1])
}

// SpokenDateString is SpokenDate for a "YYYY-MM-DD" string; malformed input
// is returned unchanged.
func SpokenDateString(date, locale string) string {
	d, err := clinic.ParseDate(date, time.UTC)
	if err != nil {
		return date
	}
	return SpokenDate(d, locale)
}

// SpokenClock renders "14:30" as "14 Uhr 30" in German and "14:30" elsewhere.
func SpokenClock(clock, locale string) string {
	m, err := clinic.ParseClock(clock)
	if err != nil {
		return clock
	}
	h, min := m/60, m%60
	if NormalizeLocale(locale) == LocaleGerman {
		if min == 0 {
			return fmt.Sprintf("%d Uhr", h)
		}
		return fmt.Sprintf("%d Uhr %d", h, min)
	}
	return fmt.Sprintf("%d:%02d", h, min)
}

// RelativeDay phrases a distance in days: "heute", "tomorrow", "tra 5 giorni".
func RelativeDay(days int, locale string) string {
	v := vocabularyFor(locale)
	if days >= 0 && days < len(v.relativeLabels) {
		return v.relativeLabels[days]
	}
	return fmt.Sprintf(v.inDaysTemplate, days)
}
