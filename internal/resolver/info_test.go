package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wolfman30/sofia-scheduler/internal/clinic"
)

func utcSchedule() *clinic.Schedule {
	s := clinic.DefaultSchedule("test")
	s.Timezone = "UTC"
	return s
}

func TestInfo(t *testing.T) {
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	info := Info(now, utcSchedule())

	assert.Equal(t, "2025-03-10", info.Date)
	assert.Equal(t, "10:00", info.Time)
	assert.Equal(t, time.Monday, info.Weekday)
	assert.Equal(t, "2025-03-11", info.Tomorrow)
	assert.Equal(t, "2025-03-17", info.NextWeek)
	assert.True(t, info.WorkingDay)
	assert.True(t, info.OpenNow)
	assert.Equal(t, "09:00-11:30, 14:00-17:30", info.HoursToday)

	assert.Equal(t, "Heute ist Montag, den 10. März. Die Praxis ist gerade geöffnet.", info.Describe("de"))
	assert.Equal(t, "Today is Monday, March 10. The practice is open right now.", info.Describe("en-GB"))

	lunch := Info(time.Date(2025, 3, 10, 12, 45, 0, 0, time.UTC), utcSchedule())
	assert.False(t, lunch.OpenNow)
	assert.Equal(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC), lunch.NextOpenTime)
	assert.Equal(t, "Oggi è lunedì 10 marzo. Lo studio è chiuso in questo momento.", lunch.Describe("it"))

	sunday := Info(time.Date(2025, 3, 16, 10, 0, 0, 0, time.UTC), utcSchedule())
	assert.False(t, sunday.WorkingDay)
	assert.Empty(t, sunday.HoursToday)
	assert.Contains(t, sunday.Describe("de"), "geschlossen")
}

func TestFormatting(t *testing.T) {
	d := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Dienstag, den 11. März", SpokenDate(d, "de"))
	assert.Equal(t, "Tuesday, March 11", SpokenDate(d, "en"))
	assert.Equal(t, "martedì 11 marzo", SpokenDateString("2025-03-11", "it"))
	assert.Equal(t, "not-a-date", SpokenDateString("not-a-date", "it"))

	assert.Equal(t, "14 Uhr 30", SpokenClock("14:30", "de"))
	assert.Equal(t, "9 Uhr", SpokenClock("09:00", "de"))
	assert.Equal(t, "9:00", SpokenClock("09:00", "en"))

	assert.Equal(t, "morgen", RelativeDay(1, "de"))
	assert.Equal(t, "the day after tomorrow", RelativeDay(2, "en"))
	assert.Equal(t, "tra 5 giorni", RelativeDay(5, "it"))

	assert.Equal(t, "Freitag", WeekdayName(time.Friday, "xx"))
	assert.Equal(t, LocaleEnglish, NormalizeLocale("EN-us"))
	assert.Equal(t, DefaultLocale, NormalizeLocale(""))
}
