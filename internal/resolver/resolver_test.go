package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wolfman30/sofia-scheduler/internal/appointments"
)

// monday
var monday = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestResolveRelativeDates(t *testing.T) {
	tests := []struct {
		name string
		text string
		now  time.Time
		want string
	}{
		{"tomorrow", "tomorrow please", monday, "2025-03-11"},
		{"tomorrow across months", "morgen", time.Date(2025, 1, 31, 15, 0, 0, 0, time.UTC), "2025-02-01"},
		{"tomorrow across years", "domani", time.Date(2024, 12, 31, 10, 0, 0, 0, time.UTC), "2025-01-01"},
		{"today", "heute noch", monday, "2025-03-10"},
		{"day after tomorrow de", "Übermorgen", monday, "2025-03-12"},
		{"day after tomorrow en", "the day after tomorrow", monday, "2025-03-12"},
		{"day after tomorrow it", "dopodomani", monday, "2025-03-12"},
		{"next week on a monday", "next week", monday, "2025-03-17"},
		{"next week midweek", "nächste Woche", time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), "2025-03-17"},
		{"next week on sunday", "prossima settimana", time.Date(2025, 3, 16, 9, 0, 0, 0, time.UTC), "2025-03-17"},
		{"next monday on a monday", "next Monday", monday, "2025-03-17"},
		{"naechsten montag on a monday", "nächsten Montag", monday, "2025-03-17"},
		{"friday", "am Freitag", monday, "2025-03-14"},
		{"weekday of next week", "nächste Woche Dienstag", monday, "2025-03-18"},
		{"italian weekday", "giovedì", monday, "2025-03-13"},
		{"in n days", "in 3 Tagen", monday, "2025-03-13"},
		{"weekday morning is not tomorrow", "am Montag morgen um 10", time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), "2025-03-17"},
		{"weekday morning with uhr", "Montag morgen 10 Uhr", time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), "2025-03-17"},
		{"friday morning", "am Freitag morgen", monday, "2025-03-14"},
		{"compound weekday morning", "Dienstagmorgen", monday, "2025-03-11"},
		{"english weekday morning", "next Monday morning at 10", time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), "2025-03-17"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.text, tt.now)
			assert.Equal(t, tt.want, got.Date)
			assert.True(t, got.DateResolved)
		})
	}
}

func TestResolveExplicitDates(t *testing.T) {
	tests := []struct {
		text     string
		want     string
		resolved bool
	}{
		{"am 15.03.", "2025-03-15", true},
		{"am 15.03.2026 bitte", "2026-03-15", true},
		{"5.4.25", "2025-04-05", true},
		{"2025-04-01", "2025-04-01", true},
		{"il 11/03", "2025-03-11", true},
		{"12/04/2025", "2025-04-12", true},
		{"am 30.02.", "2025-03-10", false},
		{"2025-13-01", "2025-03-10", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Resolve(tt.text, monday)
			assert.Equal(t, tt.want, got.Date)
			assert.Equal(t, tt.resolved, got.DateResolved)
		})
	}
}

func TestResolveClockTimes(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"um 14 Uhr", "14:00"},
		{"14 Uhr", "14:00"},
		{"10 Uhr 30", "10:30"},
		{"um 10.30", "10:30"},
		{"10:30", "10:30"},
		{"10.30 Uhr", "10:30"},
		{"um 3", "15:00"},
		{"at 4 pm", "16:00"},
		{"at 9 a.m.", "09:00"},
		{"07:30", "07:30"},
		{"ten o'clock", "10:00"},
		{"alle 10", "10:00"},
		{"verso le 3", "15:00"},
		{"halb drei", "14:30"},
		{"gegen halb 3", "14:30"},
		{"viertel nach 10", "10:15"},
		{"kurz nach 14", "14:15"},
		{"shortly after 2", "14:15"},
		{"just before 3", "14:45"},
		{"around half past 2", "14:30"},
		{"around 2", "14:00"},
		{"le 10 e mezza", "10:30"},
		{"late afternoon", "16:00"},
		{"early afternoon", "13:00"},
		{"around noon", "12:00"},
		{"in the morning", "10:00"},
		{"after lunch", "13:30"},
		{"before lunch", "11:30"},
		{"am späten Nachmittag", "16:00"},
		{"nachmittags", "15:00"},
		{"vormittags", "10:00"},
		{"nach dem Mittagessen", "13:30"},
		{"früh morgens", "08:00"},
		{"tardo pomeriggio", "16:00"},
		{"nel pomeriggio", "15:00"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Resolve(tt.text, monday)
			assert.True(t, got.TimeResolved)
			assert.Equal(t, tt.want, got.Time)
		})
	}
}

func TestResolveCombined(t *testing.T) {
	got := Resolve("Ich hätte gern am 15.03. um 10 Uhr eine Zahnreinigung", monday)
	assert.Equal(t, "2025-03-15", got.Date)
	assert.Equal(t, "10:00", got.Time)
	assert.Equal(t, appointments.TreatmentCleaning, got.Treatment)
	assert.True(t, got.TreatmentMatched)

	got = Resolve("morgen um halb 3", monday)
	assert.Equal(t, "2025-03-11", got.Date)
	assert.Equal(t, "14:30", got.Time)

	got = Resolve("am Montag morgen um 10", time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-03-17", got.Date)
	assert.Equal(t, "10:00", got.Time)

	got = Resolve("am Freitag morgen", monday)
	assert.Equal(t, "2025-03-14", got.Date)
	assert.Equal(t, "10:00", got.Time)

	got = Resolve("dopodomani alle 10", monday)
	assert.Equal(t, "2025-03-12", got.Date)
	assert.Equal(t, "10:00", got.Time)

	got = Resolve("2025-04-01 09:30", monday)
	assert.Equal(t, "2025-04-01", got.Date)
	assert.Equal(t, "09:30", got.Time)
}

func TestResolveUnparsableFallsBack(t *testing.T) {
	for _, text := range []string{"", "blah blah", "Guten Morgen, hier ist Frau Müller", "???", "99:99 32.13."} {
		got := Resolve(text, monday)
		assert.Equal(t, "2025-03-10", got.Date, text)
		assert.False(t, got.DateResolved, text)
		assert.False(t, got.TimeResolved, text)
		assert.Empty(t, got.Time, text)
		assert.Equal(t, appointments.DefaultTreatment, got.Treatment, text)
		assert.False(t, got.TreatmentMatched, text)
	}
}

func TestDetectTreatment(t *testing.T) {
	tests := []struct {
		text string
		want appointments.TreatmentType
	}{
		{"Ich habe starke Zahnschmerzen", appointments.TreatmentEmergency},
		{"my tooth hurts", appointments.TreatmentEmergency},
		{"ho mal di denti", appointments.TreatmentEmergency},
		{"professionelle Zahnreinigung", appointments.TreatmentCleaning},
		{"PZR", appointments.TreatmentCleaning},
		{"eine Füllung", appointments.TreatmentFilling},
		{"Wurzelbehandlung", appointments.TreatmentRootCanal},
		{"der Weisheitszahn muss raus", appointments.TreatmentSurgery},
		{"wisdom tooth", appointments.TreatmentSurgery},
		{"neue Krone", appointments.TreatmentCrownBridge},
		{"Zahnspange für meine Tochter", appointments.TreatmentOrthodontics},
		{"Bleaching", appointments.TreatmentBleaching},
		{"eine Beratung zum Implantat", appointments.TreatmentImplant},
		{"Kontrolle", appointments.TreatmentCheckup},
		{"controllo annuale", appointments.TreatmentCheckup},
	}
	for _, tt := range tests {
		got, ok := DetectTreatment(tt.text)
		assert.True(t, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestCustomKeywordRules(t *testing.T) {
	r := New(LocaleEnglish).WithKeywordRules([]KeywordRule{
		{Keywords: []string{"sparkle"}, Treatment: appointments.TreatmentBleaching},
	})
	got := r.Resolve("some sparkle tomorrow", monday)
	assert.Equal(t, appointments.TreatmentBleaching, got.Treatment)
	assert.Equal(t, "2025-03-11", got.Date)

	// german phrases are not known to an english-only resolver
	got = r.Resolve("morgen", monday)
	assert.False(t, got.DateResolved)
}

func TestCorrection(t *testing.T) {
	r := New()
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"Nein, lieber 11:30", "11:30", true},
		{"besser um halb drei", "14:30", true},
		{"rather at 3", "15:00", true},
		{"meglio alle 10", "10:00", true},
		{"um 11:30", "", false},
		{"nein danke", "", false},
	}
	for _, tt := range tests {
		got, ok := r.Correction(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestConfirmation(t *testing.T) {
	r := New()
	assert.Equal(t, AnswerYes, r.Confirmation("Ja, genau."))
	assert.Equal(t, AnswerYes, r.Confirmation("yes please"))
	assert.Equal(t, AnswerYes, r.Confirmation("Sì, va bene"))
	assert.Equal(t, AnswerNo, r.Confirmation("Nein"))
	assert.Equal(t, AnswerNo, r.Confirmation("ja, aber nicht um zehn"))
	assert.Equal(t, AnswerNo, r.Confirmation("no, sorry"))
	assert.Equal(t, AnswerUnknown, r.Confirmation("hmm"))
}

func TestNextWeekday(t *testing.T) {
	for offset := 0; offset < 7; offset++ {
		today := monday.AddDate(0, 0, offset)
		next := NextMonday(today)
		assert.Equal(t, time.Monday, next.Weekday())
		days := int(next.Sub(today).Hours() / 24)
		assert.True(t, days >= 1 && days <= 7, "days=%d", days)
	}
	assert.Equal(t, "2025-03-17", NextMonday(monday).Format("2006-01-02"))
}
