package clinic

import (
	"errors"
	"testing"
	"time"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := ParseDate(value, time.UTC)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	return d
}

func TestDefaultScheduleHours(t *testing.T) {
	s := DefaultSchedule("praxis")
	if err := s.Validate(); err != nil {
		t.Fatalf("default schedule invalid: %v", err)
	}

	tests := []struct {
		name  string
		date  string
		clock string
		want  bool
	}{
		{"monday morning open", "2025-03-10", "09:00", true},
		{"monday last morning slot", "2025-03-10", "11:30", true},
		{"monday lunch gap", "2025-03-10", "12:00", false},
		{"monday lunch gap late", "2025-03-10", "13:30", false},
		{"monday afternoon", "2025-03-10", "14:00", true},
		{"friday last afternoon slot", "2025-03-14", "17:30", true},
		{"friday after close", "2025-03-14", "18:00", false},
		{"off grid", "2025-03-10", "09:15", false},
		{"before opening", "2025-03-10", "08:30", false},
		{"saturday morning", "2025-03-15", "12:30", true},
		{"saturday afternoon", "2025-03-15", "14:00", false},
		{"sunday closed", "2025-03-16", "10:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock, err := ParseClock(tt.clock)
			if err != nil {
				t.Fatalf("parse clock: %v", err)
			}
			if got := s.Contains(mustDate(t, tt.date), clock); got != tt.want {
				t.Fatalf("Contains(%s %s) = %v, want %v", tt.date, tt.clock, got, tt.want)
			}
		})
	}
}

func TestSlotsOnWeekday(t *testing.T) {
	s := DefaultSchedule("praxis")
	slots := s.SlotsOn(mustDate(t, "2025-03-11"))
	// 09:00..11:30 (6 slots) + 14:00..17:30 (8 slots)
	if len(slots) != 14 {
		t.Fatalf("expected 14 slots, got %d", len(slots))
	}
	if FormatClock(slots[0]) != "09:00" || FormatClock(slots[5]) != "11:30" || FormatClock(slots[6]) != "14:00" {
		t.Fatalf("unexpected slot order: %v", slots)
	}
	for i := 1; i < len(slots); i++ {
		if slots[i] <= slots[i-1] {
			t.Fatalf("slots not increasing at %d: %v", i, slots)
		}
	}
	if got := s.SlotsOn(mustDate(t, "2025-03-16")); len(got) != 0 {
		t.Fatalf("expected no slots on sunday, got %v", got)
	}
}

func TestClosureClosesWholeDay(t *testing.T) {
	s, err := DefaultSchedule("praxis").WithClosure(Closure{Date: "2025-12-24", Reason: "Heiligabend"})
	if err != nil {
		t.Fatalf("WithClosure: %v", err)
	}
	day := mustDate(t, "2025-12-24")
	if !s.IsClosedDay(day) {
		t.Fatal("expected closure day to be closed")
	}
	if c, ok := s.ClosureOn(day); !ok || c.Reason != "Heiligabend" {
		t.Fatalf("unexpected closure lookup: %+v %v", c, ok)
	}
	if s.IsClosedDay(mustDate(t, "2025-12-23")) {
		t.Fatal("day before closure should be open")
	}

	again, err := s.WithClosure(Closure{Date: "2025-12-24", Reason: "Betriebsferien"})
	if err != nil {
		t.Fatalf("WithClosure: %v", err)
	}
	if len(again.Closures) != 1 || again.Closures[0].Reason != "Betriebsferien" {
		t.Fatalf("expected closure replaced, got %+v", again.Closures)
	}

	if _, err := s.WithClosure(Closure{Date: "24.12.2025"}); !errors.Is(err, ErrInvalidClosure) {
		t.Fatalf("expected ErrInvalidClosure, got %v", err)
	}
}

func TestValidateRejectsBadIntervals(t *testing.T) {
	tests := []struct {
		name  string
		hours WeeklyHours
	}{
		{"unparsable", WeeklyHours{Monday: []Interval{{Start: "nine", End: "11:00"}}}},
		{"reversed", WeeklyHours{Monday: []Interval{{Start: "12:00", End: "09:00"}}}},
		{"misaligned", WeeklyHours{Monday: []Interval{{Start: "09:00", End: "09:45"}}}},
		{"overlap", WeeklyHours{Monday: []Interval{{Start: "09:00", End: "11:00"}, {Start: "10:30", End: "12:00"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Schedule{ClinicID: "x", SlotMinutes: 30, Hours: tt.hours}
			if err := s.Validate(); !errors.Is(err, ErrInvalidInterval) {
				t.Fatalf("expected ErrInvalidInterval, got %v", err)
			}
		})
	}
}

func TestIsOpenAtAndNextOpenTime(t *testing.T) {
	s := DefaultSchedule("praxis")
	s.Timezone = "UTC"

	open := time.Date(2025, 3, 10, 10, 15, 0, 0, time.UTC)
	if !s.IsOpenAt(open) {
		t.Fatal("expected open at monday 10:15")
	}
	if got := s.NextOpenTime(open); !got.Equal(open) {
		t.Fatalf("expected NextOpenTime to return t when open, got %s", got)
	}

	lunch := time.Date(2025, 3, 10, 12, 45, 0, 0, time.UTC)
	if s.IsOpenAt(lunch) {
		t.Fatal("expected closed during lunch")
	}
	if got := s.NextOpenTime(lunch); got.Hour() != 14 || got.Minute() != 0 || got.Day() != 10 {
		t.Fatalf("expected 14:00 same day, got %s", got)
	}

	saturdayEvening := time.Date(2025, 3, 15, 18, 0, 0, 0, time.UTC)
	if got := s.NextOpenTime(saturdayEvening); got.Weekday() != time.Monday || got.Hour() != 9 {
		t.Fatalf("expected monday 09:00, got %s", got)
	}
}

func TestDescribeDay(t *testing.T) {
	s := DefaultSchedule("praxis")
	if got := s.DescribeDay(mustDate(t, "2025-03-10")); got != "09:00-11:30, 14:00-17:30" {
		t.Fatalf("unexpected weekday description %q", got)
	}
	if got := s.DescribeDay(mustDate(t, "2025-03-16")); got != "" {
		t.Fatalf("expected empty description for sunday, got %q", got)
	}
}

func TestClockHelpers(t *testing.T) {
	m, err := ParseClock("14:30")
	if err != nil || m != 870 {
		t.Fatalf("ParseClock = %d, %v", m, err)
	}
	if FormatClock(m) != "14:30" {
		t.Fatalf("FormatClock = %s", FormatClock(m))
	}
	if _, err := ParseClock("25:99"); err == nil {
		t.Fatal("expected error for invalid clock")
	}
	d := mustDate(t, "2025-01-31")
	if got := At(d, 9*60+30); got.Hour() != 9 || got.Minute() != 30 || got.Day() != 31 {
		t.Fatalf("At = %s", got)
	}
}

func TestLocationIsLoadedOnce(t *testing.T) {
	s := DefaultSchedule("praxis")
	first := s.Location()
	if first.String() != DefaultTimezone {
		t.Fatalf("expected %s, got %s", DefaultTimezone, first)
	}
	if second := s.Location(); second != first {
		t.Fatalf("expected cached location pointer")
	}

	s.Timezone = "Europe/Rome"
	if got := s.Location().String(); got != "Europe/Rome" {
		t.Fatalf("expected Europe/Rome after timezone change, got %s", got)
	}

	s.Timezone = "Mars/Olympus"
	if got := s.Location(); got != time.UTC {
		t.Fatalf("expected UTC for unknown zone, got %s", got)
	}
}
