package timezone_test

import (
	"certslot/shared/timezone"
	"testing"
	"time"
)

func TestTimezoneInit(t *testing.T) {
	// Test Now() function
	now := timezone.Now()
	if now.IsZero() {
		t.Error("Now() returned zero time")
	}

	// Test GetLocation()
	loc := timezone.GetLocation()
	if loc == nil {
		t.Error("GetLocation() returned nil")
	}
}

func TestTimezoneWithStandardLocation(t *testing.T) {
	utcTime := time.Now().UTC()
	appTime := timezone.ToAppTime(utcTime)

	if appTime.Location() == nil {
		t.Error("Expected converted time to have a location")
	}
}

func TestStartOfDay(t *testing.T) {
	start := timezone.StartOfDay()
	now := timezone.Now()

	if start.Location() != timezone.GetLocation() {
		t.Error("StartOfDay() not in the application timezone")
	}

	if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 {
		t.Errorf("StartOfDay() is not midnight: %v", start)
	}

	if start.After(now) {
		t.Errorf("StartOfDay() %v is after Now() %v", start, now)
	}

	if start.Year() != now.Year() || start.YearDay() != now.YearDay() {
		t.Errorf("StartOfDay() %v not on the current day %v", start, now)
	}
}

func TestDateOnly(t *testing.T) {
	// A DATE column scans as UTC midnight. The calendar day must survive
	// regardless of the configured offset.
	fromDB := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	got := timezone.DateOnly(fromDB)
	if got.Year() != 2026 || got.Month() != time.August || got.Day() != 31 {
		t.Errorf("DateOnly() moved the calendar day: %v", got)
	}

	if got.Hour() != 0 || got.Location() != timezone.GetLocation() {
		t.Errorf("DateOnly() is not local midnight: %v", got)
	}

	// Late-evening timestamps stay on their own day.
	evening := time.Date(2026, 8, 31, 23, 30, 0, 0, timezone.GetLocation())
	if !timezone.DateOnly(evening).Equal(got) {
		t.Errorf("DateOnly() split one day into two: %v vs %v", timezone.DateOnly(evening), got)
	}

	// The current moment and the day boundary agree on the calendar day.
	if !timezone.DateOnly(timezone.Now()).Equal(timezone.StartOfDay()) {
		t.Error("DateOnly(Now()) and StartOfDay() disagree")
	}
}

func TestTimezoneFormat(t *testing.T) {
	testTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	formatted := timezone.Format(testTime, "2006-01-02 15:04:05 MST")

	if formatted == "" {
		t.Error("Format() returned empty string")
	}

	parsed, err := timezone.Parse("2006-01-02", "2024-01-01")
	if err != nil {
		t.Errorf("Parse() failed: %v", err)
	}

	if parsed == (time.Time{}) {
		t.Error("Parse() returned a zero time")
	}
}
