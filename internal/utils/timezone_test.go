package utils

import (
	"testing"
	"time"
)

func TestStartOfDayInTimezone(t *testing.T) {
	// 2026-03-10 01:30 in Bangkok is still 2026-03-09 18:30 UTC.
	at := time.Date(2026, 3, 9, 18, 30, 0, 0, time.UTC)

	got := StartOfDayInTimezone("Asia/Bangkok", at)
	loc, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	want := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("StartOfDayInTimezone = %v, want %v", got, want)
	}

	// A row timestamped late the previous Bangkok day sits before the boundary.
	previous := time.Date(2026, 3, 9, 16, 59, 0, 0, time.UTC)
	if !previous.Before(got) {
		t.Fatalf("expected %v to fall before the day boundary %v", previous, got)
	}
}

func TestStartOfDayFallsBackToUTC(t *testing.T) {
	at := time.Date(2026, 3, 10, 13, 45, 0, 0, time.UTC)
	got := StartOfDayInTimezone("Not/AZone", at)
	want := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("StartOfDayInTimezone = %v, want %v", got, want)
	}
}

func TestFormatThaiDate(t *testing.T) {
	at := time.Date(2026, 8, 28, 5, 0, 0, 0, time.UTC) // noon in Bangkok
	got := FormatThaiDate("Asia/Bangkok", at)
	want := "28 สิงหาคม 2569"
	if got != want {
		t.Fatalf("FormatThaiDate = %q, want %q", got, want)
	}
}

func TestFormatThaiDateCrossesMidnight(t *testing.T) {
	// 23:30 UTC is already the next day in Bangkok.
	at := time.Date(2026, 12, 31, 23, 30, 0, 0, time.UTC)
	got := FormatThaiDate("Asia/Bangkok", at)
	want := "1 มกราคม 2570"
	if got != want {
		t.Fatalf("FormatThaiDate = %q, want %q", got, want)
	}
}
