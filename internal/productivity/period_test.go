package productivity

import (
	"errors"
	"testing"
	"time"
)

func TestBounds(t *testing.T) {
	ref := time.Date(2026, 2, 12, 15, 4, 0, 0, time.UTC) // Thursday
	cases := []struct {
		period     Period
		start, end string
	}{
		{period: PeriodDay, start: "2026-02-12", end: "2026-02-12"},
		{period: PeriodWeek, start: "2026-02-09", end: "2026-02-15"},
		{period: PeriodMonth, start: "2026-02-01", end: "2026-02-28"},
	}
	for _, tc := range cases {
		start, end, err := Bounds(tc.period, ref, time.UTC)
		if err != nil {
			t.Fatalf("%s: bounds failed: %v", tc.period, err)
		}
		if got := start.Format("2006-01-02 15:04"); got != tc.start+" 00:00" {
			t.Fatalf("%s: unexpected start %s", tc.period, got)
		}
		if got := end.Format("2006-01-02 15:04:05"); got != tc.end+" 23:59:59" {
			t.Fatalf("%s: unexpected end %s", tc.period, got)
		}
	}
}

func TestBoundsSundayBelongsToPreviousWeek(t *testing.T) {
	sunday := time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC)
	start, _, err := Bounds(PeriodWeek, sunday, time.UTC)
	if err != nil {
		t.Fatalf("bounds failed: %v", err)
	}
	if start.Weekday() != time.Monday || start.Day() != 9 {
		t.Fatalf("unexpected week start: %s", start)
	}
}

func TestBoundsCustomAndParse(t *testing.T) {
	if _, _, err := Bounds(PeriodCustom, time.Now(), time.UTC); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
	if p, err := ParsePeriod(" Week "); err != nil || p != PeriodWeek {
		t.Fatalf("expected week, got %q err=%v", p, err)
	}
	if _, err := ParsePeriod("decade"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}
