package productivity

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/slotd/internal/model"
)

type Period string

const (
	PeriodDay    Period = "day"
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodCustom Period = "custom"
)

func (p Period) IsValid() bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodCustom:
		return true
	default:
		return false
	}
}

func ParsePeriod(raw string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(raw)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, raw)
	}
	return p, nil
}

// Bounds returns the inclusive window of the calendar period containing ref.
// Weeks start on Monday. Custom periods have no implied bounds.
func Bounds(p Period, ref time.Time, loc *time.Location) (time.Time, time.Time, error) {
	day := model.StartOfDay(ref, loc)
	var start, next time.Time
	switch p {
	case PeriodDay:
		start, next = day, day.AddDate(0, 0, 1)
	case PeriodWeek:
		offset := (int(day.Weekday()) + 6) % 7
		start = day.AddDate(0, 0, -offset)
		next = start.AddDate(0, 0, 7)
	case PeriodMonth:
		start = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		next = start.AddDate(0, 1, 0)
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q has no implied bounds", ErrInvalidPeriod, p)
	}
	return start, next.Add(-time.Nanosecond), nil
}
