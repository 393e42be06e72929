package commands

import (
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// ResolveDate turns "today", "tomorrow", a weekday name (next occurrence
// after today) or YYYY-MM-DD into local midnight of that day.
func ResolveDate(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = now.Location()
	}
	n := now.In(loc)
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}
	v = strings.TrimPrefix(v, "next ")
	if wd, ok := weekdays[v]; ok {
		ahead := (int(wd) - int(today.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return today.AddDate(0, 0, ahead), nil
	}
	d, err := time.ParseInLocation("2006-01-02", v, loc)
	if err != nil {
		return time.Time{}, invalid("unrecognized date %q", raw)
	}
	return d, nil
}

// ResolveWhen turns "[date] HH:MM" or "YYYY-MM-DDTHH:MM" into a local time.
// A bare clock time means today.
func ResolveWhen(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = now.Location()
	}
	v := strings.TrimSpace(raw)
	if t, err := time.ParseInLocation("2006-01-02T15:04", v, loc); err == nil {
		return t, nil
	}
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return time.Time{}, invalid("time is required")
	}
	clock, err := time.Parse("15:04", fields[len(fields)-1])
	if err != nil {
		return time.Time{}, invalid("unrecognized time %q, expected HH:MM", fields[len(fields)-1])
	}
	day, err := ResolveDate(strings.Join(fields[:len(fields)-1], " "), now, loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), nil
}
