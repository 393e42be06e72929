package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/slotd/internal/model"
)

const (
	dayLayout   = "Mon 2006-01-02"
	clockLayout = "15:04"
)

func formatSpan(slot model.TimeSlot, loc *time.Location) string {
	start, end := slot.Start.In(loc), slot.End.In(loc)
	if model.SameDay(start, end.Add(-time.Nanosecond), loc) {
		return fmt.Sprintf("%s %s-%s", start.Format(dayLayout), start.Format(clockLayout), end.Format(clockLayout))
	}
	return fmt.Sprintf("%s %s - %s %s", start.Format(dayLayout), start.Format(clockLayout), end.Format(dayLayout), end.Format(clockLayout))
}

func formatWhen(e model.Event, loc *time.Location) string {
	if e.AllDay {
		return e.StartTime.In(loc).Format(dayLayout) + " all day"
	}
	return formatSpan(e.Interval(), loc)
}

// printEvents groups events by local day, like an agenda.
func printEvents(w io.Writer, list []model.Event, loc *time.Location) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}
	var currentDay string
	for _, e := range list {
		start := e.StartTime.In(loc)
		day := start.Format(dayLayout)
		if day != currentDay {
			fmt.Fprintln(w, day)
			currentDay = day
		}
		clock := "all day    "
		if !e.AllDay {
			clock = start.Format(clockLayout) + "-" + e.EndTime.In(loc).Format(clockLayout)
		}
		line := fmt.Sprintf("  %s  %-8s %-6s %s", clock, e.Type, e.Priority, e.Title)
		if len(e.Tags) > 0 {
			line += "  #" + strings.Join(e.Tags, " #")
		}
		fmt.Fprintf(w, "%s  [%s]\n", line, e.ID)
	}
}

func printEvent(w io.Writer, e model.Event, loc *time.Location) {
	fmt.Fprintf(w, "%s  %s\n", e.ID, e.Title)
	fmt.Fprintf(w, "  when:     %s\n", formatWhen(e, loc))
	fmt.Fprintf(w, "  type:     %s\n", e.Type)
	fmt.Fprintf(w, "  priority: %s\n", e.Priority)
	if e.Location != "" {
		fmt.Fprintf(w, "  location: %s\n", e.Location)
	}
	if len(e.Tags) > 0 {
		fmt.Fprintf(w, "  tags:     %s\n", strings.Join(e.Tags, ", "))
	}
	for _, r := range e.Reminders {
		fmt.Fprintf(w, "  reminder: %d min before via %s\n", r.OffsetMinutesBefore, r.Channel)
	}
	if e.Recurrence != "" {
		fmt.Fprintf(w, "  repeats:  %s\n", e.Recurrence)
	}
	if e.Description != "" {
		fmt.Fprintf(w, "  %s\n", e.Description)
	}
}

// parseReminders reads "MINUTES[:CHANNEL]" values.
func parseReminders(values []string) ([]model.Reminder, error) {
	out := make([]model.Reminder, 0, len(values))
	for _, raw := range values {
		minutes, channel, _ := strings.Cut(strings.TrimSpace(raw), ":")
		n, err := strconv.Atoi(minutes)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid reminder %q: want MINUTES[:CHANNEL]", raw)
		}
		r := model.Reminder{OffsetMinutesBefore: n}
		if channel != "" {
			c, err := model.ParseChannel(channel)
			if err != nil {
				return nil, err
			}
			r.Channel = c
		}
		out = append(out, r.WithDefaults())
	}
	return out, nil
}

func cleanTags(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimPrefix(strings.TrimSpace(v), "#")
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
