package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/sandeepkv93/slotd/internal/model"
)

func sampleEvents() []model.Event {
	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	start := time.Date(2026, 2, 10, 14, 0, 0, 0, time.UTC)
	meeting := model.Draft{
		Title:       "Design review",
		Description: "Walk through the storage layer",
		Location:    "Room 4",
		StartTime:   start,
		EndTime:     start.Add(90 * time.Minute),
		Type:        model.EventTypeMeeting,
		Priority:    model.PriorityUrgent,
		Tags:        []string{"work", "design"},
		Reminders:   []model.Reminder{{OffsetMinutesBefore: 15, Channel: model.ChannelEmail}, {OffsetMinutesBefore: 60}},
		Recurrence:  "FREQ=WEEKLY;BYDAY=TU",
	}.WithDefaults().Materialize("evt-1", created)

	holidayStart := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)
	holiday := model.Draft{
		Title:     "Holiday",
		StartTime: holidayStart,
		EndTime:   holidayStart,
		AllDay:    true,
		Priority:  model.PriorityLow,
	}.WithDefaults().Materialize("evt-2", created)
	return []model.Event{meeting, holiday}
}

func TestICSRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteICS(&buf, sampleEvents()); err != nil {
		t.Fatalf("write ics: %v", err)
	}
	text := buf.String()
	for _, want := range []string{"BEGIN:VCALENDAR", "UID:evt-1", "X-SLOTD-TYPE:meeting", "PRIORITY:1", "BEGIN:VALARM", "RRULE:FREQ=WEEKLY;BYDAY=TU"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}

	items, skipped, err := ReadICS(strings.NewReader(text), time.UTC)
	if err != nil {
		t.Fatalf("read ics: %v", err)
	}
	if len(skipped) != 0 || len(items) != 2 {
		t.Fatalf("unexpected read result: items=%d skipped=%v", len(items), skipped)
	}

	m := items[0]
	if m.UID != "evt-1" || m.Draft.Title != "Design review" || m.Draft.Location != "Room 4" {
		t.Fatalf("unexpected meeting: %+v", m)
	}
	if !m.Draft.StartTime.Equal(time.Date(2026, 2, 10, 14, 0, 0, 0, time.UTC)) || m.Draft.EndTime.Sub(m.Draft.StartTime) != 90*time.Minute {
		t.Fatalf("unexpected meeting times: %s - %s", m.Draft.StartTime, m.Draft.EndTime)
	}
	if m.Draft.Type != model.EventTypeMeeting || m.Draft.Priority != model.PriorityUrgent {
		t.Fatalf("unexpected meeting enums: %+v", m.Draft)
	}
	if len(m.Draft.Tags) != 2 || m.Draft.Tags[1] != "design" {
		t.Fatalf("unexpected tags: %v", m.Draft.Tags)
	}
	if len(m.Draft.Reminders) != 2 || m.Draft.Reminders[0] != (model.Reminder{OffsetMinutesBefore: 15, Channel: model.ChannelEmail}) {
		t.Fatalf("unexpected reminders: %+v", m.Draft.Reminders)
	}
	if m.Draft.Recurrence != "FREQ=WEEKLY;BYDAY=TU" {
		t.Fatalf("unexpected recurrence: %q", m.Draft.Recurrence)
	}
	if err := m.Draft.Validate(); err != nil {
		t.Fatalf("imported draft must validate: %v", err)
	}

	h := items[1]
	if !h.Draft.AllDay || h.Draft.StartTime.Format("2006-01-02") != "2026-02-16" || h.Draft.Priority != model.PriorityLow {
		t.Fatalf("unexpected holiday: %+v", h.Draft)
	}
}

func TestReadICSThirdParty(t *testing.T) {
	body := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//other//EN",
		"BEGIN:VEVENT",
		"UID:abc@example.com",
		"DTSTAMP:20260201T000000Z",
		"DTSTART;TZID=Europe/Berlin:20260210T090000",
		"DTEND;TZID=Europe/Berlin:20260210T100000",
		"SUMMARY:Floating zone",
		"BEGIN:VALARM",
		"ACTION:DISPLAY",
		"TRIGGER:-PT1H30M",
		"END:VALARM",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:no-start",
		"SUMMARY:Broken",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")
	items, skipped, err := ReadICS(strings.NewReader(body), time.UTC)
	if err != nil {
		t.Fatalf("read ics: %v", err)
	}
	if len(items) != 1 || len(skipped) != 1 {
		t.Fatalf("expected one item and one skip, got %d/%d", len(items), len(skipped))
	}
	d := items[0].Draft
	if d.StartTime.UTC().Hour() != 8 {
		t.Fatalf("expected TZID to be honoured, got %s", d.StartTime.UTC())
	}
	if d.Type != model.EventTypeEvent || d.Priority != model.PriorityMedium {
		t.Fatalf("expected defaults, got %+v", d)
	}
	if len(d.Reminders) != 1 || d.Reminders[0].OffsetMinutesBefore != 90 || d.Reminders[0].Channel != model.ChannelNotification {
		t.Fatalf("unexpected reminders: %+v", d.Reminders)
	}
}

func TestReadICSEmpty(t *testing.T) {
	body := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//x//EN\r\nEND:VCALENDAR\r\n"
	if _, _, err := ReadICS(strings.NewReader(body), time.UTC); !errors.Is(err, ErrEmptyCalendar) {
		t.Fatalf("expected ErrEmptyCalendar, got %v", err)
	}
}

func TestParseTrigger(t *testing.T) {
	cases := map[string]int{"-PT15M": 15, "-PT2H": 120, "-P1D": 1440, "-P1DT1H": 1500, "-P1W": 10080, "PT0M": 0}
	for in, want := range cases {
		got, ok := parseTrigger(in)
		if !ok || got != want {
			t.Fatalf("%s: got %d ok=%v want %d", in, got, ok, want)
		}
	}
	if _, ok := parseTrigger("PT15M"); ok {
		t.Fatal("positive triggers are not reminders")
	}
}

func TestPriorityMapping(t *testing.T) {
	for _, p := range model.Priorities() {
		if got := priorityFromICS(icsPriority(p)); got != p {
			t.Fatalf("priority %s round-tripped to %s", p, got)
		}
	}
	if priorityFromICS(0) != model.PriorityMedium {
		t.Fatal("undefined priority should map to medium")
	}
}
