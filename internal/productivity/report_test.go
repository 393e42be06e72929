package productivity

import (
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/slotd/internal/model"
)

func TestMarkdownReport(t *testing.T) {
	a := Analysis{
		Period:                      PeriodWeek,
		StartDate:                   monday,
		EndDate:                     monday.AddDate(0, 0, 7).Add(-time.Nanosecond),
		TotalEvents:                 3,
		TotalDurationMinutes:        150,
		AverageEventDurationMinutes: 50,
		TypeDistribution:            map[model.EventType]int{model.EventTypeMeeting: 2, model.EventTypeTask: 1},
		PriorityDistribution:        map[model.Priority]int{model.PriorityHigh: 3},
		MostProductiveDay:           "Tuesday",
		MostProductiveHour:          -1,
	}
	md := a.Markdown(time.UTC)
	for _, want := range []string{
		"# Week report",
		"_Mon Feb 9 to Sun Feb 15_",
		"| scheduled time | 2h 30m |",
		"| busiest day | Tuesday |",
		"- meeting: 2",
		"- high: 3",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "busiest hour") {
		t.Fatalf("expected no busiest hour for an empty period:\n%s", md)
	}
	if strings.Contains(md, "- low:") {
		t.Fatalf("expected empty priorities to be omitted:\n%s", md)
	}
}
