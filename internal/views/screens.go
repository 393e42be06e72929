package views

import (
	"fmt"
	"strings"
)

type EventDetail struct {
	ID        string
	Title     string
	When      string
	Type      string
	Priority  string
	Tags      []string
	Location  string
	Reminders int
	Conflicts []string
}

type DayPanelData struct {
	Date      string
	TableView string
	Count     int
}

type SlotRow struct {
	Start string
	End   string
	Score int
}

type SlotsPanelData struct {
	Date     string
	Minutes  int
	Priority string
	Best     string
	Rows     []SlotRow
}

type SuggestionRow struct {
	ID           string
	When         string
	Reason       string
	Confidence   float64
	Strategy     string
	Alternatives []string
}

type ConflictsPanelData struct {
	EventTitle  string
	Lines       []string
	Suggestions []SuggestionRow
}

type InsightsPanelData struct {
	Period       string
	Range        string
	ViewportView string
	Generated    bool
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

type ReminderData struct {
	Title   string
	Channel string
	At      string
}

func RenderDayPanel(data DayPanelData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "day: %s (%d events)\n", data.Date, data.Count)
	b.WriteString("actions: [h/l]prev/next day [t]today [c]conflicts [r]reschedule [x]delete\n")
	if data.Count == 0 {
		b.WriteString(mutedStyle.Render("no events scheduled"))
		return b.String()
	}
	b.WriteString(data.TableView)
	return strings.TrimRight(b.String(), "\n")
}

func RenderEventDetail(d *EventDetail) string {
	if d == nil {
		return mutedStyle.Render("no event selected")
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(d.Title) + "\n")
	fmt.Fprintf(&b, "id: %s\n", d.ID)
	fmt.Fprintf(&b, "when: %s\n", d.When)
	fmt.Fprintf(&b, "type: %s  priority: %s\n", d.Type, d.Priority)
	if d.Location != "" {
		fmt.Fprintf(&b, "location: %s\n", d.Location)
	}
	if len(d.Tags) > 0 {
		fmt.Fprintf(&b, "tags: #%s\n", strings.Join(d.Tags, " #"))
	}
	if d.Reminders > 0 {
		fmt.Fprintf(&b, "reminders: %d\n", d.Reminders)
	}
	if len(d.Conflicts) > 0 {
		for _, line := range d.Conflicts {
			b.WriteString(warnStyle.Render(line) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func RenderSlotsPanel(data SlotsPanelData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "free slots: %s, %d min, %s priority\n", data.Date, data.Minutes, data.Priority)
	if data.Best != "" {
		fmt.Fprintf(&b, "best time today: %s\n", data.Best)
	}
	if len(data.Rows) == 0 {
		b.WriteString(mutedStyle.Render("no free slot in the working window"))
		return b.String()
	}
	for _, r := range data.Rows {
		fmt.Fprintf(&b, "  %s-%s  score %3d\n", r.Start, r.End, r.Score)
	}
	return strings.TrimRight(b.String(), "\n")
}

func RenderConflictsPanel(data ConflictsPanelData) string {
	var b strings.Builder
	if data.EventTitle == "" {
		b.WriteString("conflicts:\n")
		b.WriteString(mutedStyle.Render("select an event on the day view and press c"))
		return b.String()
	}
	fmt.Fprintf(&b, "conflicts for %s:\n", data.EventTitle)
	if len(data.Lines) == 0 {
		b.WriteString(statusStyle.Render("no conflicts") + "\n")
	}
	for _, line := range data.Lines {
		b.WriteString(warnStyle.Render("- "+line) + "\n")
	}
	if len(data.Suggestions) > 0 {
		b.WriteString("\nsuggestions: [a]apply first\n")
	}
	for _, s := range data.Suggestions {
		fmt.Fprintf(&b, "%s  %s (%s, %.0f%%)\n", s.ID, s.When, s.Strategy, s.Confidence*100)
		b.WriteString(mutedStyle.Render("  "+s.Reason) + "\n")
		for i, alt := range s.Alternatives {
			fmt.Fprintf(&b, "  alt %d: %s\n", i+1, alt)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func RenderInsightsPanel(data InsightsPanelData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "insights: %s", data.Period)
	if data.Range != "" {
		fmt.Fprintf(&b, " (%s)", data.Range)
	}
	b.WriteString("\nactions: [d/w/m]period [g]generate [j/k]scroll\n")
	if !data.Generated {
		b.WriteString(mutedStyle.Render("no report yet"))
		return b.String()
	}
	b.WriteString(data.ViewportView)
	return b.String()
}

func RenderHelpPanel(data HelpPanelData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "help (%s)\n", data.CurrentView)
	for _, line := range data.Bindings {
		b.WriteString(line + "\n")
	}
	if data.HelpView != "" {
		b.WriteString(data.HelpView)
	}
	return strings.TrimRight(b.String(), "\n")
}

func RenderReminderLog(items []ReminderData) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("reminders:\n")
	for _, r := range items {
		fmt.Fprintf(&b, "  %s  %s via %s\n", r.At, r.Title, r.Channel)
	}
	return strings.TrimRight(b.String(), "\n")
}
