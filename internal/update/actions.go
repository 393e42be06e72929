package update

import (
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/slotd/internal/commands"
	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/productivity"
	"github.com/sandeepkv93/slotd/internal/reschedule"
	"github.com/sandeepkv93/slotd/internal/views"
)

var errNoSelection = errors.New("no event selected")

func (m *Model) resolveTarget(target string) (string, error) {
	if target == commands.TargetSelected {
		if m.SelectedEventID == "" {
			return "", errNoSelection
		}
		return m.SelectedEventID, nil
	}
	return target, nil
}

func (m *Model) addEvent(a commands.AddArgs) (string, error) {
	start, err := commands.ResolveWhen(a.When, m.svc.Now(), m.svc.Location())
	if err != nil {
		return "", err
	}
	created, err := m.svc.AddEvent(m.ctx, model.Draft{
		Title:     a.Title,
		StartTime: start,
		EndTime:   start.Add(time.Duration(a.Minutes) * time.Minute),
		Type:      a.Type,
		Priority:  a.Priority,
		Tags:      a.Tags,
	})
	if err != nil {
		return "", err
	}
	m.FocusDate = model.StartOfDay(created.StartTime, m.svc.Location())
	m.SelectedEventID = created.ID
	m.CurrentView = ViewDay
	m.refreshDay()
	m.rearmReminders()

	msg := fmt.Sprintf("added %s at %s", created.Title, m.when(created.StartTime))
	if lines, _ := m.svc.AnalyzeConflicts(created.ID); len(lines) > 0 {
		msg += " (" + oneLine(lines) + ")"
	}
	return msg, nil
}

func (m *Model) deleteEvent(id string) (string, error) {
	removed, err := m.svc.DeleteEvent(m.ctx, id)
	if err != nil {
		return "", err
	}
	if m.scheduler != nil {
		m.scheduler.Cancel(id)
	}
	if m.Conflicts.EventID == id {
		m.Conflicts = ConflictsState{}
	}
	m.refreshDay()
	return fmt.Sprintf("deleted %s", removed.Title), nil
}

func (m *Model) suggest(id string) ([]reschedule.Suggestion, error) {
	out, err := m.svc.GenerateRescheduleSuggestions(id)
	if err != nil {
		return nil, err
	}
	m.showConflicts(id)
	return out, nil
}

// applySuggestion applies suggestion target, where "first" picks the oldest
// pending suggestion of the event on the conflicts view.
func (m *Model) applySuggestion(target string, choice int) (string, error) {
	if target == "first" {
		pending := m.svc.PendingSuggestions(m.Conflicts.EventID)
		if len(pending) == 0 {
			return "", errors.New("no pending suggestion")
		}
		target = pending[0].ID
	}
	moved, err := m.svc.ApplyRescheduleChoice(m.ctx, target, choice)
	if err != nil {
		return "", err
	}
	m.FocusDate = model.StartOfDay(moved.StartTime, m.svc.Location())
	m.SelectedEventID = moved.ID
	m.refreshDay()
	m.rearmReminders()
	m.showConflicts(moved.ID)
	return fmt.Sprintf("moved %s to %s", moved.Title, m.when(moved.StartTime)), nil
}

func (m *Model) analyze(period productivity.Period) (string, error) {
	a, err := m.svc.AnalyzePeriod(m.ctx, period, m.FocusDate)
	if err != nil {
		return "", err
	}
	m.Insights.Period = period
	m.Insights.Analysis = &a
	m.insightsViewport.SetContent(views.RenderMarkdown(a.Markdown(m.svc.Location()), m.insightsViewport.Width))
	m.insightsViewport.GotoTop()
	return fmt.Sprintf("%s report: %d events, %d conflicted", period, a.TotalEvents, a.ConflictCount), nil
}
