package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/slotd/internal/commands"
	"github.com/sandeepkv93/slotd/internal/model"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.Quitting = true
		return m, tea.Quit
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand(), nil
	}
	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	m.Palette.Input = m.commandInput.Value()
	return m, cmd
}

func (m *Model) closePalette() {
	m.Palette = CommandPaletteState{}
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.fail(err)
		return m
	}

	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			msg, err := m.addEvent(a)
			return commands.Result{Message: msg}, err
		},
		Slots: func(s commands.SlotsArgs) (commands.Result, error) {
			day, err := commands.ResolveDate(s.Date, m.svc.Now(), m.svc.Location())
			if err != nil {
				return commands.Result{}, err
			}
			m.Slots.Date, m.Slots.Minutes = day, s.Minutes
			m.CurrentView = ViewSlots
			m.refreshSlots()
			return commands.Result{Message: fmt.Sprintf("%d free slot(s) on %s", len(m.Slots.Ranked), day.Format("Mon Jan 2"))}, nil
		},
		Best: func(b commands.BestArgs) (commands.Result, error) {
			at, ok, err := m.svc.SuggestBestTime(b.Minutes, b.Priority)
			if err != nil {
				return commands.Result{}, err
			}
			if !ok {
				return commands.Result{Message: "no free slot left today"}, nil
			}
			return commands.Result{Message: fmt.Sprintf("best time for %d min: %s", b.Minutes, m.clock(at))}, nil
		},
		Conflicts: func(t commands.TargetArgs) (commands.Result, error) {
			id, err := m.resolveTarget(t.Target)
			if err != nil {
				return commands.Result{}, err
			}
			m.showConflicts(id)
			m.CurrentView = ViewConflicts
			if len(m.Conflicts.Lines) == 0 {
				return commands.Result{Message: "no conflicts"}, nil
			}
			return commands.Result{Message: oneLine(m.Conflicts.Lines)}, nil
		},
		Analyze: func(a commands.AnalyzeArgs) (commands.Result, error) {
			msg, err := m.analyze(a.Period)
			m.CurrentView = ViewInsights
			return commands.Result{Message: msg}, err
		},
		Reschedule: func(t commands.TargetArgs) (commands.Result, error) {
			id, err := m.resolveTarget(t.Target)
			if err != nil {
				return commands.Result{}, err
			}
			out, err := m.suggest(id)
			if err != nil {
				return commands.Result{}, err
			}
			m.CurrentView = ViewConflicts
			return commands.Result{Message: fmt.Sprintf("suggested %s", m.when(out[0].SuggestedTime.Start))}, nil
		},
		Apply: func(a commands.ApplyArgs) (commands.Result, error) {
			msg, err := m.applySuggestion(a.Target, a.Choice)
			return commands.Result{Message: msg}, err
		},
		Delete: func(t commands.TargetArgs) (commands.Result, error) {
			id, err := m.resolveTarget(t.Target)
			if err != nil {
				return commands.Result{}, err
			}
			msg, err := m.deleteEvent(id)
			return commands.Result{Message: msg}, err
		},
		Show: func(s commands.ShowArgs) (commands.Result, error) {
			day, err := commands.ResolveDate(s.Date, m.svc.Now(), m.svc.Location())
			if err != nil {
				return commands.Result{}, err
			}
			m.FocusDate = model.StartOfDay(day, m.svc.Location())
			m.CurrentView = ViewDay
			m.refreshDay()
			return commands.Result{Message: fmt.Sprintf("showing %s", day.Format("Mon Jan 2"))}, nil
		},
	})
	if err != nil {
		m.fail(err)
		return m
	}
	m.Status = StatusBar{Text: res.Message}
	return m
}
