package update

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/productivity"
	"github.com/sandeepkv93/slotd/internal/scheduler"
	"github.com/sandeepkv93/slotd/internal/views"
)

func (m Model) Init() tea.Cmd {
	if m.scheduler != nil {
		return waitForReminderCmd(m.scheduler.C())
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			return m.handlePaletteKey(typed)
		}
		return m.handleKey(typed)
	case tea.WindowSizeMsg:
		m.insightsViewport.Width = min(typed.Width-4, 100)
		m.insightsViewport.Height = max(typed.Height-12, 8)
		return m, nil
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.fail(typed.Err)
		return m, nil
	case ReminderDueMsg:
		m.ReminderLog = append(m.ReminderLog, typed.Event)
		if len(m.ReminderLog) > maxReminderLog {
			m.ReminderLog = m.ReminderLog[len(m.ReminderLog)-maxReminderLog:]
		}
		m.Status = StatusBar{Text: fmt.Sprintf("reminder: %s at %s", typed.Event.Title, m.clock(typed.Event.TriggerAt))}
		m.log.Info().Str("event_id", typed.Event.EventID).Str("channel", string(typed.Event.Channel)).Msg("reminder due")
		if m.scheduler == nil {
			return m, nil
		}
		return m, waitForReminderCmd(m.scheduler.C())
	case SyncDoneMsg:
		m.syncing = false
		if typed.Err != nil {
			m.fail(typed.Err)
			return m, nil
		}
		m.refreshDay()
		m.rearmReminders()
		m.Status = StatusBar{Text: fmt.Sprintf("sync complete: pushed %d, imported %d", typed.Pushed, typed.Imported)}
		return m, nil
	case spinner.TickMsg:
		if !m.syncing {
			return m, nil
		}
		var cmd tea.Cmd
		m.syncSpinner, cmd = m.syncSpinner.Update(typed)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	case "/":
		m.Palette = CommandPaletteState{Active: true}
		m.commandInput.SetValue("")
		m.Status = StatusBar{Text: "command palette active"}
		cmd := m.commandInput.Focus()
		return m, cmd
	case m.Keys.Day:
		m.CurrentView = ViewDay
		return m, nil
	case m.Keys.Slots:
		m.CurrentView = ViewSlots
		m.refreshSlots()
		return m, nil
	case m.Keys.Conflicts:
		m.CurrentView = ViewConflicts
		return m, nil
	case m.Keys.Insights:
		m.CurrentView = ViewInsights
		return m, nil
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case "S":
		return m.startSync()
	}

	switch m.CurrentView {
	case ViewDay:
		return m.handleDayKey(msg)
	case ViewSlots:
		return m.handleSlotsKey(msg), nil
	case ViewConflicts:
		return m.handleConflictsKey(msg), nil
	case ViewInsights:
		return m.handleInsightsKey(msg)
	}
	return m, nil
}

func (m Model) handleDayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "h", "left":
		m.FocusDate = m.FocusDate.AddDate(0, 0, -1)
		m.refreshDay()
		return m, nil
	case "l", "right":
		m.FocusDate = m.FocusDate.AddDate(0, 0, 1)
		m.refreshDay()
		return m, nil
	case "t":
		m.FocusDate = model.StartOfDay(m.svc.Now(), m.svc.Location())
		m.refreshDay()
		return m, nil
	case "c":
		if id := m.selectedID(); id != "" {
			m.showConflicts(id)
			m.CurrentView = ViewConflicts
		}
		return m, nil
	case "r":
		if id := m.selectedID(); id != "" {
			if _, err := m.suggest(id); err != nil {
				m.fail(err)
			}
			m.CurrentView = ViewConflicts
		}
		return m, nil
	case "x":
		if id := m.selectedID(); id != "" {
			if res, err := m.deleteEvent(id); err != nil {
				m.fail(err)
			} else {
				m.Status = StatusBar{Text: res}
			}
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.dayTable, cmd = m.dayTable.Update(msg)
	m.syncSelection()
	return m, cmd
}

func (m Model) handleSlotsKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "h", "left":
		m.Slots.Date = m.Slots.Date.AddDate(0, 0, -1)
	case "l", "right":
		m.Slots.Date = m.Slots.Date.AddDate(0, 0, 1)
	case "+":
		m.Slots.Minutes += 15
	case "-":
		if m.Slots.Minutes > 15 {
			m.Slots.Minutes -= 15
		}
	case "p":
		m.Slots.Priority = nextPriority(m.Slots.Priority)
	default:
		return m
	}
	m.refreshSlots()
	return m
}

func (m Model) handleConflictsKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "r":
		if m.Conflicts.EventID != "" {
			if _, err := m.suggest(m.Conflicts.EventID); err != nil {
				m.fail(err)
			}
		}
	case "a":
		if res, err := m.applySuggestion("first", 0); err != nil {
			m.fail(err)
		} else {
			m.Status = StatusBar{Text: res}
		}
	}
	return m
}

func (m Model) handleInsightsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "d":
		m.Insights.Period = productivity.PeriodDay
	case "w":
		m.Insights.Period = productivity.PeriodWeek
	case "m":
		m.Insights.Period = productivity.PeriodMonth
	case "g":
	default:
		var cmd tea.Cmd
		m.insightsViewport, cmd = m.insightsViewport.Update(msg)
		return m, cmd
	}
	if res, err := m.analyze(m.Insights.Period); err != nil {
		m.fail(err)
	} else {
		m.Status = StatusBar{Text: res}
	}
	return m, nil
}

func (m Model) startSync() (tea.Model, tea.Cmd) {
	if m.syncing {
		return m, nil
	}
	names := m.svc.Integrations()
	if len(names) == 0 {
		m.Status = StatusBar{Text: "no integrations registered", IsError: true}
		return m, nil
	}
	m.syncing = true
	m.Status = StatusBar{Text: "sync started"}
	svc, ctx := m.svc, m.ctx
	return m, tea.Batch(m.syncSpinner.Tick, func() tea.Msg {
		out := SyncDoneMsg{}
		for _, name := range names {
			res, imported, err := svc.Sync(ctx, name)
			if err != nil {
				out.Err = err
				return out
			}
			out.Pushed += res.Pushed
			out.Imported += len(imported)
		}
		return out
	})
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}

	var main, side string
	switch m.CurrentView {
	case ViewDay:
		main = views.RenderDayPanel(views.DayPanelData{
			Date:      m.FocusDate.Format("Mon Jan 2 2006"),
			TableView: m.dayTable.View(),
			Count:     len(m.dayEvents),
		})
		side = views.RenderEventDetail(m.selectedDetail())
	case ViewSlots:
		main = m.renderSlotsView()
	case ViewConflicts:
		main = m.renderConflictsView()
	case ViewInsights:
		main = m.renderInsightsView()
	}
	if log := m.renderReminderLog(); log != "" {
		if side != "" {
			side += "\n\n"
		}
		side += log
	}

	status := m.Status.Text
	if m.syncing {
		status = m.syncSpinner.View() + " " + status
	}

	overlay := ""
	switch {
	case m.Palette.Active:
		overlay = m.commandInput.View()
	case m.HelpVisible:
		overlay = m.renderHelpView()
	}

	active := 0
	tabs := make([]string, 0, len(allViews))
	for i, v := range allViews {
		if v == m.CurrentView {
			active = i
		}
		tabs = append(tabs, fmt.Sprintf("%d %s", i+1, v))
	}

	return views.RenderApp(views.AppData{
		Header:        "slotd",
		Tabs:          tabs,
		ActiveTab:     active,
		MainPane:      main,
		SidePane:      side,
		StatusLine:    status,
		StatusIsError: m.Status.IsError,
		Overlay:       overlay,
		Footer:        "[/]command [S]sync [?]help [q]quit",
	})
}

func (m *Model) initBubbleComponents() {
	cols := []table.Column{
		{Title: "Time", Width: 13},
		{Title: "Type", Width: 8},
		{Title: "Prio", Width: 6},
		{Title: "Title", Width: 28},
	}
	m.dayTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(10))

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.Placeholder = "add standup at 09:30 for 15 !high #team"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 56

	m.syncSpinner = spinner.New()
	m.syncSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
	m.insightsViewport = viewport.New(64, 16)
}

// refreshDay reloads the agenda of FocusDate and keeps the selection on the
// same event when it is still there.
func (m *Model) refreshDay() {
	m.dayEvents = m.svc.EventsForDate(m.FocusDate)
	sortByStart(m.dayEvents)
	rows := make([]table.Row, 0, len(m.dayEvents))
	cursor := 0
	for i, e := range m.dayEvents {
		rows = append(rows, table.Row{m.span(e), string(e.Type), string(e.Priority), e.Title})
		if e.ID == m.SelectedEventID {
			cursor = i
		}
	}
	m.dayTable.SetRows(rows)
	if len(rows) > 0 {
		m.dayTable.SetCursor(cursor)
	}
	m.syncSelection()
}

func (m *Model) syncSelection() {
	i := m.dayTable.Cursor()
	if i >= 0 && i < len(m.dayEvents) {
		m.SelectedEventID = m.dayEvents[i].ID
		return
	}
	m.SelectedEventID = ""
}

func (m Model) selectedID() string {
	return m.SelectedEventID
}

func (m Model) selectedDetail() *views.EventDetail {
	if m.SelectedEventID == "" {
		return nil
	}
	e, err := m.svc.GetEvent(m.SelectedEventID)
	if err != nil {
		return nil
	}
	lines, _ := m.svc.AnalyzeConflicts(e.ID)
	return &views.EventDetail{
		ID:        e.ID,
		Title:     e.Title,
		When:      m.span(e),
		Type:      string(e.Type),
		Priority:  string(e.Priority),
		Tags:      e.Tags,
		Location:  e.Location,
		Reminders: len(e.Reminders),
		Conflicts: lines,
	}
}

func (m *Model) refreshSlots() {
	ranked, err := m.svc.RankedSlots(m.Slots.Date, m.Slots.Minutes, m.Slots.Priority)
	if err != nil {
		m.fail(err)
		return
	}
	m.Slots.Ranked = ranked
	m.Slots.Best, m.Slots.HasBest, _ = m.svc.SuggestBestTime(m.Slots.Minutes, m.Slots.Priority)
}

func (m Model) renderSlotsView() string {
	rows := make([]views.SlotRow, 0, len(m.Slots.Ranked))
	for _, r := range m.Slots.Ranked {
		rows = append(rows, views.SlotRow{Start: m.clock(r.Slot.Start), End: m.clock(r.Slot.End), Score: r.Score})
	}
	best := ""
	if m.Slots.HasBest {
		best = m.clock(m.Slots.Best)
	}
	return views.RenderSlotsPanel(views.SlotsPanelData{
		Date:     m.Slots.Date.Format("Mon Jan 2"),
		Minutes:  m.Slots.Minutes,
		Priority: string(m.Slots.Priority),
		Best:     best,
		Rows:     rows,
	}) + "\n[h/l]day [+/-]duration [p]priority"
}

func (m *Model) showConflicts(id string) {
	e, err := m.svc.GetEvent(id)
	if err != nil {
		m.fail(err)
		return
	}
	lines, err := m.svc.AnalyzeConflicts(id)
	if err != nil {
		m.fail(err)
		return
	}
	m.Conflicts = ConflictsState{
		EventID:     id,
		EventTitle:  e.Title,
		Lines:       lines,
		Suggestions: m.svc.PendingSuggestions(id),
	}
}

func (m Model) renderConflictsView() string {
	rows := make([]views.SuggestionRow, 0, len(m.Conflicts.Suggestions))
	for _, s := range m.Conflicts.Suggestions {
		alts := make([]string, 0, len(s.Alternatives))
		for _, a := range s.Alternatives {
			alts = append(alts, fmt.Sprintf("%s (%.0f%%)", m.when(a.Time.Start), a.Confidence*100))
		}
		rows = append(rows, views.SuggestionRow{
			ID:           s.ID,
			When:         m.when(s.SuggestedTime.Start),
			Reason:       s.Reason,
			Confidence:   s.Confidence,
			Strategy:     string(s.Strategy),
			Alternatives: alts,
		})
	}
	return views.RenderConflictsPanel(views.ConflictsPanelData{
		EventTitle:  m.Conflicts.EventTitle,
		Lines:       m.Conflicts.Lines,
		Suggestions: rows,
	})
}

func (m Model) renderInsightsView() string {
	data := views.InsightsPanelData{Period: string(m.Insights.Period)}
	if a := m.Insights.Analysis; a != nil {
		data.Generated = true
		data.Range = a.StartDate.Format("Jan 2") + " - " + a.EndDate.Format("Jan 2")
		data.ViewportView = m.insightsViewport.View()
	}
	return views.RenderInsightsPanel(data)
}

func (m Model) renderReminderLog() string {
	items := make([]views.ReminderData, 0, len(m.ReminderLog))
	for _, ev := range m.ReminderLog {
		items = append(items, views.ReminderData{Title: ev.Title, Channel: string(ev.Channel), At: m.clock(ev.TriggerAt)})
	}
	return views.RenderReminderLog(items)
}

// rearmReminders replaces the engine queue with the current future reminders.
func (m *Model) rearmReminders() {
	if m.scheduler == nil {
		return
	}
	n, err := m.scheduler.Rearm(m.svc.Events())
	if err != nil {
		m.log.Error().Err(err).Msg("rearm reminders")
		return
	}
	m.log.Debug().Int("armed", n).Msg("reminders armed")
}

func (m *Model) fail(err error) {
	m.LastError = err
	m.Status = StatusBar{Text: err.Error(), IsError: true}
	m.log.Error().Err(err).Str("view", string(m.CurrentView)).Msg("ui action failed")
}

func (m Model) clock(t time.Time) string {
	return t.In(m.svc.Location()).Format("15:04")
}

func (m Model) when(t time.Time) string {
	return t.In(m.svc.Location()).Format("Mon Jan 2 15:04")
}

func (m Model) span(e model.Event) string {
	if e.AllDay {
		return "all day"
	}
	return m.clock(e.StartTime) + "-" + m.clock(e.EndTime)
}

func nextPriority(p model.Priority) model.Priority {
	all := model.Priorities()
	for i, v := range all {
		if v == p {
			return all[(i+1)%len(all)]
		}
	}
	return model.PriorityMedium
}

func sortByStart(list []model.Event) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].StartTime.Before(list[j].StartTime) })
}

func waitForReminderCmd(ch <-chan scheduler.ReminderEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return ReminderDueMsg{Event: ev}
	}
}

func oneLine(lines []string) string {
	return strings.Join(lines, "; ")
}
