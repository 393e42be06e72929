package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/slotd/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

// renderHelpView lists the view's own keys as text and every key, global
// column first, through the bubbles help component.
func (m Model) renderHelpView() string {
	global := toKeyBindings(m.globalBindings())
	local := toKeyBindings(m.viewBindings())
	lines := make([]string, 0, len(local))
	for _, kb := range m.viewBindings() {
		lines = append(lines, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    lines,
		HelpView: m.helpModel.View(helpKeyMap{
			short: append(local, global...),
			full:  [][]key.Binding{global, local},
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Day, Action: "day agenda"},
		{Key: m.Keys.Slots, Action: "free slots"},
		{Key: m.Keys.Conflicts, Action: "conflicts"},
		{Key: m.Keys.Insights, Action: "insights"},
		{Key: "/", Action: "command palette"},
		{Key: "S", Action: "sync integrations"},
		{Key: m.Keys.Help, Action: "toggle help"},
		{Key: m.Keys.Quit, Action: "quit"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	switch m.CurrentView {
	case ViewDay:
		return []KeyBinding{
			{Key: "j/k", Action: "move selection"},
			{Key: "h/l", Action: "previous/next day"},
			{Key: "t", Action: "jump to today"},
			{Key: "c", Action: "conflicts of selected"},
			{Key: "r", Action: "suggest a reschedule"},
			{Key: "x", Action: "delete selected"},
		}
	case ViewSlots:
		return []KeyBinding{
			{Key: "h/l", Action: "previous/next day"},
			{Key: "+/-", Action: "longer/shorter by 15 min"},
			{Key: "p", Action: "cycle priority"},
		}
	case ViewConflicts:
		return []KeyBinding{
			{Key: "r", Action: "suggest again"},
			{Key: "a", Action: "apply first suggestion"},
		}
	case ViewInsights:
		return []KeyBinding{
			{Key: "d/w/m", Action: "day/week/month report"},
			{Key: "g", Action: "regenerate"},
			{Key: "j/k", Action: "scroll"},
		}
	default:
		return []KeyBinding{{Key: "-", Action: "no contextual bindings"}}
	}
}

func toKeyBindings(list []KeyBinding) []key.Binding {
	out := make([]key.Binding, 0, len(list))
	for _, kb := range list {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
