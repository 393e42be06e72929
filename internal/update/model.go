package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/rs/zerolog"

	"github.com/sandeepkv93/slotd/internal/logging"
	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/planner"
	"github.com/sandeepkv93/slotd/internal/productivity"
	"github.com/sandeepkv93/slotd/internal/reschedule"
	"github.com/sandeepkv93/slotd/internal/scheduler"
	"github.com/sandeepkv93/slotd/internal/scoring"
)

type View string

const (
	ViewDay       View = "Day"
	ViewSlots     View = "Slots"
	ViewConflicts View = "Conflicts"
	ViewInsights  View = "Insights"
)

var allViews = []View{ViewDay, ViewSlots, ViewConflicts, ViewInsights}

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Day       string
	Slots     string
	Conflicts string
	Insights  string
	Help      string
	Quit      string
}

type SlotsState struct {
	Date     time.Time
	Minutes  int
	Priority model.Priority
	Ranked   []scoring.Ranked
	Best     time.Time
	HasBest  bool
}

type ConflictsState struct {
	EventID     string
	EventTitle  string
	Lines       []string
	Suggestions []reschedule.Suggestion
}

type InsightsState struct {
	Period   productivity.Period
	Analysis *productivity.Analysis
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

const maxReminderLog = 5

type Model struct {
	CurrentView     View
	FocusDate       time.Time
	SelectedEventID string
	Slots           SlotsState
	Conflicts       ConflictsState
	Insights        InsightsState
	Palette         CommandPaletteState
	HelpVisible     bool
	ReminderLog     []scheduler.ReminderEvent
	Status          StatusBar
	Keys            GlobalKeyMap
	Quitting        bool
	LastError       error

	svc       *planner.Service
	scheduler *scheduler.Engine
	ctx       context.Context
	log       *zerolog.Logger
	dayEvents []model.Event

	dayTable         table.Model
	commandInput     textinput.Model
	insightsViewport viewport.Model
	syncSpinner      spinner.Model
	helpModel        help.Model
	syncing          bool
}

type Options struct {
	// Context bounds store and integration calls made from the UI.
	Context   context.Context
	Scheduler *scheduler.Engine
	Logger    *zerolog.Logger
}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type ReminderDueMsg struct {
	Event scheduler.ReminderEvent
}

// SyncDoneMsg reports the outcome of syncing every registered integration.
type SyncDoneMsg struct {
	Pushed   int
	Imported int
	Err      error
}

func NewModel(svc *planner.Service, opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	today := model.StartOfDay(svc.Now(), svc.Location())
	m := Model{
		CurrentView: ViewDay,
		FocusDate:   today,
		Slots: SlotsState{
			Date:     today,
			Minutes:  60,
			Priority: model.PriorityMedium,
		},
		Insights: InsightsState{Period: productivity.PeriodWeek},
		Keys: GlobalKeyMap{
			Day:       "1",
			Slots:     "2",
			Conflicts: "3",
			Insights:  "4",
			Help:      "?",
			Quit:      "q",
		},
		svc:       svc,
		scheduler: opts.Scheduler,
		ctx:       ctx,
		log:       logging.Component(opts.Logger, "tui"),
	}
	m.initBubbleComponents()
	m.refreshDay()
	m.refreshSlots()
	m.rearmReminders()
	return m
}

func isKnownView(v View) bool {
	for _, known := range allViews {
		if v == known {
			return true
		}
	}
	return false
}
