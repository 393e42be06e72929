package productivity

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/slotd/internal/conflict"
	"github.com/sandeepkv93/slotd/internal/model"
)

var (
	ErrInvalidRange  = errors.New("productivity: end date before start date")
	ErrInvalidPeriod = errors.New("productivity: invalid period")
)

type Source interface {
	Snapshot() []model.Event
	Location() *time.Location
}

// RescheduleLog reports how many reschedules were applied in [start, end].
type RescheduleLog interface {
	AppliedBetween(start, end time.Time) int
}

type Analysis struct {
	ID                          string                  `json:"id"`
	Period                      Period                  `json:"period"`
	StartDate                   time.Time               `json:"start_date"`
	EndDate                     time.Time               `json:"end_date"`
	TotalEvents                 int                     `json:"total_events"`
	TotalDurationMinutes        int                     `json:"total_duration_minutes"`
	AverageEventDurationMinutes float64                 `json:"average_event_duration_minutes"`
	TypeDistribution            map[model.EventType]int `json:"type_distribution"`
	PriorityDistribution        map[model.Priority]int  `json:"priority_distribution"`
	ConflictCount               int                     `json:"conflict_count"`
	RescheduleCount             int                     `json:"reschedule_count"`
	MostProductiveDay           string                  `json:"most_productive_day"`
	MostProductiveHour          int                     `json:"most_productive_hour"`
	GeneratedAt                 time.Time               `json:"generated_at"`
}

type Option func(*Aggregator)

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

func WithIDGenerator(next func() string) Option {
	return func(a *Aggregator) {
		if next != nil {
			a.newID = next
		}
	}
}

type Aggregator struct {
	src   Source
	log   RescheduleLog
	now   func() time.Time
	newID func() string

	mu      sync.Mutex
	history []Analysis
}

// NewAggregator builds an aggregator. log may be nil, in which case the
// reschedule count is always zero.
func NewAggregator(src Source, log RescheduleLog, opts ...Option) *Aggregator {
	a := &Aggregator{src: src, log: log, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze reports on events starting in [start, end] and appends the
// report to the history.
func (a *Aggregator) Analyze(period Period, start, end time.Time) (Analysis, error) {
	if !period.IsValid() {
		return Analysis{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	if end.Before(start) {
		return Analysis{}, fmt.Errorf("%w: %s < %s", ErrInvalidRange, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	loc := a.src.Location()
	all := a.src.Snapshot()
	window := make([]model.Event, 0, len(all))
	for _, e := range all {
		if !e.StartTime.Before(start) && !e.StartTime.After(end) {
			window = append(window, e)
		}
	}

	out := Analysis{
		ID:                   a.newID(),
		Period:               period,
		StartDate:            start,
		EndDate:              end,
		TotalEvents:          len(window),
		TypeDistribution:     make(map[model.EventType]int, 4),
		PriorityDistribution: make(map[model.Priority]int, 4),
		MostProductiveHour:   -1,
		GeneratedAt:          a.now(),
	}
	for _, t := range model.EventTypes() {
		out.TypeDistribution[t] = 0
	}
	for _, p := range model.Priorities() {
		out.PriorityDistribution[p] = 0
	}

	var total time.Duration
	timed := 0
	var dayCount [7]int
	var hourCount [24]int
	var dayMinutes [7]time.Duration
	for _, e := range window {
		out.TypeDistribution[e.Type]++
		out.PriorityDistribution[e.Priority]++
		local := e.StartTime.In(loc)
		dayCount[local.Weekday()]++
		if e.AllDay {
			continue
		}
		timed++
		total += e.Duration()
		dayMinutes[local.Weekday()] += e.Duration()
		hourCount[local.Hour()]++
	}
	out.TotalDurationMinutes = int(total / time.Minute)
	if timed > 0 {
		out.AverageEventDurationMinutes = total.Minutes() / float64(timed)
	}
	out.MostProductiveDay = busiestDay(dayCount, dayMinutes)
	out.MostProductiveHour = busiestHour(hourCount)
	out.ConflictCount = conflict.CountConflicted(window, all, loc)
	if a.log != nil {
		out.RescheduleCount = a.log.AppliedBetween(start, end)
	}

	a.Record(out)
	return out, nil
}

// Record appends a report produced elsewhere, such as one loaded from storage.
func (a *Aggregator) Record(in Analysis) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = append(a.history, in)
}

// History returns reports oldest first.
func (a *Aggregator) History() []Analysis {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Analysis(nil), a.history...)
}

var mondayFirst = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

func busiestDay(counts [7]int, minutes [7]time.Duration) string {
	best := time.Weekday(-1)
	for _, wd := range mondayFirst {
		if counts[wd] == 0 {
			continue
		}
		if best < 0 || counts[wd] > counts[best] ||
			(counts[wd] == counts[best] && minutes[wd] > minutes[best]) {
			best = wd
		}
	}
	if best < 0 {
		return ""
	}
	return best.String()
}

func busiestHour(counts [24]int) int {
	best := -1
	for h, n := range counts {
		if n > 0 && (best < 0 || n > counts[best]) {
			best = h
		}
	}
	return best
}
