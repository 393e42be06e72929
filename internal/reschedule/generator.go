package reschedule

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/slotd/internal/conflict"
	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/scoring"
)

var (
	ErrSuggestionNotFound = errors.New("reschedule: suggestion not found")
	ErrStaleSuggestion    = errors.New("reschedule: suggested slot is no longer free")
)

type Strategy string

const (
	// StrategySearch picks a real free slot from the slot finder.
	StrategySearch Strategy = "search"
	// StrategyShift moves the event by a fixed offset.
	StrategyShift Strategy = "shift"
)

const (
	defaultSearchDays      = 7
	defaultMaxAlternatives = 2

	shiftConfidence            = 0.85
	shiftAlternativeConfidence = 0.7
	dayPenalty                 = 0.05
)

type Repository interface {
	Get(id string) (model.Event, error)
	Update(id string, patch model.Patch) (model.Event, error)
	Snapshot() []model.Event
	Location() *time.Location
}

type SlotFinder interface {
	FindAvailableExcluding(date time.Time, durationMinutes int, excludeID string) ([]model.TimeSlot, error)
}

type SlotRanker interface {
	Rank(slots []model.TimeSlot, priority model.Priority) []scoring.Ranked
}

type Alternative struct {
	Time       model.TimeSlot `json:"time"`
	Reason     string         `json:"reason"`
	Confidence float64        `json:"confidence"`
}

type Suggestion struct {
	ID            string         `json:"id"`
	EventID       string         `json:"event_id"`
	EventTitle    string         `json:"event_title"`
	OriginalTime  model.TimeSlot `json:"original_time"`
	SuggestedTime model.TimeSlot `json:"suggested_time"`
	Reason        string         `json:"reason"`
	Confidence    float64        `json:"confidence"`
	Strategy      Strategy       `json:"strategy"`
	Alternatives  []Alternative  `json:"alternatives"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Applied records one reschedule that reached the repository.
type Applied struct {
	SuggestionID string         `json:"suggestion_id"`
	EventID      string         `json:"event_id"`
	From         model.TimeSlot `json:"from"`
	To           model.TimeSlot `json:"to"`
	AppliedAt    time.Time      `json:"applied_at"`
}

type Config struct {
	SearchDays      int
	MaxAlternatives int
	Now             func() time.Time
	NewID           func() string
}

func (c Config) withDefaults() Config {
	if c.SearchDays <= 0 {
		c.SearchDays = defaultSearchDays
	}
	if c.MaxAlternatives < 0 {
		c.MaxAlternatives = 0
	} else if c.MaxAlternatives == 0 {
		c.MaxAlternatives = defaultMaxAlternatives
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.NewID == nil {
		c.NewID = uuid.NewString
	}
	return c
}

type Generator struct {
	repo   Repository
	finder SlotFinder
	ranker SlotRanker
	cfg    Config

	mu      sync.Mutex
	pending map[string]Suggestion
	applied []Applied
}

func NewGenerator(repo Repository, finder SlotFinder, ranker SlotRanker, cfg Config) *Generator {
	return &Generator{
		repo:    repo,
		finder:  finder,
		ranker:  ranker,
		cfg:     cfg.withDefaults(),
		pending: make(map[string]Suggestion),
	}
}

type candidate struct {
	ranked scoring.Ranked
	offset int
}

// Suggest builds a reschedule suggestion for eventID and keeps it pending
// until it is applied or discarded.
func (g *Generator) Suggest(eventID string) ([]Suggestion, error) {
	ev, err := g.repo.Get(eventID)
	if err != nil {
		return nil, err
	}

	var s Suggestion
	if ev.AllDay {
		s = g.shift(ev, 24*time.Hour, 48*time.Hour)
	} else {
		cands, err := g.search(ev)
		if err != nil {
			return nil, err
		}
		if len(cands) == 0 {
			s = g.shift(ev, 2*time.Hour, time.Hour)
		} else {
			s = g.fromCandidates(ev, cands)
		}
	}

	g.mu.Lock()
	g.pending[s.ID] = s
	g.mu.Unlock()
	return []Suggestion{s}, nil
}

func (g *Generator) search(ev model.Event) ([]candidate, error) {
	loc := g.repo.Location()
	now := g.cfg.Now()
	length := ev.Duration()
	minutes := int(math.Ceil(length.Minutes()))
	first := model.StartOfDay(ev.StartTime, loc)

	var out []candidate
	for off := 0; off < g.cfg.SearchDays; off++ {
		found, err := g.finder.FindAvailableExcluding(first.AddDate(0, 0, off), minutes, ev.ID)
		if err != nil {
			return nil, err
		}
		usable := make([]model.TimeSlot, 0, len(found))
		for _, slot := range found {
			if slot.Start.Before(now) || slot.Start.Equal(ev.StartTime) {
				continue
			}
			usable = append(usable, model.NewSlot(slot.Start, length))
		}
		for _, r := range g.ranker.Rank(usable, ev.Priority) {
			out = append(out, candidate{ranked: r, offset: off})
		}
	}
	return out, nil
}

func (g *Generator) fromCandidates(ev model.Event, cands []candidate) Suggestion {
	loc := g.repo.Location()
	primary := cands[0]
	s := Suggestion{
		ID:            g.cfg.NewID(),
		EventID:       ev.ID,
		EventTitle:    ev.Title,
		OriginalTime:  ev.Interval(),
		SuggestedTime: primary.ranked.Slot,
		Reason:        describe(primary, loc),
		Confidence:    confidence(primary),
		Strategy:      StrategySearch,
		Alternatives:  []Alternative{},
		CreatedAt:     g.cfg.Now(),
	}
	for _, c := range cands[1:] {
		if len(s.Alternatives) == g.cfg.MaxAlternatives {
			break
		}
		s.Alternatives = append(s.Alternatives, Alternative{
			Time:       c.ranked.Slot,
			Reason:     describe(c, loc),
			Confidence: confidence(c),
		})
	}
	return s
}

func (g *Generator) shift(ev model.Event, primary, alternative time.Duration) Suggestion {
	orig := ev.Interval()
	s := Suggestion{
		ID:            g.cfg.NewID(),
		EventID:       ev.ID,
		EventTitle:    ev.Title,
		OriginalTime:  orig,
		SuggestedTime: orig.Shift(primary),
		Reason:        "No free slot found nearby; moving later to avoid the conflict",
		Confidence:    shiftConfidence,
		Strategy:      StrategyShift,
		Alternatives:  []Alternative{},
		CreatedAt:     g.cfg.Now(),
	}
	if g.cfg.MaxAlternatives > 0 {
		s.Alternatives = append(s.Alternatives, Alternative{
			Time:       orig.Shift(alternative),
			Reason:     fmt.Sprintf("Alternatively move %s later", humanShift(alternative)),
			Confidence: shiftAlternativeConfidence,
		})
	}
	if ev.AllDay {
		s.Reason = "All-day event; moving to the next day"
	}
	return s
}

func confidence(c candidate) float64 {
	v := 0.5 + 0.5*float64(c.ranked.Score)/scoring.MaxScore - dayPenalty*float64(c.offset)
	return math.Round(math.Max(0, math.Min(1, v))*100) / 100
}

func describe(c candidate, loc *time.Location) string {
	start := c.ranked.Slot.Start.In(loc)
	when := "same day"
	switch c.offset {
	case 0:
	case 1:
		when = "next day"
	default:
		when = fmt.Sprintf("%d days later", c.offset)
	}
	return fmt.Sprintf("Free %s slot at %s (%s, score %d)", partOfDay(start), start.Format("Mon Jan 2 15:04"), when, c.ranked.Score)
}

func partOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "morning"
	case h < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

func humanShift(d time.Duration) string {
	if d%(24*time.Hour) == 0 {
		n := int(d / (24 * time.Hour))
		if n == 1 {
			return "one day"
		}
		return fmt.Sprintf("%d days", n)
	}
	if d == time.Hour {
		return "one hour"
	}
	return d.String()
}

// Pending lists unapplied suggestions for eventID, or all of them when
// eventID is empty. Order is by creation time.
func (g *Generator) Pending(eventID string) []Suggestion {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Suggestion, 0, len(g.pending))
	for _, s := range g.pending {
		if eventID == "" || s.EventID == eventID {
			out = append(out, s)
		}
	}
	sortByCreated(out)
	return out
}

// Resolve validates that suggestion id can still be applied and returns the
// patch that applies it. choice 0 is the primary time, 1.. the alternatives.
func (g *Generator) Resolve(id string, choice int) (Suggestion, model.Patch, error) {
	g.mu.Lock()
	s, ok := g.pending[id]
	g.mu.Unlock()
	if !ok {
		return Suggestion{}, model.Patch{}, fmt.Errorf("%w: %q", ErrSuggestionNotFound, id)
	}
	target, err := s.choice(choice)
	if err != nil {
		return Suggestion{}, model.Patch{}, err
	}
	if _, err := g.repo.Get(s.EventID); err != nil {
		return Suggestion{}, model.Patch{}, err
	}
	if s.Strategy == StrategySearch && !conflict.FreeOf(target, g.repo.Snapshot(), s.EventID) {
		return Suggestion{}, model.Patch{}, fmt.Errorf("%w: %s", ErrStaleSuggestion, target.Start.Format(time.RFC3339))
	}
	return s, model.Reschedule(target), nil
}

// MarkApplied records a completed reschedule and drops every pending
// suggestion of the same event.
func (g *Generator) MarkApplied(s Suggestion, updated model.Event) Applied {
	rec := Applied{
		SuggestionID: s.ID,
		EventID:      s.EventID,
		From:         s.OriginalTime,
		To:           updated.Interval(),
		AppliedAt:    g.cfg.Now(),
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for pid, p := range g.pending {
		if p.EventID == s.EventID {
			delete(g.pending, pid)
		}
	}
	g.applied = append(g.applied, rec)
	return rec
}

// Apply moves the event onto the suggestion's primary time.
func (g *Generator) Apply(id string) (model.Event, error) {
	return g.ApplyChoice(id, 0)
}

func (g *Generator) ApplyChoice(id string, choice int) (model.Event, error) {
	s, patch, err := g.Resolve(id, choice)
	if err != nil {
		return model.Event{}, err
	}
	updated, err := g.repo.Update(s.EventID, patch)
	if err != nil {
		return model.Event{}, err
	}
	g.MarkApplied(s, updated)
	return updated, nil
}

func (g *Generator) Discard(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.pending[id]; !ok {
		return fmt.Errorf("%w: %q", ErrSuggestionNotFound, id)
	}
	delete(g.pending, id)
	return nil
}

// RecordApplied restores an application loaded from storage.
func (g *Generator) RecordApplied(rec Applied) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.applied = append(g.applied, rec)
}

func (g *Generator) AppliedLog() []Applied {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Applied(nil), g.applied...)
}

// AppliedBetween counts applications in [start, end].
func (g *Generator) AppliedBetween(start, end time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, rec := range g.applied {
		if !rec.AppliedAt.Before(start) && !rec.AppliedAt.After(end) {
			n++
		}
	}
	return n
}

func (s Suggestion) choice(i int) (model.TimeSlot, error) {
	switch {
	case i == 0:
		return s.SuggestedTime, nil
	case i > 0 && i <= len(s.Alternatives):
		return s.Alternatives[i-1].Time, nil
	default:
		return model.TimeSlot{}, fmt.Errorf("reschedule: suggestion %q has no choice %d", s.ID, i)
	}
}

func sortByCreated(list []Suggestion) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
