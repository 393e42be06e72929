package reschedule

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sandeepkv93/slotd/internal/conflict"
	"github.com/sandeepkv93/slotd/internal/events"
	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/scoring"
	"github.com/sandeepkv93/slotd/internal/slots"
)

// 2026-02-10 is a Tuesday.
var tuesday = time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

type fixture struct {
	repo *events.Repository
	gen  *Generator
	now  time.Time
}

func newFixture(t *testing.T, now time.Time, cfg Config) *fixture {
	t.Helper()
	clock := func() time.Time { return now }
	repo := events.NewRepository(events.WithLocation(time.UTC), events.WithClock(clock))
	finder, err := slots.NewFinder(repo, slots.DefaultWindow())
	if err != nil {
		t.Fatalf("new finder failed: %v", err)
	}
	n := 0
	cfg.Now = clock
	cfg.NewID = func() string {
		n++
		return fmt.Sprintf("sug-%d", n)
	}
	return &fixture{
		repo: repo,
		gen:  NewGenerator(repo, finder, scoring.NewScorer(clock, time.UTC), cfg),
		now:  now,
	}
}

func (f *fixture) add(t *testing.T, title string, startHour, startMin int, d time.Duration) model.Event {
	t.Helper()
	start := tuesday.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute)
	e, err := f.repo.Add(model.Draft{Title: title, StartTime: start, EndTime: start.Add(d)})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	return e
}

func TestSuggestSearchesFreeSlots(t *testing.T) {
	f := newFixture(t, tuesday.Add(8*time.Hour), Config{})
	e1 := f.add(t, "E1", 10, 0, time.Hour)
	f.add(t, "E2", 10, 30, time.Hour)

	list, err := f.gen.Suggest(e1.ID)
	if err != nil {
		t.Fatalf("suggest failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one suggestion, got %d", len(list))
	}
	s := list[0]
	if s.Strategy != StrategySearch || s.EventID != e1.ID {
		t.Fatalf("unexpected suggestion: %+v", s)
	}
	if s.SuggestedTime.Start.Format("15:04") != "09:00" || s.SuggestedTime.Duration() != time.Hour {
		t.Fatalf("unexpected primary: %+v", s.SuggestedTime)
	}
	if s.Confidence != 0.75 {
		t.Fatalf("unexpected confidence: %v", s.Confidence)
	}
	if len(s.Alternatives) != 2 {
		t.Fatalf("expected 2 alternatives, got %d", len(s.Alternatives))
	}
	if got := s.Alternatives[0].Time.Start.Format("15:04"); got != "12:00" {
		t.Fatalf("unexpected first alternative: %s", got)
	}
	if got := s.Alternatives[1].Time.Start.Format("15:04"); got != "13:00" || s.Alternatives[1].Confidence != 0.7 {
		t.Fatalf("unexpected second alternative: %s (%v)", got, s.Alternatives[1].Confidence)
	}
	if !s.OriginalTime.Equal(e1.Interval()) {
		t.Fatalf("original time mismatch: %+v", s.OriginalTime)
	}
}

func TestSuggestSkipsPastSlots(t *testing.T) {
	f := newFixture(t, tuesday.Add(13*time.Hour+30*time.Minute), Config{})
	e := f.add(t, "late", 14, 0, time.Hour)
	list, err := f.gen.Suggest(e.ID)
	if err != nil {
		t.Fatalf("suggest failed: %v", err)
	}
	for _, slot := range append([]model.TimeSlot{list[0].SuggestedTime}, list[0].Alternatives[0].Time) {
		if slot.Start.Before(f.now) {
			t.Fatalf("suggested a past slot: %s", slot.Start)
		}
		if slot.Start.Equal(e.StartTime) {
			t.Fatal("suggested the original start")
		}
	}
	if got := list[0].SuggestedTime.Start.Format("15:04"); got != "15:00" {
		t.Fatalf("expected 15:00, got %s", got)
	}
}

func TestSuggestFallsBackToShift(t *testing.T) {
	f := newFixture(t, tuesday.Add(7*time.Hour), Config{SearchDays: 1})
	e := f.add(t, "stuck", 9, 0, time.Hour)
	f.add(t, "block", 9, 0, 9*time.Hour)

	list, err := f.gen.Suggest(e.ID)
	if err != nil {
		t.Fatalf("suggest failed: %v", err)
	}
	s := list[0]
	if s.Strategy != StrategyShift || s.Confidence != 0.85 {
		t.Fatalf("unexpected fallback: %+v", s)
	}
	if !s.SuggestedTime.Equal(e.Interval().Shift(2 * time.Hour)) {
		t.Fatalf("expected +2h shift, got %+v", s.SuggestedTime)
	}
	if len(s.Alternatives) != 1 || !s.Alternatives[0].Time.Equal(e.Interval().Shift(time.Hour)) {
		t.Fatalf("expected one +1h alternative, got %+v", s.Alternatives)
	}
	if s.Reason == "" {
		t.Fatal("expected a rationale")
	}
}

func TestSuggestAllDayShiftsByDays(t *testing.T) {
	f := newFixture(t, tuesday, Config{})
	e, err := f.repo.Add(model.Draft{Title: "offsite", StartTime: tuesday, EndTime: tuesday, AllDay: true})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	list, err := f.gen.Suggest(e.ID)
	if err != nil {
		t.Fatalf("suggest failed: %v", err)
	}
	if got := list[0].SuggestedTime.Start; !got.Equal(tuesday.AddDate(0, 0, 1)) {
		t.Fatalf("expected next day, got %s", got)
	}
}

func TestApplyMovesEventAndClearsPending(t *testing.T) {
	f := newFixture(t, tuesday.Add(8*time.Hour), Config{})
	e1 := f.add(t, "E1", 10, 0, time.Hour)
	f.add(t, "E2", 10, 30, time.Hour)
	first, _ := f.gen.Suggest(e1.ID)
	second, _ := f.gen.Suggest(e1.ID)
	if len(f.gen.Pending(e1.ID)) != 2 {
		t.Fatalf("expected 2 pending suggestions, got %d", len(f.gen.Pending(e1.ID)))
	}

	updated, err := f.gen.Apply(first[0].ID)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if !updated.Interval().Equal(first[0].SuggestedTime) {
		t.Fatalf("event not moved: %+v", updated.Interval())
	}
	conflicts, err := conflict.NewDetector(f.repo).ConflictsOf(e1.ID)
	if err != nil || len(conflicts) != 0 {
		t.Fatalf("expected conflict resolved, got %v err=%v", conflicts, err)
	}
	if len(f.gen.Pending("")) != 0 {
		t.Fatal("expected pending suggestions of the event to be dropped")
	}
	if _, err := f.gen.Apply(second[0].ID); !errors.Is(err, ErrSuggestionNotFound) {
		t.Fatalf("expected ErrSuggestionNotFound, got %v", err)
	}
	if got := f.gen.AppliedBetween(tuesday, tuesday.AddDate(0, 0, 1)); got != 1 {
		t.Fatalf("expected 1 applied reschedule, got %d", got)
	}
	log := f.gen.AppliedLog()
	if len(log) != 1 || !log[0].From.Equal(e1.Interval()) {
		t.Fatalf("unexpected applied log: %+v", log)
	}
}

func TestApplyAlternative(t *testing.T) {
	f := newFixture(t, tuesday.Add(8*time.Hour), Config{})
	e1 := f.add(t, "E1", 10, 0, time.Hour)
	f.add(t, "E2", 10, 30, time.Hour)
	list, _ := f.gen.Suggest(e1.ID)
	updated, err := f.gen.ApplyChoice(list[0].ID, 1)
	if err != nil {
		t.Fatalf("apply choice failed: %v", err)
	}
	if updated.StartTime.Format("15:04") != "12:00" {
		t.Fatalf("expected 12:00, got %s", updated.StartTime.Format("15:04"))
	}
	list, _ = f.gen.Suggest(e1.ID)
	if _, err := f.gen.ApplyChoice(list[0].ID, 9); err == nil {
		t.Fatal("expected error for unknown choice")
	}
}

func TestApplyStaleSuggestion(t *testing.T) {
	f := newFixture(t, tuesday.Add(8*time.Hour), Config{})
	e1 := f.add(t, "E1", 10, 0, time.Hour)
	f.add(t, "E2", 10, 30, time.Hour)
	list, _ := f.gen.Suggest(e1.ID)
	f.add(t, "taken", 9, 15, 15*time.Minute)
	if _, err := f.gen.Apply(list[0].ID); !errors.Is(err, ErrStaleSuggestion) {
		t.Fatalf("expected ErrStaleSuggestion, got %v", err)
	}
	stored, _ := f.repo.Get(e1.ID)
	if !stored.Interval().Equal(e1.Interval()) {
		t.Fatal("stale apply must not move the event")
	}
}

func TestDiscardAndUnknown(t *testing.T) {
	f := newFixture(t, tuesday.Add(8*time.Hour), Config{})
	e := f.add(t, "E", 10, 0, time.Hour)
	list, _ := f.gen.Suggest(e.ID)
	if err := f.gen.Discard(list[0].ID); err != nil {
		t.Fatalf("discard failed: %v", err)
	}
	if err := f.gen.Discard(list[0].ID); !errors.Is(err, ErrSuggestionNotFound) {
		t.Fatalf("expected ErrSuggestionNotFound, got %v", err)
	}
	if _, err := f.gen.Suggest("missing"); !errors.Is(err, events.ErrNotFound) {
		t.Fatalf("expected events.ErrNotFound, got %v", err)
	}
}

func TestApplyAfterEventRemoved(t *testing.T) {
	f := newFixture(t, tuesday.Add(8*time.Hour), Config{})
	e := f.add(t, "E", 10, 0, time.Hour)
	list, _ := f.gen.Suggest(e.ID)
	if _, err := f.repo.Remove(e.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := f.gen.Apply(list[0].ID); !errors.Is(err, events.ErrNotFound) {
		t.Fatalf("expected events.ErrNotFound, got %v", err)
	}
}
