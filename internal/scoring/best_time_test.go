package scoring

import (
	"errors"
	"testing"
	"time"

	"github.com/sandeepkv93/slotd/internal/events"
	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/slots"
)

type stubFinder struct {
	slots []model.TimeSlot
	err   error
	date  time.Time
}

func (s *stubFinder) FindAvailable(date time.Time, _ int) ([]model.TimeSlot, error) {
	s.date = date
	return s.slots, s.err
}

func TestSuggestUrgentFallsBackToAfternoon(t *testing.T) {
	now := tuesday.Add(7 * time.Hour)
	repo := events.NewRepository(events.WithLocation(time.UTC), events.WithClock(fixedClock(now)))
	busy := []model.Draft{
		{Title: "block morning", StartTime: tuesday.Add(9 * time.Hour), EndTime: tuesday.Add(14 * time.Hour)},
		{Title: "block evening", StartTime: tuesday.Add(15 * time.Hour), EndTime: tuesday.Add(19 * time.Hour)},
	}
	for _, d := range busy {
		if _, err := repo.Add(d); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}
	finder, err := slots.NewFinder(repo, slots.DefaultWindow())
	if err != nil {
		t.Fatalf("new finder failed: %v", err)
	}
	b := NewBestTime(finder, fixedClock(now), time.UTC)
	got, ok, err := b.Suggest(30, model.PriorityUrgent)
	if err != nil || !ok {
		t.Fatalf("expected a suggestion, got ok=%v err=%v", ok, err)
	}
	if got.Format("15:04") != "14:00" {
		t.Fatalf("expected 14:00 fallback, got %s", got.Format("15:04"))
	}
}

func TestSuggestPriorityPreference(t *testing.T) {
	now := tuesday.Add(7 * time.Hour)
	stub := &stubFinder{slots: []model.TimeSlot{
		slotAt(tuesday, 13, 0),
		slotAt(tuesday, 11, 0),
	}}
	b := NewBestTime(stub, fixedClock(now), time.UTC)

	got, ok, _ := b.Suggest(60, model.PriorityHigh)
	if !ok || got.Hour() != 11 {
		t.Fatalf("high priority should prefer the morning slot, got %s", got.Format("15:04"))
	}
	got, ok, _ = b.Suggest(60, model.PriorityMedium)
	if !ok || got.Hour() != 13 {
		t.Fatalf("medium priority takes the first slot, got %s", got.Format("15:04"))
	}
	if !stub.date.Equal(now) {
		t.Fatalf("expected today's date to be searched, got %s", stub.date)
	}
}

func TestSuggestNoSlots(t *testing.T) {
	b := NewBestTime(&stubFinder{}, fixedClock(tuesday), time.UTC)
	_, ok, err := b.Suggest(30, model.PriorityLow)
	if err != nil || ok {
		t.Fatalf("expected no suggestion without error, got ok=%v err=%v", ok, err)
	}
}

func TestSuggestPropagatesErrors(t *testing.T) {
	b := NewBestTime(&stubFinder{err: slots.ErrInvalidDuration}, fixedClock(tuesday), time.UTC)
	if _, _, err := b.Suggest(0, model.PriorityLow); !errors.Is(err, slots.ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}
