package slots

import (
	"errors"
	"testing"
	"time"

	"github.com/sandeepkv93/slotd/internal/events"
	"github.com/sandeepkv93/slotd/internal/model"
)

var day = time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

func newFinder(t *testing.T, drafts ...model.Draft) (*Finder, *events.Repository) {
	t.Helper()
	repo := events.NewRepository(events.WithLocation(time.UTC), events.WithClock(func() time.Time { return day }))
	for _, d := range drafts {
		if _, err := repo.Add(d); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}
	f, err := NewFinder(repo, DefaultWindow())
	if err != nil {
		t.Fatalf("new finder failed: %v", err)
	}
	return f, repo
}

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func TestEmptyDayYieldsAllCandidates(t *testing.T) {
	f, _ := newFinder(t)
	got, err := f.FindAvailable(at(13, 0), 60)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(got) != 9 {
		t.Fatalf("expected 9 slots, got %d", len(got))
	}
	for i, s := range got {
		if s.Start.Hour() != 9+i || s.Start.Minute() != 0 {
			t.Fatalf("slot %d starts at %s", i, s.Start.Format("15:04"))
		}
	}
}

func TestMeetingExcludesOverlappingSlot(t *testing.T) {
	f, _ := newFinder(t, model.Draft{Title: "meeting", StartTime: at(10, 0), EndTime: at(11, 0)})
	got, err := f.FindAvailable(day, 60)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(got) != 8 {
		t.Fatalf("expected 8 slots, got %d", len(got))
	}
	want := []int{9, 11, 12, 13, 14, 15, 16, 17}
	for i, s := range got {
		if s.Start.Hour() != want[i] {
			t.Fatalf("slot %d: got %s want %02d:00", i, s.Start.Format("15:04"), want[i])
		}
	}
}

func TestSlotsAreFreeAndExactWidth(t *testing.T) {
	f, repo := newFinder(t,
		model.Draft{Title: "a", StartTime: at(9, 30), EndTime: at(10, 15)},
		model.Draft{Title: "b", StartTime: at(14, 0), EndTime: at(16, 0)},
		model.Draft{Title: "holiday", StartTime: day, EndTime: day, AllDay: true},
	)
	for _, minutes := range []int{15, 45, 90, 240} {
		got, err := f.FindAvailable(day, minutes)
		if err != nil {
			t.Fatalf("find failed: %v", err)
		}
		for _, s := range got {
			if s.Duration() != time.Duration(minutes)*time.Minute {
				t.Fatalf("slot width %s for %d minutes", s.Duration(), minutes)
			}
			for _, e := range repo.ForDate(day) {
				if !e.AllDay && s.Overlaps(e.Interval()) {
					t.Fatalf("slot %s overlaps %s", s.Start.Format("15:04"), e.Title)
				}
			}
		}
	}
}

func TestLongSlotCheckedAgainstNextDay(t *testing.T) {
	f, _ := newFinder(t, model.Draft{Title: "early", StartTime: day.AddDate(0, 0, 1).Add(time.Hour), EndTime: day.AddDate(0, 0, 1).Add(2 * time.Hour)})
	got, err := f.FindAvailable(day, 10*60)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	for _, s := range got {
		if s.Start.Hour() >= 16 {
			t.Fatalf("slot at %s crosses into the next-day event", s.Start.Format("15:04"))
		}
	}
}

func TestInvalidDuration(t *testing.T) {
	f, _ := newFinder(t)
	for _, minutes := range []int{0, -30} {
		if _, err := f.FindAvailable(day, minutes); !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("minutes %d: expected ErrInvalidDuration, got %v", minutes, err)
		}
	}
}

func TestExcludingIgnoresEvent(t *testing.T) {
	f, repo := newFinder(t, model.Draft{Title: "meeting", StartTime: at(10, 0), EndTime: at(11, 0)})
	id := repo.Snapshot()[0].ID
	got, err := f.FindAvailableExcluding(day, 60, id)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(got) != 9 {
		t.Fatalf("expected 9 slots, got %d", len(got))
	}
}

func TestCustomWindow(t *testing.T) {
	repo := events.NewRepository(events.WithLocation(time.UTC))
	f, err := NewFinder(repo, Window{FirstHour: 8, LastHour: 10, Step: 30 * time.Minute})
	if err != nil {
		t.Fatalf("new finder failed: %v", err)
	}
	got, _ := f.FindAvailable(day, 30)
	if len(got) != 5 || got[4].Start.Format("15:04") != "10:00" {
		t.Fatalf("unexpected slots: %+v", got)
	}
	if _, err := NewFinder(repo, Window{FirstHour: 18, LastHour: 9, Step: time.Hour}); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}
