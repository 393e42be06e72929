package conflict

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sandeepkv93/slotd/internal/events"
	"github.com/sandeepkv93/slotd/internal/model"
)

var day = time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) *events.Repository {
	t.Helper()
	n := 0
	return events.NewRepository(
		events.WithLocation(time.UTC),
		events.WithClock(func() time.Time { return day }),
		events.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("e%d", n)
		}),
	)
}

func mustAdd(t *testing.T, repo *events.Repository, d model.Draft) model.Event {
	t.Helper()
	e, err := repo.Add(d)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	return e
}

func timed(title string, h, m int, d time.Duration) model.Draft {
	start := day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
	return model.Draft{Title: title, StartTime: start, EndTime: start.Add(d)}
}

func allDay(title string, dayOffset int) model.Draft {
	start := day.AddDate(0, 0, dayOffset)
	return model.Draft{Title: title, StartTime: start, EndTime: start, AllDay: true}
}

func TestConflictsOfOverlappingPair(t *testing.T) {
	repo := newRepo(t)
	e1 := mustAdd(t, repo, timed("E1", 10, 0, time.Hour))
	e2 := mustAdd(t, repo, timed("E2", 10, 30, time.Hour))
	d := NewDetector(repo)

	got1, err := d.ConflictsOf(e1.ID)
	if err != nil {
		t.Fatalf("conflicts failed: %v", err)
	}
	if len(got1) != 1 || got1[0].ID != e2.ID {
		t.Fatalf("expected [E2], got %+v", got1)
	}
	got2, _ := d.ConflictsOf(e2.ID)
	if len(got2) != 1 || got2[0].ID != e1.ID {
		t.Fatalf("expected [E1], got %+v", got2)
	}
}

func TestSymmetryAndNoSelfConflict(t *testing.T) {
	repo := newRepo(t)
	mustAdd(t, repo, timed("a", 9, 0, 2*time.Hour))
	mustAdd(t, repo, timed("b", 10, 0, time.Hour))
	mustAdd(t, repo, timed("c", 11, 0, time.Hour))
	mustAdd(t, repo, timed("d", 13, 0, 30*time.Minute))
	mustAdd(t, repo, allDay("holiday", 0))
	mustAdd(t, repo, allDay("offsite", 0))
	mustAdd(t, repo, allDay("tomorrow", 1))
	d := NewDetector(repo)

	all := repo.Snapshot()
	sets := map[string]map[string]bool{}
	for _, e := range all {
		list, err := d.ConflictsOf(e.ID)
		if err != nil {
			t.Fatalf("conflicts failed: %v", err)
		}
		sets[e.ID] = map[string]bool{}
		for _, c := range list {
			if c.ID == e.ID {
				t.Fatalf("event %s conflicts with itself", e.ID)
			}
			sets[e.ID][c.ID] = true
		}
	}
	for a, set := range sets {
		for b := range set {
			if !sets[b][a] {
				t.Fatalf("asymmetric conflict: %s -> %s", a, b)
			}
		}
	}
	if !sets["e5"]["e6"] || sets["e5"]["e7"] || sets["e5"]["e1"] {
		t.Fatalf("unexpected all-day conflicts: %+v", sets["e5"])
	}
	if !sets["e1"]["e2"] || sets["e1"]["e3"] || sets["e2"]["e3"] {
		t.Fatalf("unexpected timed conflicts: e1=%+v e2=%+v", sets["e1"], sets["e2"])
	}
}

func TestTouchingEndpointsDoNotConflict(t *testing.T) {
	repo := newRepo(t)
	a := mustAdd(t, repo, timed("a", 10, 0, time.Hour))
	mustAdd(t, repo, timed("b", 11, 0, time.Hour))
	list, err := NewDetector(repo).ConflictsOf(a.ID)
	if err != nil {
		t.Fatalf("conflicts failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no conflicts, got %+v", list)
	}
}

func TestConflictsOfUnknown(t *testing.T) {
	_, err := NewDetector(newRepo(t)).ConflictsOf("nope")
	if !errors.Is(err, events.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHasConflictWithExclusion(t *testing.T) {
	repo := newRepo(t)
	e := mustAdd(t, repo, timed("a", 10, 0, time.Hour))
	mustAdd(t, repo, allDay("holiday", 0))
	d := NewDetector(repo)
	slot := model.NewSlot(day.Add(10*time.Hour+30*time.Minute), time.Hour)
	if !d.HasConflict(slot, "") {
		t.Fatal("expected conflict")
	}
	if d.HasConflict(slot, e.ID) {
		t.Fatal("expected excluded event to be ignored")
	}
	if d.HasConflict(model.NewSlot(day.Add(14*time.Hour), time.Hour), "") {
		t.Fatal("all-day events must not block timed slots")
	}
}

func TestReportAndDescribe(t *testing.T) {
	repo := newRepo(t)
	e1 := mustAdd(t, repo, timed("Standup", 10, 0, time.Hour))
	mustAdd(t, repo, timed("Dentist", 10, 15, 30*time.Minute))
	d := NewDetector(repo)
	report, err := d.Report(e1.ID)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !report.HasConflicts() || report.Conflicts[0].Title != "Dentist" {
		t.Fatalf("unexpected report: %+v", report)
	}
	list, _ := d.ConflictsOf(e1.ID)
	lines := Describe(list)
	if len(lines) != 1 || lines[0] != "Conflict with: Dentist" {
		t.Fatalf("unexpected description: %v", lines)
	}
}

func TestCountConflicted(t *testing.T) {
	repo := newRepo(t)
	mustAdd(t, repo, timed("a", 10, 0, time.Hour))
	mustAdd(t, repo, timed("b", 10, 30, time.Hour))
	mustAdd(t, repo, timed("c", 15, 0, time.Hour))
	all := repo.Snapshot()
	if got := CountConflicted(all, all, time.UTC); got != 2 {
		t.Fatalf("expected 2 conflicted events, got %d", got)
	}
	if got := CountConflicted(all[2:], all, time.UTC); got != 0 {
		t.Fatalf("expected 0 conflicted events, got %d", got)
	}
}
