package conflict

import (
	"fmt"
	"time"

	"github.com/sandeepkv93/slotd/internal/model"
)

// Source is the read side of the event repository.
type Source interface {
	Get(id string) (model.Event, error)
	Snapshot() []model.Event
	Location() *time.Location
}

// Entry names one event that overlaps the subject of a report.
type Entry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Report struct {
	EventID   string  `json:"event_id"`
	Conflicts []Entry `json:"conflicts"`
}

func (r Report) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

type Detector struct {
	src Source
}

func NewDetector(src Source) *Detector {
	return &Detector{src: src}
}

// ConflictsOf returns every other event that collides with id, in
// repository order.
func (d *Detector) ConflictsOf(id string) ([]model.Event, error) {
	subject, err := d.src.Get(id)
	if err != nil {
		return nil, err
	}
	return Against(subject, d.src.Snapshot(), d.src.Location()), nil
}

// HasConflict tests a hypothetical timed interval. excludeID, when set,
// is ignored so an event can be checked against its own new position.
func (d *Detector) HasConflict(slot model.TimeSlot, excludeID string) bool {
	return !FreeOf(slot, d.src.Snapshot(), excludeID)
}

func (d *Detector) Report(id string) (Report, error) {
	list, err := d.ConflictsOf(id)
	if err != nil {
		return Report{}, err
	}
	out := Report{EventID: id, Conflicts: make([]Entry, 0, len(list))}
	for _, e := range list {
		out.Conflicts = append(out.Conflicts, Entry{ID: e.ID, Title: e.Title})
	}
	return out, nil
}

// Describe renders the human-readable form shown to users.
func Describe(list []model.Event) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, fmt.Sprintf("Conflict with: %s", e.Title))
	}
	return out
}

// Collides reports whether two distinct events conflict. Timed events use
// the half-open overlap test. All-day events only collide with other
// all-day events that start on the same local day.
func Collides(a, b model.Event, loc *time.Location) bool {
	if a.ID == b.ID {
		return false
	}
	switch {
	case a.AllDay && b.AllDay:
		return model.SameDay(a.StartTime, b.StartTime, loc)
	case a.AllDay || b.AllDay:
		return false
	default:
		return a.Interval().Overlaps(b.Interval())
	}
}

// Against lists the events in all that collide with subject.
func Against(subject model.Event, all []model.Event, loc *time.Location) []model.Event {
	var out []model.Event
	for _, other := range all {
		if Collides(subject, other, loc) {
			out = append(out, other)
		}
	}
	return out
}

// FreeOf reports whether slot overlaps none of the timed events in all.
func FreeOf(slot model.TimeSlot, all []model.Event, excludeID string) bool {
	for _, e := range all {
		if e.AllDay || (excludeID != "" && e.ID == excludeID) {
			continue
		}
		if slot.Overlaps(e.Interval()) {
			return false
		}
	}
	return true
}

// CountConflicted counts the events of subset that collide with at least
// one event of all.
func CountConflicted(subset, all []model.Event, loc *time.Location) int {
	n := 0
	for _, e := range subset {
		for _, other := range all {
			if Collides(e, other, loc) {
				n++
				break
			}
		}
	}
	return n
}
