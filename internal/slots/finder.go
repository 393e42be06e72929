package slots

import (
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/slotd/internal/conflict"
	"github.com/sandeepkv93/slotd/internal/model"
)

var (
	ErrInvalidDuration = errors.New("slots: duration must be positive")
	ErrInvalidWindow   = errors.New("slots: invalid working window")
)

type Source interface {
	Snapshot() []model.Event
	Location() *time.Location
}

// Window bounds the candidate start times of a working day. Starts run
// from FirstHour through LastHour inclusive, Step apart.
type Window struct {
	FirstHour int
	LastHour  int
	Step      time.Duration
}

func DefaultWindow() Window {
	return Window{FirstHour: 9, LastHour: 17, Step: time.Hour}
}

func (w Window) Validate() error {
	if w.FirstHour < 0 || w.LastHour > 23 || w.FirstHour > w.LastHour {
		return fmt.Errorf("%w: hours %d..%d", ErrInvalidWindow, w.FirstHour, w.LastHour)
	}
	if w.Step <= 0 || w.Step%time.Minute != 0 {
		return fmt.Errorf("%w: step %s", ErrInvalidWindow, w.Step)
	}
	return nil
}

// Starts enumerates the candidate start times on date's local day.
func (w Window) Starts(date time.Time, loc *time.Location) []time.Time {
	if loc == nil {
		loc = date.Location()
	}
	d := date.In(loc)
	stepMin := int(w.Step / time.Minute)
	var out []time.Time
	for m := w.FirstHour * 60; m <= w.LastHour*60; m += stepMin {
		out = append(out, time.Date(d.Year(), d.Month(), d.Day(), 0, m, 0, 0, loc))
	}
	return out
}

type Finder struct {
	src    Source
	window Window
}

func NewFinder(src Source, window Window) (*Finder, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	return &Finder{src: src, window: window}, nil
}

func (f *Finder) Window() Window {
	return f.window
}

// FindAvailable returns the free candidate slots of the given length on
// date, in ascending start order.
func (f *Finder) FindAvailable(date time.Time, durationMinutes int) ([]model.TimeSlot, error) {
	return f.FindAvailableExcluding(date, durationMinutes, "")
}

// FindAvailableExcluding is FindAvailable with one event ignored.
func (f *Finder) FindAvailableExcluding(date time.Time, durationMinutes int, excludeID string) ([]model.TimeSlot, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDuration, durationMinutes)
	}
	length := time.Duration(durationMinutes) * time.Minute
	snapshot := f.src.Snapshot()

	out := make([]model.TimeSlot, 0, f.window.LastHour-f.window.FirstHour+1)
	for _, start := range f.window.Starts(date, f.src.Location()) {
		slot := model.NewSlot(start, length)
		if conflict.FreeOf(slot, snapshot, excludeID) {
			out = append(out, slot)
		}
	}
	return out, nil
}
