package events

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/slotd/internal/model"
)

var ErrNotFound = errors.New("events: not found")

// Repository is the in-memory source of truth for events. Readers receive
// copies in insertion order. All writes go through a single lock.
type Repository struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]model.Event
	loc   *time.Location
	now   func() time.Time
	newID func() string
}

type Option func(*Repository)

// WithLocation sets the zone used to resolve local calendar days.
func WithLocation(loc *time.Location) Option {
	return func(r *Repository) {
		if loc != nil {
			r.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

func WithIDGenerator(next func() string) Option {
	return func(r *Repository) {
		if next != nil {
			r.newID = next
		}
	}
}

func NewRepository(opts ...Option) *Repository {
	r := &Repository{
		byID:  make(map[string]model.Event),
		loc:   time.Local,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) Location() *time.Location {
	return r.loc
}

func (r *Repository) Now() time.Time {
	return r.now().In(r.loc)
}

func (r *Repository) Add(draft model.Draft) (model.Event, error) {
	d := draft.WithDefaults()
	if err := d.Validate(); err != nil {
		return model.Event{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.newID()
	if _, exists := r.byID[id]; exists {
		return model.Event{}, fmt.Errorf("events: duplicate id %q", id)
	}
	e := d.Materialize(id, r.now())
	r.byID[id] = e
	r.order = append(r.order, id)
	return e.Clone(), nil
}

// Update merges patch onto the stored event and returns the result. The
// merged record must still validate.
func (r *Repository) Update(id string, patch model.Patch) (model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[id]
	if !ok {
		return model.Event{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	next := patch.Apply(current)
	now := r.now()
	if now.Before(next.CreatedAt) {
		now = next.CreatedAt
	}
	next.UpdatedAt = now
	if err := next.Validate(); err != nil {
		return model.Event{}, err
	}
	r.byID[id] = next
	return next.Clone(), nil
}

// Remove hard-deletes the event and returns what was stored.
func (r *Repository) Remove(id string) (model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[id]
	if !ok {
		return model.Event{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return current, nil
}

// Restore inserts or replaces a complete record without touching its
// timestamps. Replaced records keep their position.
func (r *Repository) Restore(e model.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[e.ID]; !exists {
		r.order = append(r.order, e.ID)
	}
	r.byID[e.ID] = e.Clone()
	return nil
}

func (r *Repository) Get(id string) (model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return model.Event{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return e.Clone(), nil
}

// ForDate returns events whose start lies within date's local calendar day.
func (r *Repository) ForDate(date time.Time) []model.Event {
	day := model.DayBounds(date, r.loc)
	return r.InRange(day.Start, day.End)
}

// InRange returns events whose start lies in [start, end).
func (r *Repository) InRange(start, end time.Time) []model.Event {
	return r.filter(func(e model.Event) bool {
		return !e.StartTime.Before(start) && e.StartTime.Before(end)
	})
}

// Snapshot returns a consistent copy of every event.
func (r *Repository) Snapshot() []model.Event {
	return r.filter(func(model.Event) bool { return true })
}

func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *Repository) filter(keep func(model.Event) bool) []model.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Event, 0, len(r.order))
	for _, id := range r.order {
		e := r.byID[id]
		if keep(e) {
			out = append(out, e.Clone())
		}
	}
	return out
}
