// Package planner wires the scheduling core into one service: events,
// conflicts, free slots, scoring, reports, reschedules and integrations.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sandeepkv93/slotd/internal/conflict"
	"github.com/sandeepkv93/slotd/internal/events"
	"github.com/sandeepkv93/slotd/internal/export"
	"github.com/sandeepkv93/slotd/internal/integrations"
	"github.com/sandeepkv93/slotd/internal/logging"
	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/productivity"
	"github.com/sandeepkv93/slotd/internal/reschedule"
	"github.com/sandeepkv93/slotd/internal/scoring"
	"github.com/sandeepkv93/slotd/internal/slots"
	"github.com/sandeepkv93/slotd/internal/storage"
)

type Options struct {
	Location        *time.Location
	Window          slots.Window
	SearchDays      int
	MaxAlternatives int
	Now             func() time.Time
	NewID           func() string
	// Store is optional. Without it the service keeps state in memory only.
	Store  Store
	Logger *zerolog.Logger
}

type Service struct {
	mu sync.Mutex

	repo     *events.Repository
	detector *conflict.Detector
	finder   *slots.Finder
	scorer   *scoring.Scorer
	best     *scoring.BestTime
	agg      *productivity.Aggregator
	gen      *reschedule.Generator
	registry *integrations.Registry
	store    Store
	log      *zerolog.Logger
}

func New(opts Options) (*Service, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	window := opts.Window
	if window == (slots.Window{}) {
		window = slots.DefaultWindow()
	}

	repo := events.NewRepository(
		events.WithLocation(loc),
		events.WithClock(now),
		events.WithIDGenerator(opts.NewID),
	)
	finder, err := slots.NewFinder(repo, window)
	if err != nil {
		return nil, err
	}
	scorer := scoring.NewScorer(now, loc)
	gen := reschedule.NewGenerator(repo, finder, scorer, reschedule.Config{
		SearchDays:      opts.SearchDays,
		MaxAlternatives: opts.MaxAlternatives,
		Now:             now,
		NewID:           opts.NewID,
	})

	return &Service{
		repo:     repo,
		detector: conflict.NewDetector(repo),
		finder:   finder,
		scorer:   scorer,
		best:     scoring.NewBestTime(finder, now, loc),
		agg: productivity.NewAggregator(repo, gen,
			productivity.WithClock(now),
			productivity.WithIDGenerator(opts.NewID),
		),
		gen:      gen,
		registry: integrations.NewRegistry(),
		store:    opts.Store,
		log:      logging.Component(opts.Logger, "planner"),
	}, nil
}

func (s *Service) Location() *time.Location { return s.repo.Location() }

func (s *Service) Now() time.Time { return s.repo.Now() }

func (s *Service) SlotWindow() slots.Window { return s.finder.Window() }

// AddEvent creates an event and writes it through to the store. A store
// failure removes the event again.
func (s *Service) AddEvent(ctx context.Context, draft model.Draft) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(ctx, draft)
}

func (s *Service) addLocked(ctx context.Context, draft model.Draft) (model.Event, error) {
	created, err := s.repo.Add(draft)
	if err != nil {
		return model.Event{}, err
	}
	if err := s.saveEvent(ctx, created); err != nil {
		if _, rbErr := s.repo.Remove(created.ID); rbErr != nil {
			s.log.Error().Err(rbErr).Str("event_id", created.ID).Msg("rollback of add failed")
		}
		return model.Event{}, err
	}
	s.log.Info().Str("event_id", created.ID).Str("title", created.Title).Msg("event added")
	return created, nil
}

func (s *Service) UpdateEvent(ctx context.Context, id string, patch model.Patch) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(ctx, id, patch)
}

func (s *Service) updateLocked(ctx context.Context, id string, patch model.Patch) (model.Event, error) {
	before, err := s.repo.Get(id)
	if err != nil {
		return model.Event{}, err
	}
	updated, err := s.repo.Update(id, patch)
	if err != nil {
		return model.Event{}, err
	}
	if err := s.saveEvent(ctx, updated); err != nil {
		if rbErr := s.repo.Restore(before); rbErr != nil {
			s.log.Error().Err(rbErr).Str("event_id", id).Msg("rollback of update failed")
		}
		return model.Event{}, err
	}
	s.log.Info().Str("event_id", id).Msg("event updated")
	return updated, nil
}

func (s *Service) DeleteEvent(ctx context.Context, id string) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed, err := s.repo.Remove(id)
	if err != nil {
		return model.Event{}, err
	}
	if s.store != nil {
		err := s.store.DeleteEvent(ctx, id)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			if rbErr := s.repo.Restore(removed); rbErr != nil {
				s.log.Error().Err(rbErr).Str("event_id", id).Msg("rollback of delete failed")
			}
			return model.Event{}, fmt.Errorf("delete event %s: %w", id, err)
		}
	}
	s.log.Info().Str("event_id", id).Msg("event deleted")
	return removed, nil
}

func (s *Service) GetEvent(id string) (model.Event, error) {
	return s.repo.Get(id)
}

// Events returns every event in insertion order.
func (s *Service) Events() []model.Event {
	return s.repo.Snapshot()
}

func (s *Service) EventsForDate(date time.Time) []model.Event {
	return s.repo.ForDate(date)
}

func (s *Service) EventsForRange(start, end time.Time) []model.Event {
	return s.repo.InRange(start, end)
}

func (s *Service) saveEvent(ctx context.Context, e model.Event) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.SaveEvent(ctx, toStorageEvent(e)); err != nil {
		return fmt.Errorf("save event %s: %w", e.ID, err)
	}
	return nil
}

// ImportDrafts adds each draft as a new event. Items whose UID matches an
// existing event id are skipped. The added events are returned in order.
func (s *Service) ImportDrafts(ctx context.Context, items []export.Imported) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Event, 0, len(items))
	for _, item := range items {
		if item.UID != "" {
			if _, err := s.repo.Get(item.UID); err == nil {
				continue
			}
		}
		created, err := s.addLocked(ctx, item.Draft)
		if err != nil {
			return out, fmt.Errorf("import %q: %w", item.Draft.Title, err)
		}
		out = append(out, created)
	}
	return out, nil
}

// ImportEvents restores fully formed events, keeping their ids. Events whose
// id already exists are skipped.
func (s *Service) ImportEvents(ctx context.Context, list []model.Event) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range list {
		if _, err := s.repo.Get(e.ID); err == nil {
			continue
		}
		e.StartTime = e.StartTime.In(s.repo.Location())
		e.EndTime = e.EndTime.In(s.repo.Location())
		if err := s.repo.Restore(e); err != nil {
			return n, fmt.Errorf("import %s: %w", e.ID, err)
		}
		if err := s.saveEvent(ctx, e); err != nil {
			_, _ = s.repo.Remove(e.ID)
			return n, err
		}
		n++
	}
	s.log.Info().Int("count", n).Msg("events imported")
	return n, nil
}

func (s *Service) AvailableSlots(date time.Time, durationMinutes int) ([]model.TimeSlot, error) {
	return s.finder.FindAvailable(date, durationMinutes)
}

// RankedSlots returns the free slots of date ordered by score, best first.
func (s *Service) RankedSlots(date time.Time, durationMinutes int, priority model.Priority) ([]scoring.Ranked, error) {
	free, err := s.finder.FindAvailable(date, durationMinutes)
	if err != nil {
		return nil, err
	}
	return s.scorer.Rank(free, priority), nil
}

func (s *Service) ScoreSlot(slot model.TimeSlot, priority model.Priority) int {
	return s.scorer.Score(slot, priority)
}

func (s *Service) SuggestBestTime(durationMinutes int, priority model.Priority) (time.Time, bool, error) {
	return s.best.Suggest(durationMinutes, priority)
}

func (s *Service) ConflictsOf(id string) ([]model.Event, error) {
	return s.detector.ConflictsOf(id)
}

// AnalyzeConflicts returns one "Conflict with: <title>" line per conflict.
func (s *Service) AnalyzeConflicts(id string) ([]string, error) {
	list, err := s.detector.ConflictsOf(id)
	if err != nil {
		return nil, err
	}
	return conflict.Describe(list), nil
}

func (s *Service) ConflictReport(id string) (conflict.Report, error) {
	return s.detector.Report(id)
}

func (s *Service) HasConflict(slot model.TimeSlot, excludeID string) bool {
	return s.detector.HasConflict(slot, excludeID)
}

// GenerateProductivityAnalysis builds a report for [start, end] and stores it.
func (s *Service) GenerateProductivityAnalysis(ctx context.Context, period productivity.Period, start, end time.Time) (productivity.Analysis, error) {
	a, err := s.agg.Analyze(period, start, end)
	if err != nil {
		return productivity.Analysis{}, err
	}
	if s.store != nil {
		row, err := toStorageAnalysis(a)
		if err == nil {
			err = s.store.CreateAnalysis(ctx, row)
		}
		if err != nil {
			return a, fmt.Errorf("store analysis %s: %w", a.ID, err)
		}
	}
	s.log.Info().Str("analysis_id", a.ID).Str("period", string(a.Period)).Int("events", a.TotalEvents).Msg("analysis generated")
	return a, nil
}

// AnalyzePeriod resolves the bounds of a named period around ref.
func (s *Service) AnalyzePeriod(ctx context.Context, period productivity.Period, ref time.Time) (productivity.Analysis, error) {
	start, end, err := productivity.Bounds(period, ref, s.Location())
	if err != nil {
		return productivity.Analysis{}, err
	}
	return s.GenerateProductivityAnalysis(ctx, period, start, end)
}

func (s *Service) AnalysisHistory() []productivity.Analysis {
	return s.agg.History()
}

func (s *Service) GenerateRescheduleSuggestions(eventID string) ([]reschedule.Suggestion, error) {
	out, err := s.gen.Suggest(eventID)
	if err != nil {
		return nil, err
	}
	for _, sg := range out {
		s.log.Debug().Str("suggestion_id", sg.ID).Str("event_id", eventID).Str("strategy", string(sg.Strategy)).Msg("reschedule suggested")
	}
	return out, nil
}

func (s *Service) PendingSuggestions(eventID string) []reschedule.Suggestion {
	return s.gen.Pending(eventID)
}

func (s *Service) ApplyRescheduleSuggestion(ctx context.Context, id string) (model.Event, error) {
	return s.ApplyRescheduleChoice(ctx, id, 0)
}

// ApplyRescheduleChoice moves the event onto the chosen time of suggestion
// id: 0 is the primary time, 1.. the alternatives.
func (s *Service) ApplyRescheduleChoice(ctx context.Context, id string, choice int) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sg, patch, err := s.gen.Resolve(id, choice)
	if err != nil {
		return model.Event{}, err
	}
	updated, err := s.updateLocked(ctx, sg.EventID, patch)
	if err != nil {
		return model.Event{}, err
	}
	rec := s.gen.MarkApplied(sg, updated)
	if s.store != nil {
		if err := s.store.CreateReschedule(ctx, toStorageReschedule(rec)); err != nil {
			s.log.Error().Err(err).Str("suggestion_id", id).Msg("reschedule log not stored")
		}
	}
	s.log.Info().Str("suggestion_id", id).Str("event_id", sg.EventID).Time("to", updated.StartTime).Msg("reschedule applied")
	return updated, nil
}

func (s *Service) DiscardRescheduleSuggestion(id string) error {
	return s.gen.Discard(id)
}

func (s *Service) AppliedReschedules() []reschedule.Applied {
	return s.gen.AppliedLog()
}

func (s *Service) RegisterIntegration(c integrations.Capability) error {
	return s.registry.Register(c)
}

func (s *Service) Integrations() []string {
	return s.registry.Names()
}

func (s *Service) Connect(ctx context.Context, name string) error {
	c, err := s.registry.Get(name)
	if err != nil {
		return err
	}
	if err := c.Connect(ctx); err != nil {
		return fmt.Errorf("connect %s: %w", name, err)
	}
	s.log.Info().Str("integration", name).Msg("connected")
	return nil
}

func (s *Service) Disconnect(ctx context.Context, name string) error {
	c, err := s.registry.Get(name)
	if err != nil {
		return err
	}
	return c.Disconnect(ctx)
}

// Sync pushes every event to integration name and imports what it pulls.
func (s *Service) Sync(ctx context.Context, name string) (integrations.SyncResult, []model.Event, error) {
	c, err := s.registry.Get(name)
	if err != nil {
		return integrations.SyncResult{}, nil, err
	}
	res, err := c.Sync(ctx, integrations.SyncRequest{Events: s.repo.Snapshot()})
	if err != nil {
		return integrations.SyncResult{}, nil, fmt.Errorf("sync %s: %w", name, err)
	}
	imported, err := s.ImportDrafts(ctx, res.Pulled)
	if err != nil {
		return res, imported, err
	}
	s.log.Info().Str("integration", name).Int("pushed", res.Pushed).Int("imported", len(imported)).Msg("sync finished")
	return res, imported, nil
}

func (s *Service) Send(ctx context.Context, name string, msg integrations.Message) error {
	c, err := s.registry.Get(name)
	if err != nil {
		return err
	}
	if err := c.Send(ctx, msg); err != nil {
		return fmt.Errorf("send via %s: %w", name, err)
	}
	return nil
}
