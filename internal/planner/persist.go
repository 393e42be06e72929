package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/productivity"
	"github.com/sandeepkv93/slotd/internal/reschedule"
	"github.com/sandeepkv93/slotd/internal/storage"
)

// Store is the persistence the service writes through to.
type Store interface {
	SaveEvent(ctx context.Context, in storage.Event) error
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context, filter storage.EventListFilter) ([]storage.Event, error)
	CreateAnalysis(ctx context.Context, in storage.Analysis) error
	ListAnalyses(ctx context.Context, filter storage.AnalysisListFilter) ([]storage.Analysis, error)
	CreateReschedule(ctx context.Context, in storage.Reschedule) error
	ListReschedules(ctx context.Context) ([]storage.Reschedule, error)
}

func toStorageEvent(e model.Event) storage.Event {
	out := storage.Event{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		StartAt:     e.StartTime,
		EndAt:       e.EndTime,
		AllDay:      e.AllDay,
		Type:        string(e.Type),
		Priority:    string(e.Priority),
		Recurrence:  e.Recurrence,
		Tags:        append([]string{}, e.Tags...),
		Reminders:   make([]storage.Reminder, 0, len(e.Reminders)),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	for _, r := range e.Reminders {
		out.Reminders = append(out.Reminders, storage.Reminder{OffsetMinutes: r.OffsetMinutesBefore, Channel: string(r.Channel)})
	}
	return out
}

func fromStorageEvent(in storage.Event, loc *time.Location) (model.Event, error) {
	out := model.Event{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		StartTime:   in.StartAt.In(loc),
		EndTime:     in.EndAt.In(loc),
		AllDay:      in.AllDay,
		Type:        model.EventType(in.Type),
		Priority:    model.Priority(in.Priority),
		Recurrence:  in.Recurrence,
		Tags:        append([]string{}, in.Tags...),
		Reminders:   make([]model.Reminder, 0, len(in.Reminders)),
		CreatedAt:   in.CreatedAt.In(loc),
		UpdatedAt:   in.UpdatedAt.In(loc),
	}
	for _, r := range in.Reminders {
		out.Reminders = append(out.Reminders, model.Reminder{OffsetMinutesBefore: r.OffsetMinutes, Channel: model.Channel(r.Channel)})
	}
	if err := out.Validate(); err != nil {
		return model.Event{}, fmt.Errorf("stored event %s: %w", in.ID, err)
	}
	return out, nil
}

func toStorageAnalysis(a productivity.Analysis) (storage.Analysis, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return storage.Analysis{}, fmt.Errorf("encode analysis: %w", err)
	}
	return storage.Analysis{
		ID:          a.ID,
		Period:      string(a.Period),
		StartAt:     a.StartDate,
		EndAt:       a.EndDate,
		Payload:     string(payload),
		GeneratedAt: a.GeneratedAt,
	}, nil
}

func fromStorageAnalysis(in storage.Analysis) (productivity.Analysis, error) {
	var out productivity.Analysis
	if err := json.Unmarshal([]byte(in.Payload), &out); err != nil {
		return productivity.Analysis{}, fmt.Errorf("decode analysis %s: %w", in.ID, err)
	}
	return out, nil
}

func toStorageReschedule(rec reschedule.Applied) storage.Reschedule {
	return storage.Reschedule{
		SuggestionID: rec.SuggestionID,
		EventID:      rec.EventID,
		FromStart:    rec.From.Start,
		FromEnd:      rec.From.End,
		ToStart:      rec.To.Start,
		ToEnd:        rec.To.End,
		AppliedAt:    rec.AppliedAt,
	}
}

func fromStorageReschedule(in storage.Reschedule, loc *time.Location) reschedule.Applied {
	return reschedule.Applied{
		SuggestionID: in.SuggestionID,
		EventID:      in.EventID,
		From:         model.TimeSlot{Start: in.FromStart.In(loc), End: in.FromEnd.In(loc)},
		To:           model.TimeSlot{Start: in.ToStart.In(loc), End: in.ToEnd.In(loc)},
		AppliedAt:    in.AppliedAt.In(loc),
	}
}

// Load restores events, reports and the reschedule log from the store.
func (s *Service) Load(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.store.ListEvents(ctx, storage.EventListFilter{})
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	var loadErrs []error
	for _, row := range rows {
		e, err := fromStorageEvent(row, s.repo.Location())
		if err == nil {
			err = s.repo.Restore(e)
		}
		if err != nil {
			loadErrs = append(loadErrs, err)
			s.log.Error().Err(err).Str("event_id", row.ID).Msg("skipping stored event")
		}
	}

	analyses, err := s.store.ListAnalyses(ctx, storage.AnalysisListFilter{})
	if err != nil {
		return fmt.Errorf("load analyses: %w", err)
	}
	for _, row := range analyses {
		a, err := fromStorageAnalysis(row)
		if err != nil {
			loadErrs = append(loadErrs, err)
			continue
		}
		s.agg.Record(a)
	}

	applied, err := s.store.ListReschedules(ctx)
	if err != nil {
		return fmt.Errorf("load reschedules: %w", err)
	}
	for _, row := range applied {
		s.gen.RecordApplied(fromStorageReschedule(row, s.repo.Location()))
	}

	s.log.Info().Int("events", s.repo.Len()).Int("analyses", len(analyses)).Int("reschedules", len(applied)).Msg("state loaded")
	return errors.Join(loadErrs...)
}
