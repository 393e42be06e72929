package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: not found")

type Repository interface {
	// SaveEvent inserts or replaces an event together with its tags and reminders.
	SaveEvent(ctx context.Context, in Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context, filter EventListFilter) ([]Event, error)

	CreateAnalysis(ctx context.Context, in Analysis) error
	ListAnalyses(ctx context.Context, filter AnalysisListFilter) ([]Analysis, error)

	CreateReschedule(ctx context.Context, in Reschedule) error
	ListReschedules(ctx context.Context) ([]Reschedule, error)

	Close() error
}
