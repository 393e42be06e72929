package storage

import "time"

// Event is the row shape of an event with its tag and reminder children.
type Event struct {
	ID          string
	Title       string
	Description string
	Location    string
	StartAt     time.Time
	EndAt       time.Time
	AllDay      bool
	Type        string
	Priority    string
	Recurrence  string
	Tags        []string
	Reminders   []Reminder
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Reminder struct {
	OffsetMinutes int
	Channel       string
}

// Analysis stores a generated report. Payload is the JSON-encoded report.
type Analysis struct {
	ID          string
	Period      string
	StartAt     time.Time
	EndAt       time.Time
	Payload     string
	GeneratedAt time.Time
}

type Reschedule struct {
	SuggestionID string
	EventID      string
	FromStart    time.Time
	FromEnd      time.Time
	ToStart      time.Time
	ToEnd        time.Time
	AppliedAt    time.Time
}

type EventListFilter struct {
	From   *time.Time
	To     *time.Time
	Tag    string
	Limit  int
	Offset int
}

type AnalysisListFilter struct {
	Period string
	Limit  int
	Offset int
}
