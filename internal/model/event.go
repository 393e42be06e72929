package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidType     = errors.New("model: invalid event type")
	ErrInvalidPriority = errors.New("model: invalid event priority")
	ErrInvalidInterval = errors.New("model: end_time must be after start_time")
	ErrTitleRequired   = errors.New("model: event title is required")
)

type EventType string

const (
	EventTypeEvent    EventType = "event"
	EventTypeTask     EventType = "task"
	EventTypeMeeting  EventType = "meeting"
	EventTypeReminder EventType = "reminder"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventTypeEvent, EventTypeTask, EventTypeMeeting, EventTypeReminder:
		return true
	default:
		return false
	}
}

// EventTypes lists every event type in declaration order.
func EventTypes() []EventType {
	return []EventType{EventTypeEvent, EventTypeTask, EventTypeMeeting, EventTypeReminder}
}

func ParseEventType(raw string) (EventType, error) {
	t := EventType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, raw)
	}
	return t, nil
}

// Priority is an urgency tier. The declaration order is the urgency order.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Rank returns 0 for low through 3 for urgent, and -1 for unknown values.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	default:
		return -1
	}
}

// AtLeast reports whether p is as urgent as other.
func (p Priority) AtLeast(other Priority) bool {
	return p.Rank() >= other.Rank()
}

func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
	}
	return p, nil
}

// Event is a time-boxed calendar record. The field set is kept stable so
// JSON, CSV and ICS exports stay compatible.
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	AllDay      bool       `json:"all_day"`
	Type        EventType  `json:"type"`
	Priority    Priority   `json:"priority"`
	Tags        []string   `json:"tags"`
	Reminders   []Reminder `json:"reminders"`
	Recurrence  string     `json:"recurrence,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Interval returns the event's half-open time range.
func (e Event) Interval() TimeSlot {
	return TimeSlot{Start: e.StartTime, End: e.EndTime}
}

// Duration is zero for all-day events.
func (e Event) Duration() time.Duration {
	if e.AllDay {
		return 0
	}
	return e.EndTime.Sub(e.StartTime)
}

// Clone returns a copy that shares no slices with e.
func (e Event) Clone() Event {
	out := e
	out.Tags = append([]string{}, e.Tags...)
	out.Reminders = append([]Reminder{}, e.Reminders...)
	return out
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("model: event id is required")
	}
	if err := validateFields(e.Title, e.StartTime, e.EndTime, e.AllDay, e.Type, e.Priority, e.Reminders, e.Recurrence); err != nil {
		return err
	}
	if e.CreatedAt.IsZero() {
		return errors.New("model: event created_at is required")
	}
	if e.UpdatedAt.Before(e.CreatedAt) {
		return errors.New("model: event updated_at must not precede created_at")
	}
	return nil
}

// Draft carries the caller-supplied fields of an event that does not exist yet.
type Draft struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	AllDay      bool       `json:"all_day"`
	Type        EventType  `json:"type,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Reminders   []Reminder `json:"reminders,omitempty"`
	Recurrence  string     `json:"recurrence,omitempty"`
}

// WithDefaults fills the structural defaults: type event, priority medium,
// empty tag and reminder lists, default reminder channel.
func (d Draft) WithDefaults() Draft {
	out := d
	out.Title = strings.TrimSpace(d.Title)
	if out.Type == "" {
		out.Type = EventTypeEvent
	}
	if out.Priority == "" {
		out.Priority = PriorityMedium
	}
	out.Tags = append([]string{}, d.Tags...)
	out.Reminders = make([]Reminder, 0, len(d.Reminders))
	for _, r := range d.Reminders {
		out.Reminders = append(out.Reminders, r.WithDefaults())
	}
	out.Recurrence = NormalizeRecurrence(d.Recurrence)
	return out
}

func (d Draft) Validate() error {
	return validateFields(d.Title, d.StartTime, d.EndTime, d.AllDay, d.Type, d.Priority, d.Reminders, d.Recurrence)
}

// Materialize turns a defaulted draft into an event with the given identity.
func (d Draft) Materialize(id string, now time.Time) Event {
	return Event{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Location:    d.Location,
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		AllDay:      d.AllDay,
		Type:        d.Type,
		Priority:    d.Priority,
		Tags:        append([]string{}, d.Tags...),
		Reminders:   append([]Reminder{}, d.Reminders...),
		Recurrence:  d.Recurrence,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Description *string
	Location    *string
	StartTime   *time.Time
	EndTime     *time.Time
	AllDay      *bool
	Type        *EventType
	Priority    *Priority
	Tags        *[]string
	Reminders   *[]Reminder
	Recurrence  *string
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Location == nil &&
		p.StartTime == nil && p.EndTime == nil && p.AllDay == nil &&
		p.Type == nil && p.Priority == nil && p.Tags == nil &&
		p.Reminders == nil && p.Recurrence == nil
}

// Apply merges p onto e and returns the result; e itself is not modified.
func (p Patch) Apply(e Event) Event {
	out := e.Clone()
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Location != nil {
		out.Location = *p.Location
	}
	if p.StartTime != nil {
		out.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		out.EndTime = *p.EndTime
	}
	if p.AllDay != nil {
		out.AllDay = *p.AllDay
	}
	if p.Type != nil {
		out.Type = *p.Type
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.Tags != nil {
		out.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.Reminders != nil {
		out.Reminders = make([]Reminder, 0, len(*p.Reminders))
		for _, r := range *p.Reminders {
			out.Reminders = append(out.Reminders, r.WithDefaults())
		}
	}
	if p.Recurrence != nil {
		out.Recurrence = NormalizeRecurrence(*p.Recurrence)
	}
	return out
}

// Reschedule builds a patch that moves an event onto slot.
func Reschedule(slot TimeSlot) Patch {
	start, end := slot.Start, slot.End
	return Patch{StartTime: &start, EndTime: &end}
}

func validateFields(title string, start, end time.Time, allDay bool, typ EventType, prio Priority, reminders []Reminder, recurrence string) error {
	if strings.TrimSpace(title) == "" {
		return ErrTitleRequired
	}
	if start.IsZero() {
		return errors.New("model: event start_time is required")
	}
	if !allDay && !end.After(start) {
		return ErrInvalidInterval
	}
	if !typ.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, typ)
	}
	if !prio.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, prio)
	}
	for i, r := range reminders {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("reminder %d: %w", i, err)
		}
	}
	return ValidateRecurrence(recurrence)
}
