package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidChannel = errors.New("model: invalid reminder channel")

type Channel string

const (
	ChannelNotification Channel = "notification"
	ChannelEmail        Channel = "email"
	ChannelSMS          Channel = "sms"
	ChannelChat         Channel = "chat"
)

func (c Channel) IsValid() bool {
	switch c {
	case ChannelNotification, ChannelEmail, ChannelSMS, ChannelChat:
		return true
	default:
		return false
	}
}

func ParseChannel(raw string) (Channel, error) {
	c := Channel(strings.ToLower(strings.TrimSpace(raw)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidChannel, raw)
	}
	return c, nil
}

// Reminder asks for a nudge some minutes before an event starts. The
// scheduling core stores reminders but never acts on them.
type Reminder struct {
	OffsetMinutesBefore int     `json:"offset_minutes_before"`
	Channel             Channel `json:"channel"`
}

func (r Reminder) WithDefaults() Reminder {
	if r.Channel == "" {
		r.Channel = ChannelNotification
	}
	return r
}

func (r Reminder) Validate() error {
	if r.OffsetMinutesBefore < 0 {
		return fmt.Errorf("model: reminder offset must not be negative: %d", r.OffsetMinutesBefore)
	}
	if !r.Channel.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidChannel, r.Channel)
	}
	return nil
}

// TriggerAt is the moment the reminder fires for an event starting at start.
func (r Reminder) TriggerAt(start time.Time) time.Time {
	return start.Add(-time.Duration(r.OffsetMinutesBefore) * time.Minute)
}
