package model

import (
	"errors"
	"testing"
	"time"
)

func TestReminderValidateSuccess(t *testing.T) {
	rem := Reminder{OffsetMinutesBefore: 15, Channel: ChannelEmail}
	if err := rem.Validate(); err != nil {
		t.Fatalf("expected valid reminder, got error: %v", err)
	}
}

func TestReminderValidateInvalidChannel(t *testing.T) {
	rem := Reminder{OffsetMinutesBefore: 5, Channel: Channel("pager")}
	err := rem.Validate()
	if !errors.Is(err, ErrInvalidChannel) {
		t.Fatalf("expected ErrInvalidChannel, got: %v", err)
	}
}

func TestReminderValidateNegativeOffset(t *testing.T) {
	rem := Reminder{OffsetMinutesBefore: -1, Channel: ChannelSMS}
	if err := rem.Validate(); err == nil {
		t.Fatal("expected error for negative offset")
	}
}

func TestReminderDefaultsAndTrigger(t *testing.T) {
	rem := Reminder{OffsetMinutesBefore: 30}.WithDefaults()
	if rem.Channel != ChannelNotification {
		t.Fatalf("expected default channel, got %q", rem.Channel)
	}
	start := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	if got := rem.TriggerAt(start); got.Format("15:04") != "08:30" {
		t.Fatalf("unexpected trigger time: %s", got.Format(time.RFC3339))
	}
}

func TestParseChannel(t *testing.T) {
	c, err := ParseChannel(" Chat ")
	if err != nil || c != ChannelChat {
		t.Fatalf("expected chat channel, got %q err=%v", c, err)
	}
	if _, err := ParseChannel("fax"); !errors.Is(err, ErrInvalidChannel) {
		t.Fatalf("expected ErrInvalidChannel, got %v", err)
	}
}
