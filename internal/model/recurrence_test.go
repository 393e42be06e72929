package model

import (
	"errors"
	"testing"
)

func TestNormalizeRecurrence(t *testing.T) {
	got := NormalizeRecurrence("  rrule:freq=weekly;byday=mo,we ")
	if got != "FREQ=WEEKLY;BYDAY=MO,WE" {
		t.Fatalf("unexpected normalized rule: %q", got)
	}
}

func TestValidateRecurrence(t *testing.T) {
	cases := []struct {
		rule string
		ok   bool
	}{
		{rule: "", ok: true},
		{rule: "FREQ=DAILY;INTERVAL=2", ok: true},
		{rule: "RRULE:FREQ=MONTHLY;BYMONTHDAY=-1", ok: true},
		{rule: "FREQ=SOMETIMES", ok: false},
		{rule: "not a rule", ok: false},
	}
	for _, tc := range cases {
		err := ValidateRecurrence(tc.rule)
		if tc.ok && err != nil {
			t.Fatalf("rule %q: unexpected error %v", tc.rule, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidRecurrence) {
			t.Fatalf("rule %q: expected ErrInvalidRecurrence, got %v", tc.rule, err)
		}
	}
}

func TestRecurrenceFrequency(t *testing.T) {
	if got := RecurrenceFrequency("freq=weekly;interval=2"); got != "WEEKLY" {
		t.Fatalf("expected WEEKLY, got %q", got)
	}
	if got := RecurrenceFrequency(""); got != "" {
		t.Fatalf("expected empty frequency, got %q", got)
	}
}
