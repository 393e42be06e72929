package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/teambition/rrule-go"
)

var ErrInvalidRecurrence = errors.New("model: invalid recurrence rule")

// NormalizeRecurrence trims an RRULE, drops an "RRULE:" prefix and
// upper-cases it. Recurrence is stored as text and never expanded.
func NormalizeRecurrence(rule string) string {
	out := strings.ToUpper(strings.TrimSpace(rule))
	out = strings.TrimPrefix(out, "RRULE:")
	return strings.TrimSpace(out)
}

// ValidateRecurrence accepts an empty rule (non-recurring) or any RFC 5545
// RRULE value that rrule-go can parse.
func ValidateRecurrence(rule string) error {
	normalized := NormalizeRecurrence(rule)
	if normalized == "" {
		return nil
	}
	if _, err := rrule.StrToROption(normalized); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidRecurrence, rule, err)
	}
	return nil
}

// RecurrenceFrequency returns the FREQ part of a stored rule, or "" when the
// event does not recur.
func RecurrenceFrequency(rule string) string {
	for _, part := range strings.Split(NormalizeRecurrence(rule), ";") {
		key, value, ok := strings.Cut(part, "=")
		if ok && key == "FREQ" {
			return value
		}
	}
	return ""
}
