package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Workday.FirstSlotHour != 9 || cfg.Workday.LastSlotHour != 17 || cfg.Workday.StepMinutes != 60 {
		t.Fatalf("unexpected workday defaults: %+v", cfg.Workday)
	}
	if cfg.RescheduleSearchDays != 7 || cfg.ReminderBuffer != 64 {
		t.Fatalf("unexpected runtime defaults: %+v", cfg)
	}
	w := cfg.SlotWindow()
	if w.Step != time.Hour || w.FirstHour != 9 || w.LastHour != 17 {
		t.Fatalf("unexpected slot window: %+v", w)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slotd.yaml")
	body := "timezone: UTC\nworkday:\n  step_minutes: 30\nics_sync_path: out.ics\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Timezone != "UTC" || cfg.ICSSyncPath != "out.ics" {
		t.Fatalf("unexpected file values: %+v", cfg)
	}
	if cfg.Workday.StepMinutes != 30 || cfg.Workday.FirstSlotHour != 9 || cfg.Workday.LastSlotHour != 17 {
		t.Fatalf("unexpected workday merge: %+v", cfg.Workday)
	}
	if cfg.DatabasePath != "slotd.db" {
		t.Fatalf("unexpected database default: %q", cfg.DatabasePath)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("workday: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("SLOTD_DB", "data/cal.db")
	t.Setenv("SLOTD_TZ", "Europe/Berlin")
	t.Setenv("SLOTD_LOG_LEVEL", "debug")
	t.Setenv("SLOTD_FIRST_SLOT_HOUR", "8")
	t.Setenv("SLOTD_LAST_SLOT_HOUR", "18")
	t.Setenv("SLOTD_SLOT_STEP_MINUTES", "30")
	t.Setenv("SLOTD_RESCHEDULE_SEARCH_DAYS", "3")
	t.Setenv("SLOTD_REMINDER_BUFFER", "not-a-number")
	t.Setenv("SLOTD_ICS_SYNC_PATH", "sync.ics")

	cfg := FromEnv(Default())
	if cfg.DatabasePath != "data/cal.db" || cfg.Timezone != "Europe/Berlin" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected string overrides: %+v", cfg)
	}
	if cfg.Workday != (Workday{FirstSlotHour: 8, LastSlotHour: 18, StepMinutes: 30}) {
		t.Fatalf("unexpected workday overrides: %+v", cfg.Workday)
	}
	if cfg.RescheduleSearchDays != 3 || cfg.ICSSyncPath != "sync.ics" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.ReminderBuffer != 64 {
		t.Fatalf("invalid numbers must be ignored, got %d", cfg.ReminderBuffer)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Timezone = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected timezone error")
	}
	cfg = Default()
	cfg.Workday.FirstSlotHour = 20
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected window error")
	}
}
