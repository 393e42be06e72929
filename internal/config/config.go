package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/slotd/internal/slots"
)

// Workday bounds the candidate slot starts.
type Workday struct {
	FirstSlotHour int `yaml:"first_slot_hour"`
	LastSlotHour  int `yaml:"last_slot_hour"`
	StepMinutes   int `yaml:"step_minutes"`
}

// Config is the process configuration. Timezone is an IANA name or "Local".
// LogFile receives JSON logs from the TUI; empty discards them.
type Config struct {
	DatabasePath string  `yaml:"database_path"`
	Timezone     string  `yaml:"timezone"`
	LogLevel     string  `yaml:"log_level"`
	LogFile      string  `yaml:"log_file"`
	Workday      Workday `yaml:"workday"`

	RescheduleSearchDays   int `yaml:"reschedule_search_days"`
	RescheduleAlternatives int `yaml:"reschedule_alternatives"`
	ReminderBuffer         int `yaml:"reminder_buffer"`

	ICSSyncPath string `yaml:"ics_sync_path"`
}

func Default() Config {
	return Config{
		DatabasePath: "slotd.db",
		Timezone:     "Local",
		LogLevel:     "info",
		Workday: Workday{
			FirstSlotHour: 9,
			LastSlotHour:  17,
			StepMinutes:   60,
		},
		RescheduleSearchDays:   7,
		RescheduleAlternatives: 2,
		ReminderBuffer:         64,
	}
}

// Load reads a YAML file over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// FromEnv applies SLOTD_* overrides on top of base.
func FromEnv(base Config) Config {
	cfg := base
	if v, ok := getEnvString("SLOTD_DB"); ok {
		cfg.DatabasePath = v
	}
	if v, ok := getEnvString("SLOTD_TZ"); ok {
		cfg.Timezone = v
	}
	if v, ok := getEnvString("SLOTD_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := getEnvString("SLOTD_LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := getEnvInt("SLOTD_FIRST_SLOT_HOUR"); ok && v >= 0 {
		cfg.Workday.FirstSlotHour = v
	}
	if v, ok := getEnvInt("SLOTD_LAST_SLOT_HOUR"); ok && v >= 0 {
		cfg.Workday.LastSlotHour = v
	}
	if v, ok := getEnvInt("SLOTD_SLOT_STEP_MINUTES"); ok && v > 0 {
		cfg.Workday.StepMinutes = v
	}
	if v, ok := getEnvInt("SLOTD_RESCHEDULE_SEARCH_DAYS"); ok && v > 0 {
		cfg.RescheduleSearchDays = v
	}
	if v, ok := getEnvInt("SLOTD_REMINDER_BUFFER"); ok && v > 0 {
		cfg.ReminderBuffer = v
	}
	if v, ok := getEnvString("SLOTD_ICS_SYNC_PATH"); ok {
		cfg.ICSSyncPath = v
	}
	return cfg
}

// Normalize fills zero values left by partial files.
func (c *Config) Normalize() {
	def := Default()
	if c.DatabasePath == "" {
		c.DatabasePath = def.DatabasePath
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Workday.StepMinutes <= 0 {
		c.Workday.StepMinutes = def.Workday.StepMinutes
	}
	if c.Workday.FirstSlotHour == 0 && c.Workday.LastSlotHour == 0 {
		c.Workday.FirstSlotHour = def.Workday.FirstSlotHour
		c.Workday.LastSlotHour = def.Workday.LastSlotHour
	}
	if c.RescheduleSearchDays <= 0 {
		c.RescheduleSearchDays = def.RescheduleSearchDays
	}
	if c.RescheduleAlternatives <= 0 {
		c.RescheduleAlternatives = def.RescheduleAlternatives
	}
	if c.ReminderBuffer <= 0 {
		c.ReminderBuffer = def.ReminderBuffer
	}
}

func (c Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if err := c.SlotWindow().Validate(); err != nil {
		return err
	}
	return nil
}

func (c Config) Location() (*time.Location, error) {
	switch strings.TrimSpace(c.Timezone) {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) SlotWindow() slots.Window {
	return slots.Window{
		FirstHour: c.Workday.FirstSlotHour,
		LastHour:  c.Workday.LastSlotHour,
		Step:      time.Duration(c.Workday.StepMinutes) * time.Minute,
	}
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw, raw != ""
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
