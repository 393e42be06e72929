package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/slotd/internal/model"
)

type Format string

const (
	FormatICS  Format = "ics"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

func ParseFormat(raw string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), ".")))
	switch f {
	case FormatICS, FormatJSON, FormatCSV:
		return f, nil
	case "ical", "ifb":
		return FormatICS, nil
	default:
		return "", fmt.Errorf("export: unsupported format %q", raw)
	}
}

// Write serializes events in the given format.
func Write(w io.Writer, format Format, events []model.Event) error {
	switch format {
	case FormatICS:
		return WriteICS(w, events)
	case FormatJSON:
		return WriteJSON(w, events)
	case FormatCSV:
		return WriteCSV(w, events)
	default:
		return fmt.Errorf("export: unsupported format %q", format)
	}
}

type jsonDocument struct {
	Version    int           `json:"version"`
	ExportedAt time.Time     `json:"exported_at"`
	Events     []model.Event `json:"events"`
}

func WriteJSON(w io.Writer, events []model.Event) error {
	doc := jsonDocument{Version: 1, ExportedAt: time.Now().UTC(), Events: events}
	if doc.Events == nil {
		doc.Events = []model.Event{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ReadJSON reads full event records written by WriteJSON. Every record is
// validated.
func ReadJSON(r io.Reader) ([]model.Event, error) {
	var doc jsonDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json export: %w", err)
	}
	for i, e := range doc.Events {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("event %d (%s): %w", i, e.ID, err)
		}
	}
	return doc.Events, nil
}

var csvHeader = []string{
	"id", "title", "description", "location", "start_time", "end_time", "all_day",
	"type", "priority", "tags", "reminders", "recurrence", "created_at", "updated_at",
}

// WriteCSV writes one row per event. Tags are joined with ';' and reminders
// rendered as offset:channel pairs.
func WriteCSV(w io.Writer, events []model.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range events {
		reminders := make([]string, 0, len(e.Reminders))
		for _, r := range e.Reminders {
			reminders = append(reminders, fmt.Sprintf("%d:%s", r.OffsetMinutesBefore, r.Channel))
		}
		row := []string{
			e.ID,
			e.Title,
			e.Description,
			e.Location,
			e.StartTime.Format(time.RFC3339),
			e.EndTime.Format(time.RFC3339),
			strconv.FormatBool(e.AllDay),
			string(e.Type),
			string(e.Priority),
			strings.Join(e.Tags, ";"),
			strings.Join(reminders, ";"),
			e.Recurrence,
			e.CreatedAt.Format(time.RFC3339),
			e.UpdatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
