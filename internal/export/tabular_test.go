package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
)

func TestJSONRoundTrip(t *testing.T) {
	in := sampleEvents()
	var buf bytes.Buffer
	if err := WriteJSON(&buf, in); err != nil {
		t.Fatalf("write json: %v", err)
	}
	out, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d events, got %d", len(in), len(out))
	}
	if out[0].ID != "evt-1" || !out[0].StartTime.Equal(in[0].StartTime) || out[0].Reminders[0].Channel != in[0].Reminders[0].Channel {
		t.Fatalf("unexpected first event: %+v", out[0])
	}
	if !out[1].AllDay {
		t.Fatal("expected all-day flag to survive")
	}
}

func TestReadJSONRejectsInvalidRecords(t *testing.T) {
	body := `{"version":1,"events":[{"id":"x","title":"","start_time":"2026-02-10T09:00:00Z","end_time":"2026-02-10T10:00:00Z","type":"event","priority":"medium","created_at":"2026-02-10T08:00:00Z","updated_at":"2026-02-10T08:00:00Z"}]}`
	if _, err := ReadJSON(strings.NewReader(body)); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, sampleEvents()); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 || len(rows[0]) != len(csvHeader) {
		t.Fatalf("unexpected csv shape: %d rows", len(rows))
	}
	if rows[1][9] != "work;design" || rows[1][10] != "15:email;60:notification" {
		t.Fatalf("unexpected list columns: %v", rows[1])
	}
	if rows[2][6] != "true" {
		t.Fatalf("expected all-day column, got %v", rows[2])
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"ICS": FormatICS, ".json": FormatJSON, "csv": FormatCSV, "ical": FormatICS} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("%s: got %q err=%v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatal("expected unsupported format error")
	}
}
