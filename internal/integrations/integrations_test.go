package integrations

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/slotd/internal/export"
	"github.com/sandeepkv93/slotd/internal/model"
)

func sampleEvent() model.Event {
	start := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	return model.Draft{Title: "Sync me", StartTime: start, EndTime: start.Add(time.Hour)}.
		WithDefaults().Materialize("evt-1", start.Add(-time.Hour))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(NewFake("b")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(NewFake("a")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(NewFake("a")); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if got := reg.Names(); len(got) != 2 || got[0] != "a" {
		t.Fatalf("unexpected names: %v", got)
	}
	if _, err := reg.Get("slack"); !errors.Is(err, ErrUnknownCapability) {
		t.Fatalf("expected ErrUnknownCapability, got %v", err)
	}
}

func TestFakeLifecycle(t *testing.T) {
	ctx := context.Background()
	f := NewFake("calendar")
	f.Pull = []export.Imported{{UID: "remote-1", Draft: model.Draft{Title: "from remote"}}}

	if _, err := f.Sync(ctx, SyncRequest{}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if err := f.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	res, err := f.Sync(ctx, SyncRequest{Events: []model.Event{sampleEvent()}})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Pushed != 1 || len(res.Pulled) != 1 || f.Pushed() != 1 {
		t.Fatalf("unexpected sync result: %+v", res)
	}
	if err := f.Send(ctx, Message{Channel: model.ChannelChat, Body: "hi"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := f.Disconnect(ctx); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	want := []string{"sync", "connect", "sync", "send", "disconnect"}
	got := f.Calls()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected calls: %v", got)
	}
	if len(f.Sent()) != 1 || f.Connected() {
		t.Fatal("unexpected fake state")
	}
}

func TestFakeScriptedFailures(t *testing.T) {
	boom := errors.New("boom")
	f := NewFake("flaky")
	f.ConnectErr = boom
	if err := f.Connect(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected scripted error, got %v", err)
	}
	f.ConnectErr = nil
	f.SendErr = boom
	_ = f.Connect(context.Background())
	if err := f.Send(context.Background(), Message{}); !errors.Is(err, boom) {
		t.Fatalf("expected scripted send error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Sync(ctx, SyncRequest{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestICSFileSync(t *testing.T) {
	dir := t.TempDir()
	push := filepath.Join(dir, "out", "calendar.ics")
	pull := filepath.Join(dir, "inbox.ics")
	c := NewICSFile(push, pull, time.UTC)

	if _, err := c.Sync(context.Background(), SyncRequest{}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	res, err := c.Sync(context.Background(), SyncRequest{Events: []model.Event{sampleEvent()}})
	if err != nil {
		t.Fatalf("sync without inbox: %v", err)
	}
	if res.Pushed != 1 || len(res.Pulled) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	data, err := os.ReadFile(push)
	if err != nil || !strings.Contains(string(data), "UID:evt-1") {
		t.Fatalf("expected pushed calendar, err=%v", err)
	}

	if err := os.WriteFile(pull, data, 0o600); err != nil {
		t.Fatalf("write inbox: %v", err)
	}
	res, err = c.Sync(context.Background(), SyncRequest{})
	if err != nil {
		t.Fatalf("sync with inbox: %v", err)
	}
	if len(res.Pulled) != 1 || res.Pulled[0].UID != "evt-1" {
		t.Fatalf("unexpected pulled items: %+v", res.Pulled)
	}

	if err := c.Send(context.Background(), Message{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
