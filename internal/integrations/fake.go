package integrations

import (
	"context"
	"sync"

	"github.com/sandeepkv93/slotd/internal/export"
)

// Fake is a scripted capability for tests and demos. Each call returns the
// configured error, if any, and is recorded in order.
type Fake struct {
	FakeName   string
	ConnectErr error
	SyncErr    error
	SendErr    error
	Pull       []export.Imported

	mu        sync.Mutex
	connected bool
	calls     []string
	pushed    int
	sent      []Message
}

func NewFake(name string) *Fake {
	return &Fake{FakeName: name}
}

func (f *Fake) Name() string { return f.FakeName }

func (f *Fake) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "connect")
	if f.ConnectErr != nil {
		return f.ConnectErr
	}
	f.connected = true
	return nil
}

func (f *Fake) Disconnect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "disconnect")
	f.connected = false
	return nil
}

func (f *Fake) Sync(ctx context.Context, req SyncRequest) (SyncResult, error) {
	if err := ctx.Err(); err != nil {
		return SyncResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "sync")
	if !f.connected {
		return SyncResult{}, ErrNotConnected
	}
	if f.SyncErr != nil {
		return SyncResult{}, f.SyncErr
	}
	f.pushed += len(req.Events)
	return SyncResult{Pushed: len(req.Events), Pulled: append([]export.Imported(nil), f.Pull...)}, nil
}

func (f *Fake) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "send")
	if !f.connected {
		return ErrNotConnected
	}
	if f.SendErr != nil {
		return f.SendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Fake) Sent() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.sent...)
}

func (f *Fake) Pushed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushed
}

func (f *Fake) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}
