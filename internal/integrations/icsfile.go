package integrations

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sandeepkv93/slotd/internal/export"
)

// ICSFile syncs through files: the snapshot is written to PushPath and
// drafts are read from PullPath when it exists.
type ICSFile struct {
	PushPath string
	PullPath string
	Location *time.Location

	mu        sync.Mutex
	connected bool
}

func NewICSFile(pushPath, pullPath string, loc *time.Location) *ICSFile {
	return &ICSFile{PushPath: pushPath, PullPath: pullPath, Location: loc}
}

func (c *ICSFile) Name() string { return "ics-file" }

func (c *ICSFile) Connect(context.Context) error {
	if c.PushPath == "" {
		return errors.New("integrations: ics-file push path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(c.PushPath), 0o755); err != nil {
		return fmt.Errorf("prepare sync dir: %w", err)
	}
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	return nil
}

func (c *ICSFile) Disconnect(context.Context) error {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	return nil
}

func (c *ICSFile) Sync(ctx context.Context, req SyncRequest) (SyncResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return SyncResult{}, ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return SyncResult{}, err
	}

	var buf bytes.Buffer
	if err := export.WriteICS(&buf, req.Events); err != nil {
		return SyncResult{}, err
	}
	if err := writeAtomic(c.PushPath, buf.Bytes()); err != nil {
		return SyncResult{}, err
	}
	out := SyncResult{Pushed: len(req.Events)}

	if c.PullPath == "" {
		return out, nil
	}
	f, err := os.Open(c.PullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		return out, fmt.Errorf("open pull file: %w", err)
	}
	defer f.Close()
	items, _, err := export.ReadICS(f, c.Location)
	if err != nil && !errors.Is(err, export.ErrEmptyCalendar) {
		return out, err
	}
	out.Pulled = items
	return out, nil
}

func (c *ICSFile) Send(context.Context, Message) error {
	return fmt.Errorf("%w: ics-file cannot send messages", ErrUnsupported)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".slotd-sync-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
