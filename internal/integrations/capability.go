package integrations

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sandeepkv93/slotd/internal/export"
	"github.com/sandeepkv93/slotd/internal/model"
)

var (
	ErrNotConnected      = errors.New("integrations: not connected")
	ErrUnsupported       = errors.New("integrations: operation not supported")
	ErrUnknownCapability = errors.New("integrations: unknown capability")
	ErrDuplicate         = errors.New("integrations: capability already registered")
)

// Capability is an external collaborator such as a calendar provider or a
// chat webhook. Results never feed back into scheduling beyond the events
// they carry.
type Capability interface {
	Name() string
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Sync(ctx context.Context, req SyncRequest) (SyncResult, error)
	Send(ctx context.Context, msg Message) error
}

type SyncRequest struct {
	Events []model.Event
}

// SyncResult reports what was pushed and what the remote side offered back.
type SyncResult struct {
	Pushed int
	Pulled []export.Imported
}

type Message struct {
	Channel model.Channel
	Subject string
	Body    string
}

type Registry struct {
	mu    sync.RWMutex
	items map[string]Capability
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Capability)}
}

func (r *Registry) Register(c Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := c.Name()
	if _, ok := r.items[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	r.items[name] = c
	return nil
}

func (r *Registry) Get(name string) (Capability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCapability, name)
	}
	return c, nil
}

// Names lists registered capabilities alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.items))
	for name := range r.items {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
