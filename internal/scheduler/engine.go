// Package scheduler dispatches event reminders at their trigger time.
package scheduler

import (
	"container/heap"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandeepkv93/slotd/internal/model"
)

var (
	ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")
	ErrStopped            = errors.New("scheduler: engine stopped")
)

// ReminderEvent is one armed reminder of one event.
type ReminderEvent struct {
	ID        string
	EventID   string
	Title     string
	Channel   model.Channel
	TriggerAt time.Time
}

// Triggers expands the reminders of list into dispatchable events, keeping
// only triggers strictly after now. Output is ordered by trigger time.
func Triggers(list []model.Event, now time.Time) []ReminderEvent {
	var out []ReminderEvent
	for _, e := range list {
		for i, r := range e.Reminders {
			at := r.TriggerAt(e.StartTime)
			if !at.After(now) {
				continue
			}
			out = append(out, ReminderEvent{
				ID:        fmt.Sprintf("%s/%d", e.ID, i),
				EventID:   e.ID,
				Title:     e.Title,
				Channel:   r.WithDefaults().Channel,
				TriggerAt: at,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TriggerAt.Before(out[j].TriggerAt) })
	return out
}

type reminderHeap []ReminderEvent

func (h reminderHeap) Len() int { return len(h) }

func (h reminderHeap) Less(i, j int) bool { return h[i].TriggerAt.Before(h[j].TriggerAt) }

func (h reminderHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *reminderHeap) Push(x any) { *h = append(*h, x.(ReminderEvent)) }

func (h *reminderHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Engine owns one goroutine that emits reminders on C() when they come due.
// Delivery never blocks: when the buffer is full the reminder is counted as
// dropped.
type Engine struct {
	mu      sync.Mutex
	queue   reminderHeap
	out     chan ReminderEvent
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	now     func() time.Time
	started bool
	stopped bool
	dropped atomic.Uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		out:    make(chan ReminderEvent, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		now:    time.Now,
	}
}

func (e *Engine) C() <-chan ReminderEvent {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.stopped {
		return
	}
	e.started = true
	go e.run()
}

// Stop ends the dispatch goroutine and closes C(). It is safe to call more
// than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	started := e.started
	close(e.stopCh)
	e.mu.Unlock()
	if started {
		<-e.doneCh
	}
}

func (e *Engine) Schedule(ev ReminderEvent) error {
	if ev.TriggerAt.IsZero() {
		return ErrInvalidTriggerTime
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}
	heap.Push(&e.queue, ev)
	e.poke()
	return nil
}

// Cancel removes every queued reminder of eventID and reports how many
// were removed.
func (e *Engine) Cancel(eventID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	kept := e.queue[:0]
	for _, ev := range e.queue {
		if ev.EventID != eventID {
			kept = append(kept, ev)
		}
	}
	removed := len(e.queue) - len(kept)
	e.queue = kept
	if removed > 0 {
		heap.Init(&e.queue)
		e.poke()
	}
	return removed
}

// Rearm replaces the whole queue with the future reminders of list.
func (e *Engine) Rearm(list []model.Event) (int, error) {
	triggers := Triggers(list, e.now())
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return 0, ErrStopped
	}
	e.queue = append(reminderHeap(nil), triggers...)
	heap.Init(&e.queue)
	e.poke()
	return len(triggers), nil
}

// Pending reports how many reminders are queued.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Engine) Dropped() uint64 {
	return e.dropped.Load()
}

func (e *Engine) run() {
	defer close(e.doneCh)
	defer close(e.out)

	timer := time.NewTimer(time.Hour)
	stopTimer(timer)
	defer timer.Stop()

	for {
		next, ok := e.head()
		if !ok {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		stopTimer(timer)
		timer.Reset(max(time.Until(next), 0))

		select {
		case <-timer.C:
			for _, ev := range e.due(e.now()) {
				select {
				case e.out <- ev:
				default:
					e.dropped.Add(1)
				}
			}
		case <-e.wakeup:
		case <-e.stopCh:
			return
		}
	}
}

func (e *Engine) poke() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) head() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return time.Time{}, false
	}
	return e.queue[0].TriggerAt, true
}

func (e *Engine) due(now time.Time) []ReminderEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []ReminderEvent
	for len(e.queue) > 0 && !e.queue[0].TriggerAt.After(now) {
		out = append(out, heap.Pop(&e.queue).(ReminderEvent))
	}
	return out
}

func stopTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
