// Package tasks runs submitted units of work with a bounded number of
// concurrent workers and reports their lifecycle through subscriptions.
package tasks

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"thirdcoast.systems/duckflix/pkg/queue"
)

// Runnable is a unit of work. The context is the handler's base context; it
// is only cancelled when the owning process shuts down.
type Runnable func(ctx context.Context) error

// Status of a task as seen by the handler.
type Status int

const (
	StatusUnknown Status = iota
	StatusPending
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Config configures a Handler.
type Config struct {
	// MaxConcurrent is the number of worker slots. Values below 1 mean 1.
	MaxConcurrent int
}

// Stats is a point-in-time snapshot of the handler.
type Stats struct {
	Running int
	Pending int
}

// Busy reports whether any task is running.
func (s Stats) Busy() bool {
	return s.Running > 0
}

// PanicError is reported when a Runnable panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

type task struct {
	id  string
	run Runnable
}

// Handler is a FIFO task scheduler with at most MaxConcurrent tasks in flight.
// Submission never blocks on execution. There is no cancellation and no
// priority; tasks start in submission order but may finish in any order.
type Handler struct {
	ctx context.Context
	max int

	mu      sync.Mutex
	pending *queue.Queue[*task]
	queued  map[string]int
	running map[string]int
	active  int
	idle    chan struct{}
	subs    map[*Subscription]struct{}
}

// New creates a handler whose tasks receive ctx.
func New(ctx context.Context, cfg Config) *Handler {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	idle := make(chan struct{})
	close(idle)
	return &Handler{
		ctx:     ctx,
		max:     maxConcurrent,
		pending: queue.New[*task](),
		queued:  make(map[string]int),
		running: make(map[string]int),
		idle:    idle,
		subs:    make(map[*Subscription]struct{}),
	}
}

// MaxConcurrent returns the number of worker slots.
func (h *Handler) MaxConcurrent() int {
	return h.max
}

// Handle enqueues run under a generated id and returns the id.
func (h *Handler) Handle(run Runnable) string {
	return h.HandleWithID("", run)
}

// HandleWithID enqueues run under id. An empty id is replaced by a random UUID.
func (h *Handler) HandleWithID(id string, run Runnable) string {
	if id == "" {
		id = uuid.NewString()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.isIdleLocked() {
		h.idle = make(chan struct{})
	}
	h.pending.Add(&task{id: id, run: run})
	h.queued[id]++
	h.dispatchLocked()
	return id
}

// Check returns the status of the task with the given id.
func (h *Handler) Check(id string) Status {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running[id] > 0 {
		return StatusRunning
	}
	if h.queued[id] > 0 {
		return StatusPending
	}
	return StatusUnknown
}

// Position returns 0 for a running task, its 1-based place in the queue for a
// pending task, and -1 when the id is unknown.
func (h *Handler) Position(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running[id] > 0 {
		return 0
	}
	pos := h.pending.FindPosition(func(t *task) bool { return t.id == id })
	if pos < 0 {
		return -1
	}
	return pos + 1
}

// Stats returns the current number of running and pending tasks.
func (h *Handler) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{Running: h.active, Pending: h.pending.Len()}
}

// Wait blocks until nothing is running or pending, or ctx is done.
func (h *Handler) Wait(ctx context.Context) error {
	for {
		h.mu.Lock()
		idle := h.idle
		h.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle:
		}

		// New work may have arrived between the close and our wake-up.
		h.mu.Lock()
		done := h.isIdleLocked()
		h.mu.Unlock()
		if done {
			return nil
		}
	}
}

func (h *Handler) isIdleLocked() bool {
	return h.active == 0 && h.pending.IsEmpty()
}

func (h *Handler) dispatchLocked() {
	for h.active < h.max {
		t, ok := h.pending.Remove()
		if !ok {
			return
		}
		h.dec(h.queued, t.id)
		h.running[t.id]++
		h.active++
		h.publishLocked(Event{Type: EventStarted, TaskID: t.id})
		go h.execute(t)
	}
}

func (h *Handler) execute(t *task) {
	err := h.invoke(t)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.dec(h.running, t.id)
	h.active--
	if err != nil {
		h.publishLocked(Event{Type: EventError, TaskID: t.id, Err: err})
	} else {
		h.publishLocked(Event{Type: EventCompleted, TaskID: t.id})
	}

	h.dispatchLocked()
	if h.isIdleLocked() {
		select {
		case <-h.idle:
		default:
			close(h.idle)
		}
	}
}

func (h *Handler) invoke(t *task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return t.run(h.ctx)
}

func (h *Handler) dec(m map[string]int, id string) {
	if m[id] <= 1 {
		delete(m, id)
		return
	}
	m[id]--
}
