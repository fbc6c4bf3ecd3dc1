package tasks

import (
	"sync"
	"time"

	"thirdcoast.systems/duckflix/pkg/queue"
)

// EventType distinguishes task lifecycle events.
type EventType int

const (
	EventStarted EventType = iota
	EventCompleted
	EventError
)

var allEventTypes = []EventType{EventStarted, EventCompleted, EventError}

func (t EventType) String() string {
	switch t {
	case EventStarted:
		return "started"
	case EventCompleted:
		return "completed"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a task lifecycle event. Err is only set for EventError.
type Event struct {
	Type   EventType
	TaskID string
	Err    error
	At     time.Time
}

// Subscription receives the events it was registered for, in the order the
// handler emitted them. Delivery is buffered per subscription so a slow
// consumer never stalls the handler and never loses events.
type Subscription struct {
	handler *Handler
	out     chan Event
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once

	mu    sync.Mutex
	kinds map[EventType]struct{}
	buf   *queue.Queue[Event]
}

// Subscribe registers for the given event types, or all of them when none
// are given.
func (h *Handler) Subscribe(kinds ...EventType) *Subscription {
	if len(kinds) == 0 {
		kinds = allEventTypes
	}
	s := &Subscription{
		handler: h,
		out:     make(chan Event),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		kinds:   make(map[EventType]struct{}, len(kinds)),
		buf:     queue.New[Event](),
	}
	for _, k := range kinds {
		s.kinds[k] = struct{}{}
	}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	go s.pump()
	return s
}

// Unsubscribe stops delivery to s and closes its channel.
func (h *Handler) Unsubscribe(s *Subscription) {
	s.Close()
}

// ClearSubscriptions stops delivery of the given event types to every
// subscription. Subscriptions left with no event types are closed. With no
// arguments every subscription is closed.
func (h *Handler) ClearSubscriptions(kinds ...EventType) {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		if len(kinds) == 0 || s.drop(kinds) {
			s.Close()
		}
	}
}

// Events returns the delivery channel. It is closed after Close.
func (s *Subscription) Events() <-chan Event {
	return s.out
}

// Close unsubscribes. Undelivered events are discarded.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.handler.mu.Lock()
		delete(s.handler.subs, s)
		s.handler.mu.Unlock()
		close(s.done)
	})
}

// drop removes kinds from the filter and reports whether nothing is left.
func (s *Subscription) drop(kinds []EventType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range kinds {
		delete(s.kinds, k)
	}
	return len(s.kinds) == 0
}

func (s *Subscription) deliver(ev Event) {
	s.mu.Lock()
	if _, ok := s.kinds[ev.Type]; !ok {
		s.mu.Unlock()
		return
	}
	s.buf.Add(ev)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		ev, ok := s.buf.Remove()
		s.mu.Unlock()

		if !ok {
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}

		select {
		case s.out <- ev:
		case <-s.done:
			return
		}
	}
}

func (h *Handler) publishLocked(ev Event) {
	ev.At = time.Now()
	for s := range h.subs {
		s.deliver(ev)
	}
}
