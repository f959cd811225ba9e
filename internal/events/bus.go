// Package events implements explicit, typed event emission.
//
// Services publish domain event records after a state change commits;
// external collaborators (notification dispatch, CRM sync, email senders)
// subscribe by event name. This replaces implicit on-save callbacks: a
// component's side effects are visible at its call sites.
package events

import (
	"sync"

	"github.com/agrilink/offer-engine/internal/pkg/logger"
)

// Event is any typed domain event record.
type Event interface {
	Name() string
}

// Publisher is the emission side of the bus. Services depend on this
// interface only.
type Publisher interface {
	Publish(evt Event)
}

// Handler consumes a single event. Handlers must not block for long;
// dispatch is asynchronous but ordered per Publish call.
type Handler func(evt Event)

// Bus is an in-process publish/subscribe dispatcher. Publish never blocks
// the caller: events are handed to a background dispatcher, matching the
// fire-and-forget semantics callers expect from side-effect notification.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	queue    chan Event
	done     chan struct{}
	wg       sync.WaitGroup
	closed   bool
}

// NewBus creates a started bus with the given queue depth.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	b := &Bus{
		handlers: make(map[string][]Handler),
		queue:    make(chan Event, buffer),
		done:     make(chan struct{}),
	}
	b.wg.Add(1)
	go b.dispatch()
	return b
}

// Subscribe registers a handler for events with the given name.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	b.handlers[name] = append(b.handlers[name], h)
	b.mu.Unlock()
}

// Publish enqueues an event for asynchronous dispatch. If the queue is
// full the event is dropped with a warning rather than stalling request
// handling; subscribers are advisory, not transactional.
func (b *Bus) Publish(evt Event) {
	select {
	case b.queue <- evt:
	default:
		logger.Warn("event queue full, dropping event", "event", evt.Name())
	}
}

// Close stops the dispatcher after draining queued events.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()
	close(b.done)
	b.wg.Wait()
}

func (b *Bus) dispatch() {
	defer b.wg.Done()
	for {
		select {
		case evt := <-b.queue:
			b.deliver(evt)
		case <-b.done:
			// Drain what is already queued, then stop.
			for {
				select {
				case evt := <-b.queue:
					b.deliver(evt)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) deliver(evt Event) {
	b.mu.RLock()
	hs := b.handlers[evt.Name()]
	b.mu.RUnlock()
	for _, h := range hs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("event handler panic", "event", evt.Name(), "panic", r)
				}
			}()
			h(evt)
		}()
	}
}

// Nop is a Publisher that discards every event. Used in tests and in
// wiring paths that have no subscribers.
type Nop struct{}

func (Nop) Publish(Event) {}
