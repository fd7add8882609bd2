package hub

import (
	"sync"

	"github.com/hubsync/hubsync/internal/metrics"
)

// Handler receives one lifecycle event. Delivery is synchronous: by the time
// the triggering hub call returns, every handler subscribed before emission
// has run. Handlers must be cheap and must not call back into the hub.
type Handler func(Event)

type registration struct {
	id int
	h  Handler
}

// Bus is the hub-owned publish/subscribe channel for lifecycle events. There
// is no ambient global instance; collaborators receive the bus by reference.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[EventType][]registration
	all      []registration
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[EventType][]registration)}
}

// Subscribe attaches a handler to exactly one event type. Multiple handlers
// per type fan out; invocation order is unspecified. The returned func
// detaches the handler; it is safe to ignore for handlers that live as long
// as the bus.
func (b *Bus) Subscribe(t EventType, h Handler) (unsubscribe func()) {
	if h == nil {
		return func() {}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.handlers[t] = append(b.handlers[t], registration{id: id, h: h})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.handlers[t] = removeRegistration(b.handlers[t], id)
	}
}

// SubscribeAll attaches a handler to every event type.
func (b *Bus) SubscribeAll(h Handler) (unsubscribe func()) {
	if h == nil {
		return func() {}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.all = append(b.all, registration{id: id, h: h})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.all = removeRegistration(b.all, id)
	}
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	typed := make([]registration, len(b.handlers[e.Type]))
	copy(typed, b.handlers[e.Type])
	all := make([]registration, len(b.all))
	copy(all, b.all)
	b.mu.RUnlock()

	metrics.EventsEmittedTotal.WithLabelValues(string(e.Type)).Inc()
	for _, r := range typed {
		r.h(e)
	}
	for _, r := range all {
		r.h(e)
	}
}

func removeRegistration(regs []registration, id int) []registration {
	for i, r := range regs {
		if r.id == id {
			return append(regs[:i], regs[i+1:]...)
		}
	}
	return regs
}
