// Package bus provides a minimal in-process publish/subscribe channel so views
// can react to pushed domain events without polling.
package bus

import (
	"sync"

	"github.com/discograf/discograf/notify"
)

// Handler consumes a published event
type Handler func(event notify.Event)

// Bus fans published events out to all current subscribers. Handlers run
// sequentially in subscription order on the publisher's goroutine, matching
// the strictly sequential dispatch the notification channel guarantees.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
	order    []int
}

// New creates an empty Bus
func New() *Bus {
	return &Bus{
		handlers: make(map[int]Handler),
	}
}

// Subscribe registers a handler and returns its unsubscribe function.
// Unsubscribing twice is a no-op.
func (b *Bus) Subscribe(handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.order = append(b.order, id)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if _, ok := b.handlers[id]; !ok {
			return
		}
		delete(b.handlers, id)

		for i, v := range b.order {
			if v == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to every subscriber in subscription order
func (b *Bus) Publish(event notify.Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, id := range b.order {
		if h, ok := b.handlers[id]; ok {
			handlers = append(handlers, h)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// Len returns the number of active subscribers
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
