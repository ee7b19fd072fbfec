package event

import (
	"sync"
)

type Handler[Event any] interface {
	OnEvent(e Event)
}

// HandlerFunc is an adapter to allow the use of ordinary
// functions as Handlers.
type HandlerFunc[Event any] func(Event)

// OnEvent calls f(e).
func (f HandlerFunc[Event]) OnEvent(e Event) {
	f(e)
}

// Subscription is the handle returned by Subscribe. Cancel detaches the
// handler; it is safe to call more than once.
type Subscription struct {
	once   sync.Once
	cancel func()
}

func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

type Bus[Event any] struct {
	handlersMu sync.RWMutex
	nextID     uint64
	handlers   map[uint64]Handler[Event]
}

func NewBus[Event any]() *Bus[Event] {
	return &Bus[Event]{
		handlers: make(map[uint64]Handler[Event]),
	}
}

func (b *Bus[Event]) Subscribe(h Handler[Event]) *Subscription {
	b.handlersMu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.handlersMu.Unlock()

	return &Subscription{
		cancel: func() {
			b.handlersMu.Lock()
			delete(b.handlers, id)
			b.handlersMu.Unlock()
		},
	}
}

// Publish delivers e to every subscribed handler before returning. Handlers
// subscribed during delivery do not receive e; handlers cancelled during
// delivery may still receive it.
func (b *Bus[Event]) Publish(e Event) {
	b.handlersMu.RLock()
	// Copy handlers to prevent race conditions
	handlers := make([]Handler[Event], 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.handlersMu.RUnlock()

	// Execute handlers outside the lock
	for _, h := range handlers {
		h.OnEvent(e)
	}
}
