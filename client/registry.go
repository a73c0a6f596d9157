package client

import (
	"sync"
)

// Handler receives the raw body of a delivered frame. Handlers run on the
// read loop and must not block.
type Handler func(body []byte)

// Registry dispatches delivered frames to interested consumers.
// Registrations are stored by token, not by value: the same handler
// registered twice runs twice. Callers own the returned unsubscribe and a
// forgotten call is a leak: after a remount the stale handler keeps firing.
type Registry struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string]map[uint64]Handler
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]map[uint64]Handler),
	}
}

// Subscribe registers a handler for the event type and returns its
// unsubscribe. Unsubscribe is idempotent.
func (r *Registry) Subscribe(eventType string, h Handler) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.handlers[eventType]
	if !ok {
		m = make(map[uint64]Handler)
		r.handlers[eventType] = m
	}
	r.nextID++
	id := r.nextID
	m[id] = h

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.handlers[eventType], id)
	}
}

// Dispatch invokes every handler registered for the event type, once per
// registration.
func (r *Registry) Dispatch(eventType string, body []byte) {
	r.mu.RLock()
	handlers := make([]Handler, 0, len(r.handlers[eventType]))
	for _, h := range r.handlers[eventType] {
		handlers = append(handlers, h)
	}
	r.mu.RUnlock()

	for _, h := range handlers {
		h(body)
	}
}
