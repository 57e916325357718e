package session

import (
	"context"
	"sync"
)

// RevocationListener is invoked when the credential token is removed by a
// sibling browsing context. The notification carries no payload; the
// precipitating fact is simply "token gone".
type RevocationListener func()

// RevocationChannel propagates token removal across browsing contexts that
// share one persisted credential store. Delivery is at-least-once per
// removal and unordered relative to other store mutations in the removing
// context. The removing context is not re-signalled.
type RevocationChannel interface {
	// Subscribe registers a listener for the given context. The returned
	// cancel func unregisters it; it is safe to call more than once.
	Subscribe(contextID string, fn RevocationListener) (cancel func(), err error)
	// Publish notifies every subscribed context except the origin.
	Publish(ctx context.Context, originContextID string) error
}

type hubListener struct {
	contextID string
	fn        RevocationListener
}

// Hub is the in-process revocation channel, shared by guard instances whose
// browsing contexts live in one process. It also serves as the test fake.
type Hub struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]hubListener
}

// NewHub creates an empty in-process revocation channel.
func NewHub() *Hub {
	return &Hub{listeners: make(map[int]hubListener)}
}

// Subscribe registers fn for delivery of removals originating elsewhere.
func (h *Hub) Subscribe(contextID string, fn RevocationListener) (func(), error) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = hubListener{contextID: contextID, fn: fn}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}, nil
}

// Publish invokes every listener registered by a context other than origin.
func (h *Hub) Publish(_ context.Context, originContextID string) error {
	h.mu.Lock()
	targets := make([]RevocationListener, 0, len(h.listeners))
	for _, l := range h.listeners {
		if l.contextID == originContextID {
			continue
		}
		targets = append(targets, l.fn)
	}
	h.mu.Unlock()

	for _, fn := range targets {
		fn()
	}
	return nil
}
