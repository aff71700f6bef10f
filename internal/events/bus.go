// Package events fans display events out to in-process subscribers.
package events

import (
	"sync"

	"github.com/i474232898/virtual-mascot/internal/chat"
)

// Handler consumes one display event.
type Handler func(chat.DisplayEvent)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is an in-memory publish/subscribe channel. Handlers run synchronously on
// the publishing goroutine, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers handler and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (b *Bus) Subscribe(handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, handler: handler})

	return func() { b.unsubscribe(id) }
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			// Copy so that a Publish iterating the old slice is unaffected.
			next := make([]subscription, 0, len(b.subs)-1)
			next = append(next, b.subs[:i]...)
			b.subs = append(next, b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers event to every current subscriber. The subscriber list is
// snapshotted first, so handlers may subscribe or unsubscribe while running.
func (b *Bus) Publish(event chat.DisplayEvent) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(event)
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

var _ chat.Publisher = (*Bus)(nil)
