package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i474232898/virtual-mascot/internal/chat"
)

func TestPublishOrder(t *testing.T) {
	bus := NewBus()
	var calls []string

	bus.Subscribe(func(e chat.DisplayEvent) { calls = append(calls, "first:"+e.Payload) })
	bus.Subscribe(func(e chat.DisplayEvent) { calls = append(calls, "second:"+e.Payload) })

	bus.Publish(chat.DisplayEvent{Kind: chat.EventNewMessage, Payload: "a"})
	bus.Publish(chat.DisplayEvent{Kind: chat.EventError, Payload: "b"})

	assert.Equal(t, []string{"first:a", "second:a", "first:b", "second:b"}, calls)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	var a, b int

	unsubA := bus.Subscribe(func(chat.DisplayEvent) { a++ })
	bus.Subscribe(func(chat.DisplayEvent) { b++ })

	bus.Publish(chat.DisplayEvent{})
	unsubA()
	unsubA()
	bus.Publish(chat.DisplayEvent{})

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
	assert.Equal(t, 1, bus.Len())
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus()
	var second int

	var unsub func()
	unsub = bus.Subscribe(func(chat.DisplayEvent) { unsub() })
	bus.Subscribe(func(chat.DisplayEvent) { second++ })

	bus.Publish(chat.DisplayEvent{})
	bus.Publish(chat.DisplayEvent{})

	assert.Equal(t, 2, second)
	assert.Equal(t, 1, bus.Len())
}

func TestPublishWithoutSubscribers(t *testing.T) {
	assert.NotPanics(t, func() { NewBus().Publish(chat.DisplayEvent{}) })
}
