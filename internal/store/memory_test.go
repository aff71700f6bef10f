package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/virtual-mascot/internal/chat"
	"github.com/i474232898/virtual-mascot/internal/events"
)

func event(payload string) chat.DisplayEvent {
	return chat.DisplayEvent{Kind: chat.EventNewMessage, Payload: payload, At: time.Now()}
}

func TestSinceReturnsNewerEvents(t *testing.T) {
	s := NewMemoryStore(10, 0)
	_, err := s.Latest()
	assert.ErrorIs(t, err, ErrNotFound)

	s.Save(event("a"))
	s.Save(event("b"))
	s.Save(event("c"))

	got := s.Since(1)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Payload)
	assert.Equal(t, uint64(3), got[1].Cursor)
	assert.Empty(t, s.Since(3))

	latest, err := s.Latest()
	require.NoError(t, err)
	assert.Equal(t, "c", latest.Payload)
}

func TestTrimsToHalfWhenFull(t *testing.T) {
	s := NewMemoryStore(4, 0)
	for _, p := range []string{"1", "2", "3", "4"} {
		s.Save(event(p))
	}
	assert.Equal(t, 4, s.Len())

	s.Save(event("5"))
	assert.Equal(t, 2, s.Len())

	got := s.Since(0)
	assert.Equal(t, "4", got[0].Payload)
	assert.Equal(t, "5", got[1].Payload)
	assert.Equal(t, uint64(5), s.Cursor(), "cursors are never reused")
}

func TestAgeRetention(t *testing.T) {
	s := NewMemoryStore(0, time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Save(chat.DisplayEvent{Payload: "old", At: now.Add(-2 * time.Minute)})
	s.Save(chat.DisplayEvent{Payload: "new", At: now})

	got := s.Since(0)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Payload)
}

func TestSubscribedToBus(t *testing.T) {
	bus := events.NewBus()
	s := NewMemoryStore(100, 0)
	unsubscribe := bus.Subscribe(s.Save)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(event("x"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, s.Len())

	unsubscribe()
	bus.Publish(event("y"))
	assert.Equal(t, 20, s.Len())
}
