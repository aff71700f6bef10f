// Package store buffers display events for clients that poll instead of
// subscribing in-process.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/virtual-mascot/internal/chat"
)

var (
	// ErrNotFound is returned when no event has been buffered yet.
	ErrNotFound = errors.New("no events buffered")
)

// Record is a buffered event tagged with its position in the inbox.
type Record struct {
	Cursor uint64 `json:"cursor"`
	chat.DisplayEvent
}

// MemoryStore is a concurrency-safe in-memory event inbox. Cursors grow
// monotonically and are never reused, so a client can resume with Since.
type MemoryStore struct {
	mu sync.RWMutex

	records []Record
	cursor  uint64

	// retention configuration
	maxEntries int           // when exceeded, the oldest half is dropped
	maxAge     time.Duration // optional max age of events
	now        func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxEntries is <= 0, it is treated as unlimited.
func NewMemoryStore(maxEntries int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Save appends an event and enforces retention. It satisfies events.Handler
// and is meant to be subscribed to the bus.
func (s *MemoryStore) Save(event chat.DisplayEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursor++
	s.records = append(s.records, Record{Cursor: s.cursor, DisplayEvent: event})

	// Enforce retention by count: keep the newest half, like a chat window
	// that scrolls away its older lines.
	if s.maxEntries > 0 && len(s.records) > s.maxEntries {
		keep := s.maxEntries / 2
		if keep < 1 {
			keep = 1
		}
		s.records = append([]Record(nil), s.records[len(s.records)-keep:]...)
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.records); i++ {
			if !s.records[i].At.Before(cutoff) {
				break
			}
		}
		if i > 0 && i < len(s.records) {
			s.records = s.records[i:]
		}
	}
}

// Latest returns the most recent event.
func (s *MemoryStore) Latest() (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return Record{}, ErrNotFound
	}
	return s.records[len(s.records)-1], nil
}

// Since returns buffered events with a cursor greater than after, oldest
// first. Events already trimmed are silently skipped.
func (s *MemoryStore) Since(after uint64) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Record
	for _, r := range s.records {
		if r.Cursor > after {
			result = append(result, r)
		}
	}
	return result
}

// Cursor returns the cursor of the newest event ever saved.
func (s *MemoryStore) Cursor() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

// Len returns the number of buffered events.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
