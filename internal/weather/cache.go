package weather

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultInterval is how long a fetched summary stays fresh.
const DefaultInterval = 600 * time.Second

// Fetcher produces a summary for a location.
type Fetcher func(ctx context.Context, location string) (string, error)

// Cache maps raw location strings to their last fetched summary. Concurrent
// lookups of the same place share one fetch while other places proceed in
// parallel. Stale entries stay until the next fetch replaces them; failed
// fetches leave nothing behind.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]Entry
	group    singleflight.Group
	interval time.Duration
	now      func() time.Time
}

// NewCache creates a cache with the given freshness interval. If now is nil,
// time.Now is used.
func NewCache(interval time.Duration, now func() time.Time) *Cache {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries:  make(map[string]Entry),
		interval: interval,
		now:      now,
	}
}

// Interval returns the freshness window.
func (c *Cache) Interval() time.Duration {
	return c.interval
}

func (c *Cache) fresh(location string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[location]
	if !ok || c.now().Sub(e.FetchedAt) >= c.interval {
		return Entry{}, false
	}
	return e, true
}

// GetOrFetch returns the cached summary for location while it is fresh and
// otherwise calls fetch. Only successful results are stored.
//
// The shared fetch is detached from the cancellation of any single caller;
// each caller stops waiting when its own ctx is done and gets ctx.Err().
func (c *Cache) GetOrFetch(ctx context.Context, location string, fetch Fetcher) (string, error) {
	if e, ok := c.fresh(location); ok {
		return e.Summary, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(location, func() (interface{}, error) {
		// Another flight may have finished between the check above and now.
		if e, ok := c.fresh(location); ok {
			return e.Summary, nil
		}

		summary, err := fetch(fetchCtx, location)
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		c.entries[location] = Entry{
			Location:  location,
			Summary:   summary,
			FetchedAt: c.now(),
		}
		c.mu.Unlock()
		return summary, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Peek returns the cached entry for location, fresh or not.
func (c *Cache) Peek(location string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[location]
	return e, ok
}

// Fresh reports whether location has an entry inside the freshness window.
func (c *Cache) Fresh(location string) bool {
	_, ok := c.fresh(location)
	return ok
}

// Len returns the number of cached locations.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
