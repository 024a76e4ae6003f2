// Package searchcache holds ad-hoc search results for a limited time so a
// subscriber can subscribe to what they just saw without a re-fetch.
package searchcache

import (
	"context"
	"sync"
	"time"

	"github.com/amishk599/jobfeed/internal/metrics"
	"github.com/amishk599/jobfeed/internal/model"
)

// DefaultTTL is how long a search result stays available for promotion.
const DefaultTTL = 30 * time.Minute

type key struct {
	subscriber string
	keyword    string
}

// Entry is one cached search result.
type Entry struct {
	Records   []model.JobRecord
	ExpiresAt time.Time
}

// Cache maps (subscriber, keyword) to the latest search result. Expiry is
// checked against the clock on every read; Run optionally purges in the
// background so abandoned entries do not pile up.
type Cache struct {
	mu      sync.Mutex
	entries map[key]Entry
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		entries: make(map[key]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Put stores records for the pair, replacing any earlier entry and restarting
// its TTL.
func (c *Cache) Put(subscriber, keyword string, records []model.JobRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key{subscriber, keyword}] = Entry{
		Records:   append([]model.JobRecord(nil), records...),
		ExpiresAt: c.now().Add(c.ttl),
	}
	metrics.SearchCacheEntries.Set(float64(len(c.entries)))
}

// Get returns the live entry for the pair. An expired entry is removed and
// reported as absent.
func (c *Cache) Get(subscriber, keyword string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key{subscriber, keyword})
}

// Take returns the live entry and removes it.
func (c *Cache) Take(subscriber, keyword string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key{subscriber, keyword}
	e, ok := c.getLocked(k)
	if ok {
		delete(c.entries, k)
		metrics.SearchCacheEntries.Set(float64(len(c.entries)))
	}
	return e, ok
}

func (c *Cache) Delete(subscriber, keyword string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key{subscriber, keyword})
	metrics.SearchCacheEntries.Set(float64(len(c.entries)))
}

// Purge removes every expired entry and returns how many were dropped.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for k, e := range c.entries {
		if !now.Before(e.ExpiresAt) {
			delete(c.entries, k)
			n++
		}
	}
	metrics.SearchCacheEntries.Set(float64(len(c.entries)))
	return n
}

// Len returns the number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Run purges expired entries every interval until ctx is done.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Purge()
		}
	}
}

func (c *Cache) getLocked(k key) (Entry, bool) {
	e, ok := c.entries[k]
	if !ok {
		return Entry{}, false
	}
	if !c.now().Before(e.ExpiresAt) {
		delete(c.entries, k)
		metrics.SearchCacheEntries.Set(float64(len(c.entries)))
		return Entry{}, false
	}
	return e, true
}
