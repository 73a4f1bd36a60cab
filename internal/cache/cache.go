// Package cache holds the last successful enrichment result per user.
// Entries expire lazily on lookup; there is no background sweep because the
// key space is bounded by active users and entries are small.
package cache

import (
	"sync"
	"time"

	"github.com/curately/curately/internal/domain"
)

const DefaultTTL = time.Hour

type entry struct {
	articles []domain.EnrichedArticle
	storedAt time.Time
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithClock replaces the wall clock, so expiry is testable without sleeps.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

func New(opts ...Option) *Cache {
	c := &Cache{
		ttl:     DefaultTTL,
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached result for the user, treating entries at or past
// the TTL as absent.
func (c *Cache) Get(userID string) ([]domain.EnrichedArticle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[userID]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, userID)
		return nil, false
	}
	return e.articles, true
}

// Put overwrites the user's entry with a fresh timestamp.
func (c *Cache) Put(userID string, articles []domain.EnrichedArticle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[userID] = entry{articles: articles, storedAt: c.now()}
}

// Invalidate removes the user's entry. Called on every preference change so
// stale personalization is never served.
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, userID)
}
