package cache

import (
	"testing"
	"time"

	"github.com/curately/curately/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enriched(title string) []domain.EnrichedArticle {
	return []domain.EnrichedArticle{
		{
			Article:        domain.Article{Title: title, URL: "https://news.example/" + title},
			Summary:        "summary",
			RelevanceScore: 0.7,
		},
	}
}

func TestCache_RoundTrip(t *testing.T) {
	c := New()
	want := enriched("a")

	c.Put("user-1", want)
	got, ok := c.Get("user-1")

	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCache_Invalidate(t *testing.T) {
	c := New()
	c.Put("user-1", enriched("a"))
	c.Put("user-2", enriched("b"))

	c.Invalidate("user-1")

	_, ok := c.Get("user-1")
	assert.False(t, ok)

	_, ok = c.Get("user-2")
	assert.True(t, ok, "invalidation is scoped to one user")
}

func TestCache_LazyExpiry(t *testing.T) {
	// Arrange
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := New(WithClock(func() time.Time { return now }))
	c.Put("user-1", enriched("a"))

	// still fresh just before the TTL
	now = now.Add(DefaultTTL - time.Second)
	_, ok := c.Get("user-1")
	require.True(t, ok)

	// Act: cross the TTL boundary
	now = now.Add(2 * time.Second)

	// Assert
	_, ok = c.Get("user-1")
	assert.False(t, ok)
}

func TestCache_PutOverwrites(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := New(WithClock(func() time.Time { return now }))
	c.Put("user-1", enriched("old"))

	now = now.Add(45 * time.Minute)
	c.Put("user-1", enriched("new"))

	// the overwrite refreshed storedAt, so the entry survives the original TTL
	now = now.Add(30 * time.Minute)
	got, ok := c.Get("user-1")
	require.True(t, ok)
	assert.Equal(t, "new", got[0].Title)
}
