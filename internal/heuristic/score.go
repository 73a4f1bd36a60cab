package heuristic

import (
	"strings"

	"github.com/curately/curately/internal/domain"
	"github.com/curately/curately/pkg/utils"
)

// NoSummary is returned when an article has no description to fall back on.
const NoSummary = "Summary not available."

const (
	baseScore     = 0.3
	topicWeight   = 0.15
	keywordWeight = 0.1
	// minKeywordLen filters stopwords out of free-text matching.
	minKeywordLen = 3
)

// Summary is the degraded-mode summary: the article's own description, or a
// fixed sentinel. Deterministic, never fails.
func Summary(a domain.Article) string {
	if a.Description != "" {
		return a.Description
	}
	return NoSummary
}

// Relevance computes a keyword-overlap relevance score in [0, 1] for the
// degraded mode. Identical inputs always produce the identical score.
func Relevance(a domain.Article, p domain.PreferenceProfile) float64 {
	text := strings.ToLower(a.Title + " " + a.Description)

	score := baseScore
	for _, topic := range p.Topics {
		if topic != "" && strings.Contains(text, strings.ToLower(topic)) {
			score += topicWeight
		}
	}

	for _, word := range strings.Fields(strings.ToLower(p.RawInput)) {
		if len(word) > minKeywordLen && strings.Contains(text, word) {
			score += keywordWeight
		}
	}

	return utils.Clamp(score, 0, 1)
}
