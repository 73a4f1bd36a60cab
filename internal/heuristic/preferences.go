package heuristic

import (
	"fmt"
	"io"
	"strings"

	"github.com/curately/curately/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultTimeframe is used whenever the input names no recency window.
	DefaultTimeframe = "7 days"
	maxTopics        = 5
)

// CategoryRule maps trigger keywords onto one news category. Rules are
// ordered so parsing stays deterministic.
type CategoryRule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// DefaultCategoryRules mirrors the categories NewsAPI understands.
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{Category: "technology", Keywords: []string{"tech", "technology", "software", "ai", "programming", "coding"}},
		{Category: "business", Keywords: []string{"business", "finance", "economy", "market", "startup"}},
		{Category: "science", Keywords: []string{"science", "research", "space", "physics"}},
		{Category: "health", Keywords: []string{"health", "medical", "fitness", "wellness"}},
		{Category: "sports", Keywords: []string{"sports", "football", "basketball", "soccer"}},
		{Category: "entertainment", Keywords: []string{"entertainment", "movie", "music", "celebrity"}},
	}
}

// LoadCategoryRules reads an ordered rule list from YAML, allowing the
// keyword tables to be tuned without a rebuild.
func LoadCategoryRules(r io.Reader) ([]CategoryRule, error) {
	var rules []CategoryRule
	if err := yaml.NewDecoder(r).Decode(&rules); err != nil {
		return nil, fmt.Errorf("decode category rules: %w", err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("category rules are empty")
	}
	return rules, nil
}

// ParsePreferences is the degraded-mode preference parser: categories from
// the default keyword tables, topics from the first few long words.
func ParsePreferences(raw string) domain.PreferenceProfile {
	return ParsePreferencesWith(DefaultCategoryRules(), raw)
}

// ParsePreferencesWith is ParsePreferences with a caller-supplied rule set.
func ParsePreferencesWith(rules []CategoryRule, raw string) domain.PreferenceProfile {
	text := strings.ToLower(raw)

	var categories []string
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				categories = append(categories, rule.Category)
				break
			}
		}
	}
	if len(categories) == 0 {
		categories = []string{"general"}
	}

	var topics []string
	for _, word := range strings.Fields(text) {
		if len(word) > minKeywordLen {
			topics = append(topics, word)
			if len(topics) == maxTopics {
				break
			}
		}
	}

	return domain.PreferenceProfile{
		Topics:     topics,
		Categories: categories,
		Timeframe:  DefaultTimeframe,
		RawInput:   raw,
	}
}
