package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/curately/curately/internal/ai"
	"github.com/curately/curately/internal/domain"
	"github.com/curately/curately/internal/heuristic"
)

// ParsePreferences converts free-text preferences into a structured profile
// via the provider, with the same retry discipline as batch calls and the
// keyword heuristic as fallback. Never fails: degraded parsing is valid
// output.
func (c *Client) ParsePreferences(ctx context.Context, raw string) domain.PreferenceProfile {
	if c.limits.Exhausted() {
		return heuristic.ParsePreferencesWith(c.rules, raw)
	}

	content, err := c.call(ctx, ai.Request{
		System:      preferencesSystemPrompt,
		User:        fmt.Sprintf(preferencesUserPrompt, raw),
		Temperature: 0.3,
		MaxTokens:   500,
	})
	if err != nil {
		slog.Warn("Preference parsing call failed, falling back", "error", err)
		return heuristic.ParsePreferencesWith(c.rules, raw)
	}

	var parsed struct {
		Topics     []string `json:"topics"`
		Categories []string `json:"categories"`
		Timeframe  string   `json:"timeframe"`
	}
	if err := json.Unmarshal([]byte(stripJSONFences(content)), &parsed); err != nil {
		slog.Warn("Preference parsing returned malformed JSON, falling back", "error", err)
		return heuristic.ParsePreferencesWith(c.rules, raw)
	}

	profile := domain.PreferenceProfile{
		Topics:     parsed.Topics,
		Categories: parsed.Categories,
		Timeframe:  parsed.Timeframe,
		RawInput:   raw,
		ParsedAt:   time.Now().UTC(),
	}
	if profile.Timeframe == "" {
		profile.Timeframe = heuristic.DefaultTimeframe
	}
	return profile
}

// stripJSONFences removes markdown code fences models like to wrap JSON in.
func stripJSONFences(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	return strings.TrimSpace(content)
}
