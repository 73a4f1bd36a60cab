package heuristic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePreferences(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		wantTopics     []string
		wantCategories []string
	}{
		{
			name:           "maps keywords to categories",
			input:          "I want AI and startup news",
			wantTopics:     []string{"want", "startup", "news"},
			wantCategories: []string{"technology", "business"},
		},
		{
			name:           "defaults to general when nothing matches",
			input:          "stuff",
			wantTopics:     []string{"stuff"},
			wantCategories: []string{"general"},
		},
		{
			name:           "caps topics at five long words",
			input:          "quantum computing research breakthroughs applications implications future",
			wantTopics:     []string{"quantum", "computing", "research", "breakthroughs", "applications"},
			wantCategories: []string{"science"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePreferences(tt.input)

			assert.Equal(t, tt.wantTopics, got.Topics)
			assert.Equal(t, tt.wantCategories, got.Categories)
			assert.Equal(t, DefaultTimeframe, got.Timeframe)
			assert.Equal(t, tt.input, got.RawInput)
		})
	}
}

func TestLoadCategoryRules(t *testing.T) {
	// Arrange
	reader := strings.NewReader(`
- category: gaming
  keywords: [game, esports]
- category: climate
  keywords: [climate, energy]
`)

	// Act
	rules, err := LoadCategoryRules(reader)

	// Assert
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "gaming", rules[0].Category)
	assert.Equal(t, []string{"climate", "energy"}, rules[1].Keywords)

	profile := ParsePreferencesWith(rules, "esports and climate coverage please")
	assert.Equal(t, []string{"gaming", "climate"}, profile.Categories)
}

func TestLoadCategoryRules_Empty(t *testing.T) {
	_, err := LoadCategoryRules(strings.NewReader(`[]`))

	assert.Error(t, err)
}
