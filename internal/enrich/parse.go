package enrich

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/curately/curately/internal/domain"
	"github.com/curately/curately/internal/heuristic"
	"github.com/curately/curately/pkg/utils"
)

// The provider contract is one numbered line per input item, in order.
// Parsing is item-scoped on purpose: a missing or malformed line falls back
// for that item alone, not the whole batch.

var numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// parseSummaries extracts the trailing text of each numbered line. Items with
// no matching line get the fallback summary.
func parseSummaries(content string, batch []domain.Article) []string {
	lines := nonEmptyLines(content)

	summaries := make([]string, len(batch))
	for i, a := range batch {
		line, ok := findNumbered(lines, i+1)
		if !ok {
			summaries[i] = heuristic.Summary(a)
			continue
		}
		text := stripIndex(line, i+1)
		if text == "" {
			summaries[i] = heuristic.Summary(a)
			continue
		}
		summaries[i] = text
	}
	return summaries
}

// parseScores extracts the first numeric token after each line's index,
// clamped to [0, 1]. Items with no matching line or no parseable number fall
// back to the heuristic score.
func parseScores(content string, batch []domain.Article, profile domain.PreferenceProfile) []float64 {
	lines := nonEmptyLines(content)

	scores := make([]float64, len(batch))
	for i, a := range batch {
		line, ok := findNumbered(lines, i+1)
		if !ok {
			scores[i] = heuristic.Relevance(a, profile)
			continue
		}
		raw := numberRe.FindString(stripIndex(line, i+1))
		score, err := strconv.ParseFloat(raw, 64)
		if raw == "" || err != nil {
			scores[i] = heuristic.Relevance(a, profile)
			continue
		}
		scores[i] = utils.Clamp(score, 0, 1)
	}
	return scores
}

func nonEmptyLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// findNumbered locates the response line for 1-based item n, accepting both
// "n." and "n:" prefixes.
func findNumbered(lines []string, n int) (string, bool) {
	prefix := strconv.Itoa(n)
	for _, line := range lines {
		if strings.HasPrefix(line, prefix+".") || strings.HasPrefix(line, prefix+":") {
			return line, true
		}
	}
	return "", false
}

func stripIndex(line string, n int) string {
	return strings.TrimSpace(line[len(strconv.Itoa(n))+1:])
}
