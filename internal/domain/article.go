package domain

// RemovedTitle is the sentinel NewsAPI places on articles pulled by the publisher.
const RemovedTitle = "[Removed]"

type Article struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	SourceName  string `json:"sourceName,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// Valid reports whether the article carries the fields required for enrichment.
func (a Article) Valid() bool {
	return a.Title != "" && a.URL != "" && a.Title != RemovedTitle
}

// EnrichedArticle decorates an Article with a summary and a relevance score
// in [0, 1]. Derived per request, never stored outside the feed cache.
type EnrichedArticle struct {
	Article
	Summary        string  `json:"summary"`
	RelevanceScore float64 `json:"relevanceScore"`
}
