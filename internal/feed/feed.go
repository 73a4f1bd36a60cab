// Package feed drives one personalized-news request end to end: rate-limit
// check, cache lookup, article fetch, batch enrichment, merge and sort.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/curately/curately/internal/cache"
	"github.com/curately/curately/internal/domain"
	"github.com/curately/curately/internal/ratelimit"
)

// MaxArticles caps the candidate set per request to bound provider cost.
const MaxArticles = 20

const (
	msgRateLimited   = "Daily AI limit reached. Try again tomorrow."
	msgNoPreferences = "No preferences set. Please set your preferences first."
	msgNoArticles    = "No articles found. Try adjusting your preferences."
)

type Status string

const (
	StatusServed      Status = "served"
	StatusEmpty       Status = "empty"
	StatusRateLimited Status = "rate_limited"
)

// Result is the single terminal shape every request resolves to, except for
// fatal errors which propagate as plain errors.
type Result struct {
	Status    Status
	Message   string
	Articles  []domain.EnrichedArticle
	FromCache bool
	// RetryAfter is how long until the daily quota clears; only set on
	// RateLimited results.
	RetryAfter time.Duration
}

// PreferenceSource reads a user's stored preference profile.
type PreferenceSource interface {
	GetPreferences(ctx context.Context, userID string) (domain.PreferenceProfile, error)
}

// ArticleSource is the upstream news listing. An empty result is a normal
// outcome, not an error.
type ArticleSource interface {
	Fetch(ctx context.Context, profile domain.PreferenceProfile) ([]domain.Article, error)
}

// Enricher produces parallel ordered summary and score lists for articles.
type Enricher interface {
	Summarize(ctx context.Context, articles []domain.Article) []string
	Score(ctx context.Context, articles []domain.Article, profile domain.PreferenceProfile) []float64
}

type Service struct {
	prefs  PreferenceSource
	news   ArticleSource
	enrich Enricher
	cache  *cache.Cache
	limits *ratelimit.Tracker
}

func NewService(prefs PreferenceSource, news ArticleSource, enrich Enricher, c *cache.Cache, limits *ratelimit.Tracker) *Service {
	return &Service{
		prefs:  prefs,
		news:   news,
		enrich: enrich,
		cache:  c,
		limits: limits,
	}
}

// PersonalizedNews resolves one request to a terminal Result. Only failures
// to read the preference store are returned as errors; provider trouble
// degrades to fallback scoring or a RateLimited result instead.
func (s *Service) PersonalizedNews(ctx context.Context, userID string) (Result, error) {
	if s.limits.Exhausted() {
		return s.rateLimited(), nil
	}

	if articles, ok := s.cache.Get(userID); ok {
		slog.Debug("Serving feed from cache", "user", userID, "count", len(articles))
		return Result{Status: StatusServed, Articles: articles, FromCache: true}, nil
	}

	profile, err := s.prefs.GetPreferences(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("load preferences: %w", err)
	}
	if profile.IsZero() {
		return Result{Status: StatusEmpty, Message: msgNoPreferences}, nil
	}

	fetched, err := s.news.Fetch(ctx, profile)
	if err != nil {
		slog.Warn("News source failed, serving empty feed", "user", userID, "error", err)
		return Result{Status: StatusEmpty, Message: msgNoArticles}, nil
	}

	articles := filterValid(fetched)
	if len(articles) == 0 {
		return Result{Status: StatusEmpty, Message: msgNoArticles}, nil
	}
	if len(articles) > MaxArticles {
		articles = articles[:MaxArticles]
	}

	summaries := s.enrich.Summarize(ctx, articles)
	scores := s.enrich.Score(ctx, articles, profile)

	// Daily exhaustion mid-run discards the partial work for this request;
	// the next one gets the fast RateLimited path above.
	if s.limits.Exhausted() {
		return s.rateLimited(), nil
	}

	merged := merge(articles, summaries, scores)
	s.cache.Put(userID, merged)

	return Result{Status: StatusServed, Articles: merged}, nil
}

func (s *Service) rateLimited() Result {
	res := Result{Status: StatusRateLimited, Message: msgRateLimited}
	if d, ok := s.limits.RetryAfter(); ok && d > 0 {
		res.RetryAfter = d
	}
	return res
}

func filterValid(articles []domain.Article) []domain.Article {
	var valid []domain.Article
	for _, a := range articles {
		if a.Valid() {
			valid = append(valid, a)
		}
	}
	return valid
}

// merge zips articles with their summaries and scores and sorts descending
// by score. The sort is stable: ties keep the original fetch order.
func merge(articles []domain.Article, summaries []string, scores []float64) []domain.EnrichedArticle {
	merged := make([]domain.EnrichedArticle, len(articles))
	for i, a := range articles {
		merged[i] = domain.EnrichedArticle{
			Article:        a,
			Summary:        summaries[i],
			RelevanceScore: scores[i],
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].RelevanceScore > merged[j].RelevanceScore
	})

	return merged
}
