package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/curately/curately/internal/ai"
	"github.com/curately/curately/internal/domain"
	"github.com/curately/curately/internal/heuristic"
	"github.com/curately/curately/internal/ratelimit"
)

const (
	// BatchSize is the number of articles per provider call. Enriching N
	// articles costs 2*ceil(N/BatchSize) calls in the happy path.
	BatchSize = 10
	// maxRetries bounds per-minute throttle retries per batch.
	maxRetries = 2
	// interBatchDelay smooths burst load between successive batch calls.
	interBatchDelay = time.Second

	// maxDescriptionLen truncates descriptions in summarization prompts.
	maxDescriptionLen = 200

	neutralScore = 0.5
)

type Option func(*Client)

// WithSleep replaces the pacing/backoff delay, so tests run without waiting.
func WithSleep(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// WithCategoryRules overrides the keyword tables used by the degraded-mode
// preference parser.
func WithCategoryRules(rules []heuristic.CategoryRule) Option {
	return func(c *Client) {
		c.rules = rules
	}
}

// Client turns article lists into summaries and relevance scores with as few
// provider calls as possible. Batches are issued sequentially: the provider
// rate limit is a shared resource and concurrent batches would make the
// tracker's accounting unreliable.
type Client struct {
	completer ai.Completer
	limits    *ratelimit.Tracker
	sleep     func(ctx context.Context, d time.Duration)
	rules     []heuristic.CategoryRule
}

func NewClient(completer ai.Completer, limits *ratelimit.Tracker, opts ...Option) *Client {
	c := &Client{
		completer: completer,
		limits:    limits,
		sleep:     sleepCtx,
		rules:     heuristic.DefaultCategoryRules(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// Summarize returns one summary per article, in input order. Articles whose
// batch or line could not be served by the provider get the fallback summary;
// the slice always has len(articles) entries.
func (c *Client) Summarize(ctx context.Context, articles []domain.Article) []string {
	summaries := make([]string, 0, len(articles))

	for start := 0; start < len(articles); start += BatchSize {
		if start > 0 {
			c.sleep(ctx, interBatchDelay)
		}
		batch := articles[start:min(start+BatchSize, len(articles))]
		summaries = append(summaries, c.summarizeBatch(ctx, batch)...)
	}

	return summaries
}

func (c *Client) summarizeBatch(ctx context.Context, batch []domain.Article) []string {
	if c.limits.Exhausted() {
		return fallbackSummaries(batch)
	}

	var sb strings.Builder
	for i, a := range batch {
		fmt.Fprintf(&sb, "%d. %q - %s\n", i+1, a.Title, truncate(a.Description, maxDescriptionLen))
	}

	content, err := c.call(ctx, ai.Request{
		System:      summarizeSystemPrompt,
		User:        "Summarize each article:\n" + sb.String(),
		Temperature: 0.5,
		MaxTokens:   1500,
	})
	if err != nil {
		slog.Warn("Batch summarization failed, falling back", "batch_size", len(batch), "error", err)
		return fallbackSummaries(batch)
	}

	return parseSummaries(content, batch)
}

// Score returns one relevance score per article, in input order, clamped to
// [0, 1]. A profile with no topics and no raw input yields a neutral score
// for every article without issuing any call.
func (c *Client) Score(ctx context.Context, articles []domain.Article, profile domain.PreferenceProfile) []float64 {
	if len(profile.Topics) == 0 && profile.RawInput == "" {
		scores := make([]float64, len(articles))
		for i := range scores {
			scores[i] = neutralScore
		}
		return scores
	}

	scores := make([]float64, 0, len(articles))

	for start := 0; start < len(articles); start += BatchSize {
		if start > 0 {
			c.sleep(ctx, interBatchDelay)
		}
		batch := articles[start:min(start+BatchSize, len(articles))]
		scores = append(scores, c.scoreBatch(ctx, batch, profile)...)
	}

	return scores
}

func (c *Client) scoreBatch(ctx context.Context, batch []domain.Article, profile domain.PreferenceProfile) []float64 {
	if c.limits.Exhausted() {
		return fallbackScores(batch, profile)
	}

	var sb strings.Builder
	for i, a := range batch {
		fmt.Fprintf(&sb, "%d. %q\n", i+1, a.Title)
	}

	interests := profile.RawInput
	if interests == "" {
		interests = strings.Join(profile.Topics, ", ")
	}

	content, err := c.call(ctx, ai.Request{
		System:      scoreSystemPrompt,
		User:        fmt.Sprintf("User interests: %s\n\nRate each article:\n%s", interests, sb.String()),
		Temperature: 0.3,
		MaxTokens:   500,
	})
	if err != nil {
		slog.Warn("Batch scoring failed, falling back", "batch_size", len(batch), "error", err)
		return fallbackScores(batch, profile)
	}

	return parseScores(content, batch, profile)
}

// call issues one provider call with the batch retry discipline: daily
// exhaustion and unclassified errors abort immediately, per-minute throttling
// waits the recommended duration and retries up to maxRetries times.
func (c *Client) call(ctx context.Context, req ai.Request) (string, error) {
	for attempt := 0; ; attempt++ {
		content, err := c.completer.Complete(ctx, req)
		if err == nil {
			return strings.TrimSpace(content), nil
		}

		cls := c.limits.Classify(err)
		if cls.Limit != ratelimit.LimitPerMinute || attempt >= maxRetries {
			return "", err
		}

		slog.Info("Per-minute rate limit hit, backing off", "wait", cls.Wait, "attempt", attempt+1)
		c.sleep(ctx, cls.Wait)
	}
}

func fallbackSummaries(batch []domain.Article) []string {
	summaries := make([]string, len(batch))
	for i, a := range batch {
		summaries[i] = heuristic.Summary(a)
	}
	return summaries
}

func fallbackScores(batch []domain.Article, profile domain.PreferenceProfile) []float64 {
	scores := make([]float64, len(batch))
	for i, a := range batch {
		scores[i] = heuristic.Relevance(a, profile)
	}
	return scores
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
