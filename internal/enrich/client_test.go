package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/curately/curately/internal/ai"
	"github.com/curately/curately/internal/domain"
	"github.com/curately/curately/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	calls     []ai.Request
	responses []func() (string, error)
}

func (f *fakeCompleter) Complete(_ context.Context, req ai.Request) (string, error) {
	f.calls = append(f.calls, req)
	if len(f.responses) == 0 {
		return "", errors.New("fakeCompleter: no response queued")
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	return next()
}

func (f *fakeCompleter) queue(content string) {
	f.responses = append(f.responses, func() (string, error) { return content, nil })
}

func (f *fakeCompleter) queueErr(err error) {
	f.responses = append(f.responses, func() (string, error) { return "", err })
}

type sleepRecorder struct {
	waits []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) {
	s.waits = append(s.waits, d)
}

func makeArticles(n int) []domain.Article {
	articles := make([]domain.Article, n)
	for i := range articles {
		articles[i] = domain.Article{
			Title:       fmt.Sprintf("Article %d", i+1),
			URL:         fmt.Sprintf("https://news.example/%d", i+1),
			Description: fmt.Sprintf("Description %d", i+1),
		}
	}
	return articles
}

func numberedLines(n int, format string) string {
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, "%d. "+format+"\n", i, i)
	}
	return sb.String()
}

func testProfile() domain.PreferenceProfile {
	return domain.PreferenceProfile{
		Topics:   []string{"golang"},
		RawInput: "golang backend news",
	}
}

func TestSummarize_BatchCallCount(t *testing.T) {
	tests := []struct {
		articles  int
		wantCalls int
	}{
		{articles: 1, wantCalls: 1},
		{articles: 10, wantCalls: 1},
		{articles: 11, wantCalls: 2},
		{articles: 20, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d articles", tt.articles), func(t *testing.T) {
			// Arrange
			completer := &fakeCompleter{}
			remaining := tt.articles
			for remaining > 0 {
				size := min(remaining, BatchSize)
				completer.queue(numberedLines(size, "Summary %d"))
				remaining -= size
			}
			rec := &sleepRecorder{}
			client := NewClient(completer, ratelimit.NewTracker(), WithSleep(rec.sleep))

			// Act
			summaries := client.Summarize(context.Background(), makeArticles(tt.articles))

			// Assert
			assert.Len(t, completer.calls, tt.wantCalls)
			require.Len(t, summaries, tt.articles)
			assert.Equal(t, "Summary 1", summaries[0])

			// one pacing delay between successive batches
			assert.Len(t, rec.waits, tt.wantCalls-1)
			for _, w := range rec.waits {
				assert.Equal(t, interBatchDelay, w)
			}
		})
	}
}

func TestSummarize_MissingLineFallsBackPerItem(t *testing.T) {
	// Arrange: provider drops line 3 of a 3-item batch
	completer := &fakeCompleter{}
	completer.queue("1. First summary\n2: Second summary")
	client := NewClient(completer, ratelimit.NewTracker(), WithSleep((&sleepRecorder{}).sleep))
	articles := makeArticles(3)

	// Act
	summaries := client.Summarize(context.Background(), articles)

	// Assert: items 1 and 2 use parsed output, item 3 falls back alone
	require.Len(t, summaries, 3)
	assert.Equal(t, "First summary", summaries[0])
	assert.Equal(t, "Second summary", summaries[1])
	assert.Equal(t, articles[2].Description, summaries[2])
}

func TestSummarize_ThrottleRetriesThenSucceeds(t *testing.T) {
	// Arrange
	completer := &fakeCompleter{}
	throttle := errors.New("rate_limit reached, please try again in 2s")
	completer.queueErr(throttle)
	completer.queueErr(throttle)
	completer.queue(numberedLines(2, "Summary %d"))
	rec := &sleepRecorder{}
	tracker := ratelimit.NewTracker()
	client := NewClient(completer, tracker, WithSleep(rec.sleep))

	// Act
	summaries := client.Summarize(context.Background(), makeArticles(2))

	// Assert
	assert.Len(t, completer.calls, 3)
	assert.Equal(t, []string{"Summary 1", "Summary 2"}, summaries)
	assert.Equal(t, []time.Duration{2500 * time.Millisecond, 2500 * time.Millisecond}, rec.waits)
	assert.False(t, tracker.Exhausted())
}

func TestSummarize_ThrottleBudgetExceededFallsBack(t *testing.T) {
	completer := &fakeCompleter{}
	throttle := errors.New("rate_limit reached, please try again in 1s")
	for i := 0; i < 3; i++ {
		completer.queueErr(throttle)
	}
	client := NewClient(completer, ratelimit.NewTracker(), WithSleep((&sleepRecorder{}).sleep))
	articles := makeArticles(2)

	summaries := client.Summarize(context.Background(), articles)

	assert.Len(t, completer.calls, 3, "initial call plus two retries")
	assert.Equal(t, []string{articles[0].Description, articles[1].Description}, summaries)
}

func TestSummarize_UnclassifiedErrorNoRetry(t *testing.T) {
	completer := &fakeCompleter{}
	completer.queueErr(errors.New("connection reset by peer"))
	client := NewClient(completer, ratelimit.NewTracker(), WithSleep((&sleepRecorder{}).sleep))
	articles := makeArticles(2)

	summaries := client.Summarize(context.Background(), articles)

	assert.Len(t, completer.calls, 1)
	assert.Equal(t, []string{articles[0].Description, articles[1].Description}, summaries)
}

func TestSummarize_DailyExhaustionAbortsRemainingBatches(t *testing.T) {
	// Arrange: batch 1 succeeds, batch 2 trips the daily quota
	completer := &fakeCompleter{}
	completer.queue(numberedLines(10, "Summary %d"))
	completer.queueErr(errors.New("rate_limit: tokens per day exhausted"))
	tracker := ratelimit.NewTracker()
	client := NewClient(completer, tracker, WithSleep((&sleepRecorder{}).sleep))
	articles := makeArticles(20)

	// Act
	summaries := client.Summarize(context.Background(), articles)
	scores := client.Score(context.Background(), articles, testProfile())

	// Assert: no further provider calls after the daily classification
	assert.Len(t, completer.calls, 2)
	assert.True(t, tracker.Exhausted())
	require.Len(t, summaries, 20)
	assert.Equal(t, "Summary 1", summaries[0])
	assert.Equal(t, articles[10].Description, summaries[10], "second batch falls back")
	require.Len(t, scores, 20)
}

func TestScore_ParsesAndClamps(t *testing.T) {
	completer := &fakeCompleter{}
	completer.queue("1. 0.9\n2: 0.5\n3. 1.7\n4. not a number")
	client := NewClient(completer, ratelimit.NewTracker(), WithSleep((&sleepRecorder{}).sleep))
	articles := makeArticles(4)
	profile := testProfile()

	scores := client.Score(context.Background(), articles, profile)

	require.Len(t, scores, 4)
	assert.Equal(t, 0.9, scores[0])
	assert.Equal(t, 0.5, scores[1])
	assert.Equal(t, 1.0, scores[2], "scores clamp to [0,1]")
	assert.InDelta(t, 0.3, scores[3], 1e-9, "unparseable line falls back to heuristic")
}

func TestScore_EmptyProfileIsNeutralWithoutCalls(t *testing.T) {
	completer := &fakeCompleter{}
	client := NewClient(completer, ratelimit.NewTracker(), WithSleep((&sleepRecorder{}).sleep))

	scores := client.Score(context.Background(), makeArticles(3), domain.PreferenceProfile{})

	assert.Empty(t, completer.calls)
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, scores)
}

func TestSummarize_ExhaustedTrackerSkipsAllCalls(t *testing.T) {
	completer := &fakeCompleter{}
	tracker := ratelimit.NewTracker()
	tracker.Classify(errors.New("rate_limit: tokens per day"))
	client := NewClient(completer, tracker, WithSleep((&sleepRecorder{}).sleep))
	articles := makeArticles(5)

	summaries := client.Summarize(context.Background(), articles)

	assert.Empty(t, completer.calls)
	require.Len(t, summaries, 5)
	assert.Equal(t, articles[0].Description, summaries[0])
}
