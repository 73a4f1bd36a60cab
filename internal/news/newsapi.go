// Package news implements the upstream news-listing boundary against
// NewsAPI's "everything" endpoint.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/curately/curately/internal/domain"
)

const (
	defaultBaseURL = "https://newsapi.org"
	defaultTimeout = 30 * time.Second
	pageSize       = 50
	// defaultLookback is used when the profile timeframe cannot be parsed.
	defaultLookback = 7
)

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	now     func() time.Time
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiResponse struct {
	Status       string `json:"status"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
	} `json:"articles"`
}

// Fetch lists articles matching the profile's topics. An empty result is
// returned as an empty slice, not an error.
func (c *Client) Fetch(ctx context.Context, profile domain.PreferenceProfile) ([]domain.Article, error) {
	q := buildQuery(profile)

	params := url.Values{}
	params.Set("q", q)
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("from", c.now().AddDate(0, 0, -lookbackDays(profile.Timeframe)).Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v2/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news api request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal news response: %w", err)
	}
	if parsed.Status != "ok" {
		return nil, fmt.Errorf("news api error %s: %s", parsed.Code, parsed.Message)
	}

	articles := make([]domain.Article, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		articles = append(articles, domain.Article{
			Title:       a.Title,
			URL:         a.URL,
			Description: a.Description,
			SourceName:  a.Source.Name,
			ImageURL:    a.URLToImage,
		})
	}
	return articles, nil
}

func buildQuery(profile domain.PreferenceProfile) string {
	if len(profile.Topics) > 0 {
		return strings.Join(profile.Topics, " OR ")
	}
	if profile.RawInput != "" {
		return profile.RawInput
	}
	if len(profile.Categories) > 0 {
		return profile.Categories[0]
	}
	return "news"
}

// lookbackDays parses timeframes like "7 days" or "2 weeks" into days.
func lookbackDays(timeframe string) int {
	fields := strings.Fields(strings.ToLower(timeframe))
	if len(fields) != 2 {
		return defaultLookback
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return defaultLookback
	}
	switch {
	case strings.HasPrefix(fields[1], "day"):
		return n
	case strings.HasPrefix(fields[1], "week"):
		return n * 7
	case strings.HasPrefix(fields[1], "month"):
		return n * 30
	}
	return defaultLookback
}
