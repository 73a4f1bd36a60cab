package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/curately/curately/internal/apperr"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	groqBaseURL  = "https://api.groq.com/openai/v1"
	DefaultModel = "llama-3.3-70b-versatile"
)

type GroqOption func(*GroqClient)

func WithModel(model string) GroqOption {
	return func(c *GroqClient) {
		c.model = model
	}
}

// WithBaseURL points the client at a different OpenAI-compatible endpoint,
// mainly for tests against a local stub.
func WithBaseURL(baseURL string) GroqOption {
	return func(c *GroqClient) {
		c.baseURL = baseURL
	}
}

// GroqClient talks to Groq's OpenAI-compatible chat completion API.
type GroqClient struct {
	client  *openai.Client
	model   string
	baseURL string
}

func NewGroqClient(apiKey string, opts ...GroqOption) *GroqClient {
	c := &GroqClient{
		model:   DefaultModel,
		baseURL: groqBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(c.baseURL),
	)
	c.client = &client

	return c
}

func (c *GroqClient) Complete(ctx context.Context, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", wrapProviderError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// wrapProviderError converts SDK errors into apperr.ProviderError so the
// rate-limit tracker can classify them without knowing the SDK.
func wrapProviderError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Error()
		}
		return &apperr.ProviderError{StatusCode: apiErr.StatusCode, Message: msg}
	}
	return err
}
