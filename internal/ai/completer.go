package ai

import "context"

// Request is one chat-style provider call: a system instruction plus a user
// prompt. The response contract (numbered lines, JSON, ...) is the caller's
// concern; this layer only moves text.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Completer abstracts the AI provider so the enrichment pipeline can run
// against a fake in tests.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}
