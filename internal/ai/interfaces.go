package ai

import (
	"context"
)

// Completer is the single-turn completion surface the assessment engine
// builds on. Every engine operation sends one prompt and parses the raw
// text itself, so providers stay output-format agnostic.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// CompletionRequest is a single prompt exchange
type CompletionRequest struct {
	// Operation names the engine operation for tracing and logging
	// (select, evolve, generate, summarize, feedback).
	Operation string

	Prompt string
	System string

	// JSON requests a JSON-only response from the provider. The caller
	// still owns parsing; this only constrains the response MIME type.
	JSON bool
}

// Completion holds the raw model response
type Completion struct {
	Content string
	Usage   *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
