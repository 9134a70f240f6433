// Package llm defines the seam between the tutoring orchestrator and
// the hosted completion API.
package llm

import (
	"context"
	"time"
)

// Role identifies who produced a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of prompt material.
type Message struct {
	Role    Role
	Content string
}

// Request is a single completion call.
type Request struct {
	System   string
	Messages []Message
	Model    string
}

// Response is the model's reply plus its accounting metadata.
type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	ResponseTime     time.Duration
}

// Provider is implemented by concrete completion backends.
type Provider interface {
	// Complete sends the request and returns the model's reply. An empty
	// or missing completion is an error, never an empty success.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider name (e.g. "openai").
	Name() string

	// IsAvailable reports whether the provider is configured to make
	// real calls (credentials present).
	IsAvailable() bool
}

// EstimateTokens provides a rough token estimate for text
// (4 chars ≈ 1 token). Used when the API omits usage numbers.
func EstimateTokens(text string) int {
	return len(text) / 4
}
