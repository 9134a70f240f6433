// Package openai implements the completion provider over OpenAI's chat
// completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaigo "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/kuba/mat-tutor-server/internal/llm"
)

// CompletionClient abstracts the OpenAI chat completions call so tests
// can stub the API.
type CompletionClient interface {
	CreateCompletion(ctx context.Context, params openaigo.ChatCompletionNewParams) (*openaigo.ChatCompletion, error)
}

// Client implements CompletionClient using the official SDK.
type Client struct {
	client *openaigo.Client
}

// NewClient creates an SDK-backed client with the given API key.
func NewClient(apiKey string, opts ...option.RequestOption) *Client {
	opts = append(opts, option.WithAPIKey(apiKey))
	return &Client{client: openaigo.NewClient(opts...)}
}

// CreateCompletion implements CompletionClient.
func (c *Client) CreateCompletion(ctx context.Context, params openaigo.ChatCompletionNewParams) (*openaigo.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}

// Config holds provider configuration.
type Config struct {
	// Client overrides the SDK client; used by tests. When nil, a real
	// client is built from APIKey.
	Client      CompletionClient
	APIKey      string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// Provider calls OpenAI's chat completions API.
type Provider struct {
	client      CompletionClient
	model       string
	maxTokens   int64
	temperature float64
	configured  bool
}

// NewProvider creates a provider. Without a model it defaults to
// gpt-4o-mini.
func NewProvider(cfg Config) *Provider {
	if cfg.Model == "" {
		cfg.Model = openaigo.ChatModelGPT4oMini
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}

	client := cfg.Client
	configured := client != nil
	if client == nil && cfg.APIKey != "" {
		client = NewClient(cfg.APIKey)
		configured = true
	}

	return &Provider{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		configured:  configured,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai"
}

// IsAvailable reports whether an API client is configured.
func (p *Provider) IsAvailable() bool {
	return p.configured
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if p.client == nil {
		return nil, errors.New("openai provider is not configured")
	}

	start := time.Now()

	messages := make([]openaigo.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openaigo.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleAssistant:
			messages = append(messages, openaigo.AssistantMessage(m.Content))
		case llm.RoleSystem:
			messages = append(messages, openaigo.SystemMessage(m.Content))
		default:
			messages = append(messages, openaigo.UserMessage(m.Content))
		}
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	params := openaigo.ChatCompletionNewParams{
		Messages:    openaigo.F(messages),
		Model:       openaigo.F(model),
		MaxTokens:   openaigo.Int(p.maxTokens),
		Temperature: openaigo.Float(p.temperature),
	}

	completion, err := p.client.CreateCompletion(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, errors.New("no choices in completion response")
	}
	content := completion.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("empty completion content")
	}

	resp := &llm.Response{
		Content:          content,
		Model:            completion.Model,
		PromptTokens:     int(completion.Usage.PromptTokens),
		CompletionTokens: int(completion.Usage.CompletionTokens),
		TotalTokens:      int(completion.Usage.TotalTokens),
		ResponseTime:     time.Since(start),
	}
	if resp.Model == "" {
		resp.Model = model
	}
	if resp.TotalTokens == 0 {
		// Some responses omit usage; fall back to a rough estimate so
		// the ledger still moves.
		var promptText strings.Builder
		promptText.WriteString(req.System)
		for _, m := range req.Messages {
			promptText.WriteString(m.Content)
		}
		resp.PromptTokens = llm.EstimateTokens(promptText.String())
		resp.CompletionTokens = llm.EstimateTokens(content)
		resp.TotalTokens = resp.PromptTokens + resp.CompletionTokens
	}

	return resp, nil
}
