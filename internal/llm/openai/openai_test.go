package openai

import (
	"context"
	"errors"
	"testing"

	openaigo "github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuba/mat-tutor-server/internal/llm"
)

type stubClient struct {
	completion *openaigo.ChatCompletion
	err        error
	gotParams  openaigo.ChatCompletionNewParams
}

func (s *stubClient) CreateCompletion(_ context.Context, params openaigo.ChatCompletionNewParams) (*openaigo.ChatCompletion, error) {
	s.gotParams = params
	return s.completion, s.err
}

func completionWith(content string, prompt, completionTokens int64) *openaigo.ChatCompletion {
	return &openaigo.ChatCompletion{
		Model: "gpt-4o-mini",
		Choices: []openaigo.ChatCompletionChoice{
			{Message: openaigo.ChatCompletionMessage{Content: content}},
		},
		Usage: openaigo.CompletionUsage{
			PromptTokens:     prompt,
			CompletionTokens: completionTokens,
			TotalTokens:      prompt + completionTokens,
		},
	}
}

func TestProviderComplete(t *testing.T) {
	stub := &stubClient{completion: completionWith("Delta wynosi b²-4ac.", 120, 40)}
	p := NewProvider(Config{Client: stub, Model: "gpt-4o-mini"})

	resp, err := p.Complete(context.Background(), llm.Request{
		System: "Jesteś korepetytorem matematyki.",
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "Czym jest delta?"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Delta wynosi b²-4ac.", resp.Content)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
	assert.Equal(t, 120, resp.PromptTokens)
	assert.Equal(t, 40, resp.CompletionTokens)
	assert.Equal(t, 160, resp.TotalTokens)

	require.True(t, stub.gotParams.Messages.Present)
	assert.Len(t, stub.gotParams.Messages.Value, 2, "system prompt plus user message")
}

func TestProviderCompleteUpstreamError(t *testing.T) {
	stub := &stubClient{err: errors.New("connection refused")}
	p := NewProvider(Config{Client: stub})

	_, err := p.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "2+2?"}},
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "chat completion failed")
}

func TestProviderCompleteNoChoices(t *testing.T) {
	stub := &stubClient{completion: &openaigo.ChatCompletion{}}
	p := NewProvider(Config{Client: stub})

	_, err := p.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "2+2?"}},
	})
	assert.ErrorContains(t, err, "no choices")
}

func TestProviderCompleteEmptyContent(t *testing.T) {
	stub := &stubClient{completion: completionWith("   ", 1, 0)}
	p := NewProvider(Config{Client: stub})

	_, err := p.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "2+2?"}},
	})
	assert.ErrorContains(t, err, "empty completion")
}

func TestProviderCompleteEstimatesMissingUsage(t *testing.T) {
	stub := &stubClient{completion: &openaigo.ChatCompletion{
		Choices: []openaigo.ChatCompletionChoice{
			{Message: openaigo.ChatCompletionMessage{Content: "cztery"}},
		},
	}}
	p := NewProvider(Config{Client: stub})

	resp, err := p.Complete(context.Background(), llm.Request{
		System:   "korepetytor",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "ile to 2+2"}},
	})
	require.NoError(t, err)
	assert.Greater(t, resp.TotalTokens, 0, "usage falls back to an estimate")
}

func TestProviderAvailability(t *testing.T) {
	assert.False(t, NewProvider(Config{}).IsAvailable())
	assert.True(t, NewProvider(Config{APIKey: "sk-test"}).IsAvailable())
	assert.True(t, NewProvider(Config{Client: &stubClient{}}).IsAvailable())
}
