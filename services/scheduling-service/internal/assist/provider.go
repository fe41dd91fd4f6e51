// Package assist turns appointments and ledgers into short pt-BR texts
// through a hosted language model.
package assist

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const DefaultModel = "gpt-4o-mini"

// TextGenerationProvider completes a single user prompt.
type TextGenerationProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenAIProvider struct {
	client *openai.Client
	model  string
}

var ErrMissingAPIKey = errors.New("openai: api key not configured")

func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	oc := openai.DefaultConfig(key)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		oc.BaseURL = base
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(oc), model: model}, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	// No choices reads as an empty reply, not a failure.
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
