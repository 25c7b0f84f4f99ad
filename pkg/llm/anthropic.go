package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// AnthropicModel implements Model via the Anthropic API.
type AnthropicModel struct {
	client *anthropic.LLM
}

// NewAnthropicModel builds an AnthropicModel.
func NewAnthropicModel(apiKey, model string) (*AnthropicModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: anthropic API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("llm: anthropic model name is required")
	}

	client, err := anthropic.New(
		anthropic.WithToken(apiKey),
		anthropic.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("llm: create anthropic client: %w", err)
	}

	return &AnthropicModel{client: client}, nil
}

// Generate runs one chat completion.
func (m *AnthropicModel) Generate(ctx context.Context, systemPrompt, userMessage string, temperature float64) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userMessage),
	}
	resp, err := m.client.GenerateContent(ctx, messages, llms.WithTemperature(temperature))
	if err != nil {
		return "", fmt.Errorf("llm: generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: no completion choices returned")
	}
	return resp.Choices[0].Content, nil
}
