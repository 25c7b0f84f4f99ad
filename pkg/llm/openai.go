package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIModel implements Model via OpenAI or an OpenAI-compatible API.
type OpenAIModel struct {
	client *openai.LLM
}

// NewOpenAIModel builds an OpenAIModel. baseURL may be empty to use
// OpenAI's default endpoint.
func NewOpenAIModel(apiKey, baseURL, model string) (*OpenAIModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: openai API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("llm: openai model name is required")
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("llm: create openai client: %w", err)
	}

	return &OpenAIModel{client: client}, nil
}

// Generate runs one chat completion.
func (m *OpenAIModel) Generate(ctx context.Context, systemPrompt, userMessage string, temperature float64) (string, error) {
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
