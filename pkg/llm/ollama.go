package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaModel implements Model via a local or remote Ollama server.
type OllamaModel struct {
	client *ollama.LLM
}

// NewOllamaModel builds an OllamaModel against the given server URL and
// chat model.
func NewOllamaModel(url, model string) (*OllamaModel, error) {
	if url == "" {
		return nil, fmt.Errorf("llm: ollama URL is required")
	}
	if model == "" {
		return nil, fmt.Errorf("llm: ollama model name is required")
	}

	client, err := ollama.New(
		ollama.WithServerURL(url),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("llm: create ollama client: %w", err)
	}

	return &OllamaModel{client: client}, nil
}

// Generate runs one chat completion.
func (m *OllamaModel) Generate(ctx context.Context, systemPrompt, userMessage string, temperature float64) (string, error) {
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
