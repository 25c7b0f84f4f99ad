package embedder

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIEmbedder implements Embedder via OpenAI or an OpenAI-compatible API.
type OpenAIEmbedder struct {
	client    *openai.LLM
	model     string
	dimension int
}

// NewOpenAIEmbedder builds an OpenAIEmbedder. baseURL may be empty to use
// OpenAI's default endpoint, or set to target a compatible API.
func NewOpenAIEmbedder(apiKey, baseURL, model string) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embedder: openai API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("embedder: openai model name is required")
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
		return nil, fmt.Errorf("embedder: create openai client: %w", err)
	}

	return &OpenAIEmbedder{
		client:    client,
		model:     model,
		dimension: dimensionForOpenAIModel(model),
	}, nil
}

// EmbedDocuments embeds a batch of texts.
func (o *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	embedder, err := embeddings.NewEmbedder(o.client)
	if err != nil {
		return nil, fmt.Errorf("embedder: create embedder: %w", err)
	}

	vecs, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedder: embed documents: %w", err)
	}

	result := make([][]float32, len(vecs))
	for i, v := range vecs {
		result[i] = make([]float32, len(v))
		for j, f := range v {
			result[i][j] = float32(f)
		}
	}
	return result, nil
}

// EmbedQuery embeds a single query text.
func (o *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("embedder: text cannot be empty")
	}

	embedder, err := embeddings.NewEmbedder(o.client)
	if err != nil {
		return nil, fmt.Errorf("embedder: create embedder: %w", err)
	}

	vec, err := embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedder: embed query: %w", err)
	}

	result := make([]float32, len(vec))
	for i, f := range vec {
		result[i] = float32(f)
	}
	return result, nil
}

// Dimension returns the vector dimensionality for this model.
func (o *OpenAIEmbedder) Dimension() int {
	return o.dimension
}

func dimensionForOpenAIModel(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "text-embedding-3-small":
		return 1536
	case "text-embedding-ada-002":
		return 1536
	default:
		return 1536
	}
}
