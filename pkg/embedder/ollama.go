package embedder

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaEmbedder implements Embedder via a local or remote Ollama server.
type OllamaEmbedder struct {
	client    *ollama.LLM
	model     string
	dimension int
}

// NewOllamaEmbedder builds an OllamaEmbedder against the given server URL
// and embedding model.
func NewOllamaEmbedder(url, model string) (*OllamaEmbedder, error) {
	if url == "" {
		return nil, fmt.Errorf("embedder: ollama URL is required")
	}
	if model == "" {
		return nil, fmt.Errorf("embedder: ollama model name is required")
	}

	client, err := ollama.New(
		ollama.WithServerURL(url),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("embedder: create ollama client: %w", err)
	}

	return &OllamaEmbedder{
		client:    client,
		model:     model,
		dimension: dimensionForOllamaModel(model),
	}, nil
}

// EmbedDocuments embeds a batch of texts.
func (o *OllamaEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
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
func (o *OllamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
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
func (o *OllamaEmbedder) Dimension() int {
	return o.dimension
}

func dimensionForOllamaModel(model string) int {
	switch model {
	case "nomic-embed-text":
		return 768
	case "mxbai-embed-large":
		return 1024
	case "all-minilm":
		return 384
	default:
		return 768
	}
}
