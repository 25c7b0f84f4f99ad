// Package embedder provides text embedding generation for documents and
// entities stored by the graph engine.
package embedder

import "context"

// Embedder generates vector embeddings from text.
type Embedder interface {
	// EmbedDocuments embeds a batch of texts, one vector per input text.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single query text. Some providers tune this
	// path differently from EmbedDocuments.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the vector dimensionality this embedder
	// produces, used to size vector indexes.
	Dimension() int
}
