// Package llm provides text generation for extraction and answer synthesis.
package llm

import "context"

// Model generates text completions from a system/user prompt pair.
type Model interface {
	// Generate runs one completion. temperature is clamped by the
	// underlying provider to its own valid range.
	Generate(ctx context.Context, systemPrompt, userMessage string, temperature float64) (string, error)
}
