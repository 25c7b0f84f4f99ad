package engine

import (
	"context"
	"fmt"
)

// fakeEmbedder returns a deterministic, low-dimensional embedding derived
// from the text's length and byte sum so that distinct texts land at
// distinct points without pulling in a real model.
type fakeEmbedder struct {
	dim int
	err error
}

func newFakeEmbedder() *fakeEmbedder { return &fakeEmbedder{dim: 4} }

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = vectorFor(t, f.dim)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return vectorFor(text, f.dim), nil
}

func (f *fakeEmbedder) Dimension() int { return f.dim }

func vectorFor(text string, dim int) []float32 {
	var sum float32
	for _, r := range text {
		sum += float32(r)
	}
	v := make([]float32, dim)
	for i := range v {
		v[i] = sum + float32(i)
	}
	return v
}

// fakeModel returns a scripted reply for Generate, recording every call it
// receives so tests can assert on prompts sent.
type fakeModel struct {
	replies []string
	calls   int
	err     error
}

func (m *fakeModel) Generate(ctx context.Context, systemPrompt, userMessage string, temperature float64) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.calls >= len(m.replies) {
		return "", fmt.Errorf("fakeModel: no scripted reply for call %d", m.calls)
	}
	reply := m.replies[m.calls]
	m.calls++
	return reply, nil
}
