package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/madeindigio/graphrag/internal/contextpack"
	"github.com/madeindigio/graphrag/internal/storage"
)

const insufficientContextAnswer = "I could not find any relevant information in the knowledge graph to answer this question."

const askSystemPrompt = "Answer the user's question using only the facts present in the provided graph context below. If the context is insufficient, say so plainly."

// Ask embeds the query, fuses document/entity vector search, bridges
// documents to their entities, expands a bounded subgraph, packs a
// budgeted context, and generates an answer.
func (e *Engine) Ask(ctx context.Context, query string, opts AskOptions) (*AskResult, error) {
	opts = fillAskDefaults(opts)

	started := time.Now()
	stats := &AskStats{Strategy: opts.Strategy}
	status := "error"
	defer func() {
		e.metrics.RecordAsk(ctx, time.Since(started).Seconds(), e.scopeID, string(opts.Strategy), status)
	}()

	queryEmbedding, err := e.embed.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("engine: embed query: %w", err)
	}

	searchStarted := time.Now()
	var documents []storage.Document
	var entities []storage.Entity

	if opts.Strategy == StrategyDocuments || opts.Strategy == StrategyBoth {
		documents, err = e.searchDocuments(ctx, queryEmbedding, opts)
		if err != nil {
			return nil, fmt.Errorf("engine: find documents by vector: %w", err)
		}
		stats.DocumentHits = len(documents)
	}
	if opts.Strategy == StrategyEntities || opts.Strategy == StrategyBoth {
		entities, err = e.searchEntities(ctx, queryEmbedding, opts)
		if err != nil {
			return nil, fmt.Errorf("engine: find entities by vector: %w", err)
		}
		stats.EntityHits = len(entities)
	}
	stats.SearchTimeMs = time.Since(searchStarted).Milliseconds()

	entityByID := make(map[string]storage.Entity, len(entities))
	for _, ent := range entities {
		entityByID[ent.ID] = ent
	}
	bridged := 0
	for _, doc := range documents {
		bridgedEntities, err := e.store.EntitiesForDocument(ctx, doc.ID, e.scopeID)
		if err != nil {
			return nil, fmt.Errorf("engine: document→entity bridge: %w", err)
		}
		for _, ent := range bridgedEntities {
			if _, ok := entityByID[ent.ID]; !ok {
				entityByID[ent.ID] = ent
				bridged++
			}
		}
	}
	stats.BridgedEntities = bridged

	if len(entityByID) == 0 {
		status = "insufficient_context"
		return &AskResult{
			Answer: insufficientContextAnswer,
			Context: AskContext{
				Documents:     []storage.Document{},
				Entities:      []storage.Entity{},
				Relationships: []storage.Relationship{},
			},
			Stats: finalizeStats(opts, stats, started),
		}, nil
	}

	startIDs := make([]string, 0, len(entityByID))
	labelSet := make(map[string]bool, len(entityByID))
	for id, ent := range entityByID {
		startIDs = append(startIDs, id)
		labelSet[ent.Label] = true
	}
	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}

	subgraphStarted := time.Now()
	subgraph, err := e.store.RetrieveSubgraph(ctx, storage.SubgraphQuery{
		Labels:   labels,
		RelTypes: nil,
		MaxDepth: opts.MaxDepth,
		Limit:    opts.Limit,
		StartIDs: startIDs,
		ScopeID:  e.scopeID,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: retrieve subgraph: %w", err)
	}
	stats.SubgraphTimeMs = time.Since(subgraphStarted).Milliseconds()
	stats.SubgraphEntities = len(subgraph.Entities)
	stats.SubgraphRelations = len(subgraph.Relationships)
	e.metrics.RecordSubgraph(ctx, e.scopeID, stats.SubgraphEntities, stats.SubgraphRelations)

	packed := contextpack.Pack(contextpack.Input{
		Documents:     documents,
		Entities:      subgraph.Entities,
		Relationships: subgraph.Relationships,
	})
	stats.ContextTokens = packed.Summary.EstimatedTokens

	llmStarted := time.Now()
	answer, err := e.model.Generate(ctx, askSystemPrompt, packed.Text, 0.2)
	if err != nil {
		return nil, fmt.Errorf("engine: generate answer: %w", err)
	}
	stats.LLMTimeMs = time.Since(llmStarted).Milliseconds()

	if !opts.IncludeEmbeddings {
		for i := range documents {
			documents[i].Properties = storage.ScrubEmbedding(documents[i].Properties)
		}
		for i := range subgraph.Entities {
			subgraph.Entities[i].Properties = storage.ScrubEmbedding(subgraph.Entities[i].Properties)
		}
	}

	resultContext := AskContext{
		Entities:      subgraph.Entities,
		Relationships: subgraph.Relationships,
	}
	if opts.Strategy != StrategyEntities {
		resultContext.Documents = documents
	}

	status = "ok"
	return &AskResult{
		Answer:  answer,
		Context: resultContext,
		Stats:   finalizeStats(opts, stats, started),
	}, nil
}

func (e *Engine) searchDocuments(ctx context.Context, queryEmbedding []float32, opts AskOptions) ([]storage.Document, error) {
	docs, err := e.store.FindDocumentsByVector(ctx, storage.VectorQuery{
		Embedding: queryEmbedding,
		Limit:     opts.Limit,
		Threshold: opts.SimilarityThreshold,
		ScopeID:   e.scopeID,
		Contexts:  opts.Contexts,
		ValidAt:   opts.ValidAt,
	})
	if err != nil {
		return nil, err
	}
	out := docs[:0]
	for _, d := range docs {
		if cast(d.Properties[storage.PropSimilarity]) < opts.SimilarityThreshold {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (e *Engine) searchEntities(ctx context.Context, queryEmbedding []float32, opts AskOptions) ([]storage.Entity, error) {
	ents, err := e.store.FindEntitiesByVector(ctx, storage.VectorQuery{
		Embedding: queryEmbedding,
		Limit:     opts.Limit,
		Threshold: opts.SimilarityThreshold,
		ScopeID:   e.scopeID,
		Contexts:  opts.Contexts,
		ValidAt:   opts.ValidAt,
	})
	if err != nil {
		return nil, err
	}
	out := ents[:0]
	for _, ent := range ents {
		if cast(ent.Properties[storage.PropSimilarity]) < opts.SimilarityThreshold {
			continue
		}
		out = append(out, ent)
	}
	return out, nil
}

func cast(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	default:
		return 0
	}
}

func fillAskDefaults(opts AskOptions) AskOptions {
	d := DefaultAskOptions()
	if opts.MaxDepth == 0 {
		opts.MaxDepth = d.MaxDepth
	}
	if opts.Limit == 0 {
		opts.Limit = d.Limit
	}
	if opts.Strategy == "" {
		opts.Strategy = d.Strategy
	}
	if opts.SimilarityThreshold == 0 {
		opts.SimilarityThreshold = d.SimilarityThreshold
	}
	return opts
}

func finalizeStats(opts AskOptions, stats *AskStats, started time.Time) *AskStats {
	if !opts.IncludeStats {
		return nil
	}
	stats.TotalTimeMs = time.Since(started).Milliseconds()
	return stats
}
