// Package engine wires the embedding, LLM, extraction, and storage
// packages into the Learn/Ask/management operations of the graph engine.
package engine

import (
	"time"

	"github.com/madeindigio/graphrag/internal/extraction"
	"github.com/madeindigio/graphrag/internal/storage"
)

// LearnOptions carries the per-call overrides accepted by Learn.
type LearnOptions struct {
	ContextID         string
	ContextName       string
	ValidFrom         *time.Time
	ValidTo           *time.Time
	IncludeEmbeddings bool
	Template          *extraction.Template
}

// CreatedCounts reports how many nodes/edges a Learn call actually wrote,
// as opposed to reused via dedup.
type CreatedCounts struct {
	Document      int
	Entities      int
	Relationships int
}

// LearnResult is the full return value of a single Learn call.
type LearnResult struct {
	ContextID     string
	Document      storage.Document
	Entities      []storage.Entity
	Relationships []storage.Relationship
	Warnings      []string
	Created       CreatedCounts
}

// BatchItem is one element of a LearnBatch input list.
type BatchItem struct {
	Text        string
	ContextID   string
	ContextName string
	ValidFrom   *time.Time
	ValidTo     *time.Time
}

// BatchProgress is pushed to the caller's callback after every item.
type BatchProgress struct {
	Current                   int
	Total                     int
	Completed                 int
	Failed                    int
	CurrentText               string
	EstimatedTimeRemainingMs   int64
}

// BatchFailure records one failed item without aborting the run.
type BatchFailure struct {
	Index   int
	Text    string
	Message string
}

// BatchResult aggregates a LearnBatch run.
type BatchResult struct {
	Results              []*LearnResult
	Failures             []BatchFailure
	DocumentsCreated     int
	DocumentsReused      int
	EntitiesCreated      int
	RelationshipsCreated int
}

// Strategy selects which index(es) Ask searches.
type Strategy string

const (
	StrategyDocuments Strategy = "documents"
	StrategyEntities  Strategy = "entities"
	StrategyBoth      Strategy = "both"
)

// AskOptions carries the per-call overrides accepted by Ask.
type AskOptions struct {
	MaxDepth            int
	Limit               int
	Contexts            []string
	Strategy            Strategy
	ValidAt             string
	SimilarityThreshold float64
	IncludeEmbeddings   bool
	IncludeStats        bool
}

// DefaultAskOptions mirrors the spec's defaults for an unset AskOptions.
func DefaultAskOptions() AskOptions {
	return AskOptions{
		MaxDepth:            2,
		Limit:               50,
		Strategy:            StrategyBoth,
		SimilarityThreshold: 0.7,
	}
}

// AskStats reports per-stage timings and counts, returned only when
// requested.
type AskStats struct {
	SearchTimeMs      int64
	SubgraphTimeMs    int64
	LLMTimeMs         int64
	TotalTimeMs       int64
	DocumentHits      int
	EntityHits        int
	BridgedEntities   int
	SubgraphEntities  int
	SubgraphRelations int
	ContextTokens     int
	Strategy          Strategy
}

// AskContext is the retrieval evidence surfaced back to the caller
// alongside the generated answer.
type AskContext struct {
	Documents     []storage.Document
	Entities      []storage.Entity
	Relationships []storage.Relationship
}

// AskResult is the full return value of a single Ask call.
type AskResult struct {
	Answer  string
	Context AskContext
	Stats   *AskStats
}

// HealthStatus is the coarse-grained status reported by HealthCheck.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// HealthResult is the return value of HealthCheck.
type HealthResult struct {
	Status        HealthStatus
	StoreConnected bool
	LLMAvailable  bool
	Timestamp     time.Time
}
