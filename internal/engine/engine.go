package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/madeindigio/graphrag/internal/extraction"
	"github.com/madeindigio/graphrag/internal/metadata"
	"github.com/madeindigio/graphrag/internal/storage"
	"github.com/madeindigio/graphrag/internal/telemetry"
	"github.com/madeindigio/graphrag/pkg/embedder"
	"github.com/madeindigio/graphrag/pkg/llm"
	"github.com/madeindigio/graphrag/pkg/scope"
)

// Engine is the single entry point for Learn/Ask/management operations.
// It owns the store connection; batch and single-call APIs share it. No
// hidden singletons.
type Engine struct {
	store    storage.Provider
	embed    embedder.Embedder
	model    llm.Model
	scopeID  string
	template extraction.Template
	stamper  *metadata.Stamper
	now      func() time.Time
	metrics  *telemetry.Metrics
}

// Dependencies bundles the already-constructed collaborators an Engine is
// built from; the engine performs no vendor-specific wiring itself.
type Dependencies struct {
	Store    storage.Provider
	Embed    embedder.Embedder
	Model    llm.Model
	ScopeID  string
	Template *extraction.Template
	Now      func() time.Time
	// Metrics records Learn/Ask/LearnBatch latency and outcome counts.
	// Defaults to telemetry.DefaultMetrics() when nil.
	Metrics *telemetry.Metrics
}

// New builds an Engine bound to scopeID. Initialize must be called before
// Learn/Ask.
func New(deps Dependencies) (*Engine, error) {
	if deps.ScopeID == "" {
		return nil, fmt.Errorf("engine: scopeId is required")
	}
	if err := scope.Validate(deps.ScopeID); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("engine: store is required")
	}
	if deps.Embed == nil {
		return nil, fmt.Errorf("engine: embedder is required")
	}
	if deps.Model == nil {
		return nil, fmt.Errorf("engine: llm model is required")
	}

	tmpl := extraction.DefaultTemplate()
	if deps.Template != nil {
		tmpl = tmpl.Merge(*deps.Template)
	}

	metrics := deps.Metrics
	if metrics == nil {
		metrics = telemetry.DefaultMetrics()
	}

	return &Engine{
		store:    deps.Store,
		embed:    deps.Embed,
		model:    deps.Model,
		scopeID:  deps.ScopeID,
		template: tmpl,
		stamper:  metadata.New(deps.ScopeID, deps.Now),
		now:      deps.Now,
		metrics:  metrics,
	}, nil
}

// Initialize acquires the store connection and ensures the vector index
// matches the configured embedder's dimension.
func (e *Engine) Initialize(ctx context.Context) error {
	if err := e.store.Connect(ctx); err != nil {
		return fmt.Errorf("engine: connect store: %w", err)
	}
	if err := e.store.EnsureVectorIndex(ctx, e.embed.Dimension()); err != nil {
		return fmt.Errorf("engine: ensure vector index: %w", err)
	}
	slog.Info("engine initialized", "scopeId", e.scopeID, "embeddingDimension", e.embed.Dimension())
	return nil
}

// Cleanup releases the store connection.
func (e *Engine) Cleanup(ctx context.Context) error {
	return e.store.Disconnect(ctx)
}

// HealthCheck reports store connectivity and LLM availability.
func (e *Engine) HealthCheck(ctx context.Context) HealthResult {
	now := time.Now()
	if e.now != nil {
		now = e.now()
	}

	storeOK := e.store.Ping(ctx) == nil

	llmOK := true
	if _, err := e.model.Generate(ctx, "Reply with OK.", "ping", 0); err != nil {
		llmOK = false
	}

	status := HealthHealthy
	switch {
	case !storeOK && !llmOK:
		status = HealthUnhealthy
	case !storeOK || !llmOK:
		status = HealthDegraded
	}

	return HealthResult{
		Status:         status,
		StoreConnected: storeOK,
		LLMAvailable:   llmOK,
		Timestamp:      now,
	}
}
