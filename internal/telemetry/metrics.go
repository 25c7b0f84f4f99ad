// Package telemetry exposes OpenTelemetry metric instruments for the
// graph engine's Learn/Ask/batch operations, and a Prometheus bridge so
// they can be scraped without a collector.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/madeindigio/graphrag"

var durationBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// Metrics holds every instrument the engine records against. All fields
// are safe for concurrent use.
type Metrics struct {
	LearnDuration metric.Float64Histogram
	AskDuration   metric.Float64Histogram

	LearnCalls metric.Int64Counter
	AskCalls   metric.Int64Counter

	DocumentsCreated     metric.Int64Counter
	DocumentsReused      metric.Int64Counter
	EntitiesCreated      metric.Int64Counter
	RelationshipsCreated metric.Int64Counter

	ExtractionErrors metric.Int64Counter

	SubgraphEntities      metric.Int64Histogram
	SubgraphRelationships metric.Int64Histogram

	BatchItemsProcessed metric.Int64Counter
	BatchItemsFailed    metric.Int64Counter
}

// NewMetrics creates every instrument against mp. Returns an error if any
// instrument registration fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{}
	var err error

	if met.LearnDuration, err = m.Float64Histogram("graphrag.learn.duration",
		metric.WithDescription("Latency of a single Learn call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AskDuration, err = m.Float64Histogram("graphrag.ask.duration",
		metric.WithDescription("Latency of a single Ask call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}

	if met.LearnCalls, err = m.Int64Counter("graphrag.learn.calls",
		metric.WithDescription("Total Learn calls by outcome."),
	); err != nil {
		return nil, err
	}
	if met.AskCalls, err = m.Int64Counter("graphrag.ask.calls",
		metric.WithDescription("Total Ask calls by outcome and strategy."),
	); err != nil {
		return nil, err
	}

	if met.DocumentsCreated, err = m.Int64Counter("graphrag.documents.created",
		metric.WithDescription("Documents created (as opposed to deduped/reused)."),
	); err != nil {
		return nil, err
	}
	if met.DocumentsReused, err = m.Int64Counter("graphrag.documents.reused",
		metric.WithDescription("Documents matched by an existing-text dedup and reused."),
	); err != nil {
		return nil, err
	}
	if met.EntitiesCreated, err = m.Int64Counter("graphrag.entities.created",
		metric.WithDescription("Entities created (as opposed to deduped/reused)."),
	); err != nil {
		return nil, err
	}
	if met.RelationshipsCreated, err = m.Int64Counter("graphrag.relationships.created",
		metric.WithDescription("Relationships materialized by Learn."),
	); err != nil {
		return nil, err
	}

	if met.ExtractionErrors, err = m.Int64Counter("graphrag.extraction.errors",
		metric.WithDescription("Extraction calls that failed schema validation or returned no JSON."),
	); err != nil {
		return nil, err
	}

	if met.SubgraphEntities, err = m.Int64Histogram("graphrag.ask.subgraph_entities",
		metric.WithDescription("Entities returned by an Ask call's subgraph expansion."),
	); err != nil {
		return nil, err
	}
	if met.SubgraphRelationships, err = m.Int64Histogram("graphrag.ask.subgraph_relationships",
		metric.WithDescription("Relationships returned by an Ask call's subgraph expansion."),
	); err != nil {
		return nil, err
	}

	if met.BatchItemsProcessed, err = m.Int64Counter("graphrag.batch.items_processed",
		metric.WithDescription("Items processed by LearnBatch, across all runs."),
	); err != nil {
		return nil, err
	}
	if met.BatchItemsFailed, err = m.Int64Counter("graphrag.batch.items_failed",
		metric.WithDescription("Items that failed within a LearnBatch run."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level Metrics instance, built lazily
// from otel.GetMeterProvider(). Panics if instrument registration fails,
// which should not happen against the global provider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("telemetry: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordLearn records one Learn call's latency and outcome.
func (m *Metrics) RecordLearn(ctx context.Context, seconds float64, scopeID, status string) {
	m.LearnDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("scopeId", scopeID)))
	m.LearnCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("scopeId", scopeID), attribute.String("status", status)))
}

// RecordAsk records one Ask call's latency, outcome, and strategy.
func (m *Metrics) RecordAsk(ctx context.Context, seconds float64, scopeID, strategy, status string) {
	m.AskDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("scopeId", scopeID)))
	m.AskCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scopeId", scopeID),
		attribute.String("strategy", strategy),
		attribute.String("status", status),
	))
}

// RecordLearnCounts records the created/reused tallies from one Learn
// call's CreatedCounts.
func (m *Metrics) RecordLearnCounts(ctx context.Context, scopeID string, documentsCreated, documentsReused, entitiesCreated, relationshipsCreated int) {
	attrs := metric.WithAttributes(attribute.String("scopeId", scopeID))
	if documentsCreated > 0 {
		m.DocumentsCreated.Add(ctx, int64(documentsCreated), attrs)
	}
	if documentsReused > 0 {
		m.DocumentsReused.Add(ctx, int64(documentsReused), attrs)
	}
	if entitiesCreated > 0 {
		m.EntitiesCreated.Add(ctx, int64(entitiesCreated), attrs)
	}
	if relationshipsCreated > 0 {
		m.RelationshipsCreated.Add(ctx, int64(relationshipsCreated), attrs)
	}
}

// RecordExtractionError increments the extraction-errors counter.
func (m *Metrics) RecordExtractionError(ctx context.Context, scopeID string) {
	m.ExtractionErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("scopeId", scopeID)))
}

// RecordSubgraph records the size of one Ask call's expanded subgraph.
func (m *Metrics) RecordSubgraph(ctx context.Context, scopeID string, entities, relationships int) {
	attrs := metric.WithAttributes(attribute.String("scopeId", scopeID))
	m.SubgraphEntities.Record(ctx, int64(entities), attrs)
	m.SubgraphRelationships.Record(ctx, int64(relationships), attrs)
}

// RecordBatchItem increments the batch processed/failed counters for a
// single LearnBatch item outcome.
func (m *Metrics) RecordBatchItem(ctx context.Context, scopeID string, failed bool) {
	attrs := metric.WithAttributes(attribute.String("scopeId", scopeID))
	m.BatchItemsProcessed.Add(ctx, 1, attrs)
	if failed {
		m.BatchItemsFailed.Add(ctx, 1, attrs)
	}
}
