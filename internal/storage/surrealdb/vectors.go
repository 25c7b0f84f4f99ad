package surrealdb

import (
	"context"
	"fmt"

	"github.com/madeindigio/graphrag/internal/storage"
)

// FindDocumentsByVector runs a native MTREE KNN search over documents,
// then applies scope/context/temporal/threshold filters that SurrealDB's
// KNN operator does not express directly.
func (s *Store) FindDocumentsByVector(ctx context.Context, q storage.VectorQuery) ([]storage.Document, error) {
	knn := fallbackOverfetch(q.Limit)
	query := fmt.Sprintf(`
		SELECT *, vector::similarity::cosine(embedding, $embedding) AS _similarity
		FROM document
		WHERE embedding <|%d|> $embedding
		ORDER BY _similarity DESC;`, knn)
	res, err := s.query(ctx, query, map[string]interface{}{
		"embedding": q.Embedding,
	})
	if err != nil {
		return nil, fmt.Errorf("surrealdb: find documents by vector: %w", err)
	}

	out := make([]storage.Document, 0, q.Limit)
	for _, row := range rows(res) {
		doc := toDocument(row)
		sim := rowFloat(row, "_similarity")
		if sim < q.Threshold {
			continue
		}
		if q.ScopeID != "" && storage.ScopeIDOf(doc.Properties) != q.ScopeID {
			continue
		}
		if !storage.ContextsMatch(storage.ContextIDsOf(doc.Properties), q.Contexts) {
			continue
		}
		if !storage.TemporalMatch(fmt.Sprint(doc.Properties[storage.PropValidFrom]), fmt.Sprint(doc.Properties[storage.PropValidTo]), q.ValidAt) {
			continue
		}
		out = append(out, doc)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

// FindEntitiesByVector runs a native MTREE KNN search over entities with
// the same post-filter pass as FindDocumentsByVector.
func (s *Store) FindEntitiesByVector(ctx context.Context, q storage.VectorQuery) ([]storage.Entity, error) {
	knn := fallbackOverfetch(q.Limit)
	query := fmt.Sprintf(`
		SELECT *, vector::similarity::cosine(embedding, $embedding) AS _similarity
		FROM entity
		WHERE embedding <|%d|> $embedding
		ORDER BY _similarity DESC;`, knn)
	res, err := s.query(ctx, query, map[string]interface{}{
		"embedding": q.Embedding,
	})
	if err != nil {
		return nil, fmt.Errorf("surrealdb: find entities by vector: %w", err)
	}

	out := make([]storage.Entity, 0, q.Limit)
	for _, row := range rows(res) {
		e := toEntity(row)
		sim := rowFloat(row, "_similarity")
		if sim < q.Threshold {
			continue
		}
		if q.ScopeID != "" && storage.ScopeIDOf(e.Properties) != q.ScopeID {
			continue
		}
		if !storage.ContextsMatch(storage.ContextIDsOf(e.Properties), q.Contexts) {
			continue
		}
		if !storage.TemporalMatch(fmt.Sprint(e.Properties[storage.PropValidFrom]), fmt.Sprint(e.Properties[storage.PropValidTo]), q.ValidAt) {
			continue
		}
		out = append(out, e)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

func rowFloat(row map[string]interface{}, key string) float64 {
	switch v := row[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	default:
		return 0
	}
}

// fallbackOverfetch mirrors the in-memory fallback's over-fetch rule so
// the native KNN operator still leaves room for post-filtering by
// scope/context/temporal window without starving the result set.
func fallbackOverfetch(limit int) int {
	n := limit * 5
	if n < 100 {
		n = 100
	}
	if n > 500 {
		n = 500
	}
	return n
}
