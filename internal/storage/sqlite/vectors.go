package sqlite

import (
	"context"
	"fmt"

	"github.com/madeindigio/graphrag/internal/storage"
)

func temporalMatch(props map[string]interface{}, validAt string) bool {
	return storage.TemporalMatch(fmt.Sprint(props[storage.PropValidFrom]), fmt.Sprint(props[storage.PropValidTo]), validAt)
}

// FindDocumentsByVector ranks documents in scope by cosine similarity to
// q.Embedding using the in-memory fallback, since SQLite carries no
// native vector index.
func (s *Store) FindDocumentsByVector(ctx context.Context, q storage.VectorQuery) ([]storage.Document, error) {
	overfetch := storage.FallbackCandidateLimit(q.Limit)
	rows, err := s.db.QueryContext(ctx, `SELECT id, text, properties, embedding, scope_id FROM documents WHERE scope_id = ? LIMIT ?`, q.ScopeID, overfetch)
	if err != nil {
		return nil, fmt.Errorf("sqlite: find documents by vector: %w", err)
	}
	defer rows.Close()

	type candidate struct {
		doc storage.Document
		emb []float32
	}
	candidates := make([]candidate, 0, overfetch)
	for rows.Next() {
		var id, t, propsJSON, embJSON, sid string
		if err := rows.Scan(&id, &t, &propsJSON, &embJSON, &sid); err != nil {
			return nil, fmt.Errorf("sqlite: scan document: %w", err)
		}
		doc, err := scanDocument(id, t, propsJSON, embJSON, sid)
		if err != nil {
			return nil, err
		}
		if !storage.ContextsMatch(storage.ContextIDsOf(doc.Properties), q.Contexts) {
			continue
		}
		if !temporalMatch(doc.Properties, q.ValidAt) {
			continue
		}
		candidates = append(candidates, candidate{doc: doc, emb: decodeEmbedding(embJSON)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ranked := storage.RankByCosine(candidates, q.Embedding, q.Threshold, q.Limit, func(c candidate) []float32 { return c.emb })
	out := make([]storage.Document, 0, len(ranked))
	for _, sr := range ranked {
		doc := sr.Row.doc
		doc.Properties[storage.PropSimilarity] = sr.Similarity
		out = append(out, doc)
	}
	return out, nil
}

// FindEntitiesByVector ranks entities in scope by cosine similarity to
// q.Embedding using the in-memory fallback.
func (s *Store) FindEntitiesByVector(ctx context.Context, q storage.VectorQuery) ([]storage.Entity, error) {
	overfetch := storage.FallbackCandidateLimit(q.Limit)
	rows, err := s.db.QueryContext(ctx, `SELECT id, label, properties, embedding, scope_id FROM entities WHERE scope_id = ? LIMIT ?`, q.ScopeID, overfetch)
	if err != nil {
		return nil, fmt.Errorf("sqlite: find entities by vector: %w", err)
	}
	defer rows.Close()

	type candidate struct {
		ent storage.Entity
		emb []float32
	}
	candidates := make([]candidate, 0, overfetch)
	for rows.Next() {
		var id, label, propsJSON, embJSON, sid string
		if err := rows.Scan(&id, &label, &propsJSON, &embJSON, &sid); err != nil {
			return nil, fmt.Errorf("sqlite: scan entity: %w", err)
		}
		ent, err := scanEntity(id, label, propsJSON, sid)
		if err != nil {
			return nil, err
		}
		if !storage.ContextsMatch(storage.ContextIDsOf(ent.Properties), q.Contexts) {
			continue
		}
		if !temporalMatch(ent.Properties, q.ValidAt) {
			continue
		}
		candidates = append(candidates, candidate{ent: ent, emb: decodeEmbedding(embJSON)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ranked := storage.RankByCosine(candidates, q.Embedding, q.Threshold, q.Limit, func(c candidate) []float32 { return c.emb })
	out := make([]storage.Entity, 0, len(ranked))
	for _, sr := range ranked {
		ent := sr.Row.ent
		ent.Properties[storage.PropSimilarity] = sr.Similarity
		out = append(out, ent)
	}
	return out, nil
}
