package surrealdb

import (
	"context"
	"fmt"

	"github.com/madeindigio/graphrag/internal/storage"
)

func toDocument(row map[string]interface{}) storage.Document {
	props := getMap(row, "properties")
	return storage.Document{
		ID:         recordID(row["id"]),
		Text:       getString(row, "text"),
		Properties: props,
	}
}

// CreateDocument inserts a new document row with its embedding. The
// properties map is stored verbatim (including scopeId/contextIds),
// with scopeId additionally mirrored to a top-level indexed field.
func (s *Store) CreateDocument(ctx context.Context, properties map[string]interface{}, embedding []float32) (*storage.Document, error) {
	text, _ := properties["text"].(string)

	res, err := s.query(ctx, `CREATE document CONTENT { text: $text, properties: $properties, embedding: $embedding, scopeId: $scopeId } RETURN *;`, map[string]interface{}{
		"text":       text,
		"properties": properties,
		"embedding":  embedding,
		"scopeId":    storage.ScopeIDOf(properties),
	})
	if err != nil {
		return nil, fmt.Errorf("surrealdb: create document: %w", err)
	}
	row, ok := firstRow(res)
	if !ok {
		return nil, fmt.Errorf("surrealdb: create document: no row returned")
	}
	doc := toDocument(row)
	return &doc, nil
}

// FindDocumentByText returns the first document in scope with an exact
// text match, used for create-time dedup.
func (s *Store) FindDocumentByText(ctx context.Context, text, scopeID string) (*storage.Document, error) {
	res, err := s.query(ctx, `SELECT * FROM document WHERE text = $text AND scopeId = $scopeId LIMIT 1;`, map[string]interface{}{
		"text": text, "scopeId": scopeID,
	})
	if err != nil {
		return nil, fmt.Errorf("surrealdb: find document by text: %w", err)
	}
	row, ok := firstRow(res)
	if !ok {
		return nil, nil
	}
	doc := toDocument(row)
	return &doc, nil
}

// UpdateDocumentContextIDs appends contextID to a document's contextIds
// set, without disturbing any other field.
func (s *Store) UpdateDocumentContextIDs(ctx context.Context, id, contextID string) (*storage.Document, error) {
	res, err := s.query(ctx, `UPDATE $id SET properties.contextIds += $contextId WHERE $contextId NOT IN properties.contextIds RETURN *;`, map[string]interface{}{
		"id": id, "contextId": contextID,
	})
	if err != nil {
		return nil, fmt.Errorf("surrealdb: update document context ids: %w", err)
	}
	row, ok := firstRow(res)
	if !ok {
		return s.FindDocumentByID(ctx, id, "")
	}
	doc := toDocument(row)
	return &doc, nil
}

// FindDocumentByID looks up one document by id, scoped to scopeID when
// non-empty.
func (s *Store) FindDocumentByID(ctx context.Context, id, scopeID string) (*storage.Document, error) {
	res, err := s.query(ctx, `SELECT * FROM $id;`, map[string]interface{}{"id": id})
	if err != nil {
		return nil, fmt.Errorf("surrealdb: find document by id: %w", err)
	}
	row, ok := firstRow(res)
	if !ok {
		return nil, storage.ErrNotFound
	}
	doc := toDocument(row)
	if scopeID != "" && storage.ScopeIDOf(doc.Properties) != scopeID {
		return nil, storage.ErrNotFound
	}
	return &doc, nil
}

// UpdateDocument applies a pre-filtered patch to a document's properties.
func (s *Store) UpdateDocument(ctx context.Context, id, scopeID string, patch map[string]interface{}) (*storage.Document, error) {
	existing, err := s.FindDocumentByID(ctx, id, scopeID)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]interface{}, len(existing.Properties)+len(patch))
	for k, v := range existing.Properties {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	res, err := s.query(ctx, `UPDATE $id SET properties = $properties RETURN *;`, map[string]interface{}{
		"id": id, "properties": merged,
	})
	if err != nil {
		return nil, fmt.Errorf("surrealdb: update document: %w", err)
	}
	row, ok := firstRow(res)
	if !ok {
		return nil, storage.ErrNotFound
	}
	doc := toDocument(row)
	return &doc, nil
}

// DeleteDocument removes a document and its CONTAINS_ENTITY edges.
func (s *Store) DeleteDocument(ctx context.Context, id, scopeID string) error {
	if _, err := s.FindDocumentByID(ctx, id, scopeID); err != nil {
		return err
	}
	if _, err := s.query(ctx, fmt.Sprintf(`DELETE %s WHERE in = $id;`, relationshipTable(storage.ContainsEntityType)), map[string]interface{}{"id": id}); err != nil {
		return fmt.Errorf("surrealdb: delete document links: %w", err)
	}
	if _, err := s.query(ctx, `DELETE $id;`, map[string]interface{}{"id": id}); err != nil {
		return fmt.Errorf("surrealdb: delete document: %w", err)
	}
	return nil
}

// ListDocuments returns documents matching f, applying the context
// filter application-side after a scope-bounded query.
func (s *Store) ListDocuments(ctx context.Context, f storage.ListFilter) ([]storage.Document, error) {
	q := `SELECT * FROM document WHERE scopeId = $scopeId ORDER BY id LIMIT $limit START $offset;`
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	res, err := s.query(ctx, q, map[string]interface{}{
		"scopeId": f.ScopeID, "limit": limit, "offset": f.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("surrealdb: list documents: %w", err)
	}
	out := make([]storage.Document, 0)
	for _, row := range rows(res) {
		doc := toDocument(row)
		if !storage.ContextsMatch(storage.ContextIDsOf(doc.Properties), f.Contexts) {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}
