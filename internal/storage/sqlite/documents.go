package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/madeindigio/graphrag/internal/storage"
	"github.com/madeindigio/graphrag/pkg/idgen"
)

func scanDocument(id, text, propsJSON, embJSON, scopeID string) (storage.Document, error) {
	var props map[string]interface{}
	if err := json.Unmarshal([]byte(propsJSON), &props); err != nil {
		return storage.Document{}, fmt.Errorf("sqlite: decode document properties: %w", err)
	}
	return storage.Document{ID: id, Text: text, Properties: props}, nil
}

func encodeEmbedding(embedding []float32) (string, error) {
	data, err := json.Marshal(embedding)
	if err != nil {
		return "", fmt.Errorf("sqlite: encode embedding: %w", err)
	}
	return string(data), nil
}

func decodeEmbedding(raw string) []float32 {
	var vals []float32
	_ = json.Unmarshal([]byte(raw), &vals)
	return vals
}

// CreateDocument inserts a new document row with its embedding.
func (s *Store) CreateDocument(ctx context.Context, properties map[string]interface{}, embedding []float32) (*storage.Document, error) {
	text, _ := properties["text"].(string)
	propsJSON, err := json.Marshal(properties)
	if err != nil {
		return nil, fmt.Errorf("sqlite: encode document properties: %w", err)
	}
	embJSON, err := encodeEmbedding(embedding)
	if err != nil {
		return nil, err
	}
	id := idgen.New()
	scopeID := storage.ScopeIDOf(properties)

	_, err = s.db.ExecContext(ctx, `INSERT INTO documents (id, text, properties, embedding, scope_id) VALUES (?, ?, ?, ?, ?)`,
		id, text, string(propsJSON), embJSON, scopeID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: insert document: %w", err)
	}
	return &storage.Document{ID: id, Text: text, Properties: properties}, nil
}

// FindDocumentByText returns the first document in scope with an exact
// text match, used for create-time dedup.
func (s *Store) FindDocumentByText(ctx context.Context, text, scopeID string) (*storage.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, text, properties, embedding, scope_id FROM documents WHERE text = ? AND scope_id = ? LIMIT 1`, text, scopeID)
	var id, t, propsJSON, embJSON, sid string
	if err := row.Scan(&id, &t, &propsJSON, &embJSON, &sid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: find document by text: %w", err)
	}
	doc, err := scanDocument(id, t, propsJSON, embJSON, sid)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateDocumentContextIDs appends contextID to a document's contextIds
// set, without disturbing any other field.
func (s *Store) UpdateDocumentContextIDs(ctx context.Context, id, contextID string) (*storage.Document, error) {
	doc, err := s.FindDocumentByID(ctx, id, "")
	if err != nil {
		return nil, err
	}
	contexts := storage.AddContextID(storage.ContextIDsOf(doc.Properties), contextID)
	doc.Properties[storage.PropContextIDs] = contexts
	return s.writeDocumentProperties(ctx, id, doc.Properties)
}

func (s *Store) writeDocumentProperties(ctx context.Context, id string, props map[string]interface{}) (*storage.Document, error) {
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("sqlite: encode document properties: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE documents SET properties = ?, scope_id = ? WHERE id = ?`, string(propsJSON), storage.ScopeIDOf(props), id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: update document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, storage.ErrNotFound
	}
	text, _ := props["text"].(string)
	return &storage.Document{ID: id, Text: text, Properties: props}, nil
}

// FindDocumentByID looks up one document by id, scoped to scopeID when
// non-empty.
func (s *Store) FindDocumentByID(ctx context.Context, id, scopeID string) (*storage.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, text, properties, embedding, scope_id FROM documents WHERE id = ?`, id)
	var rid, t, propsJSON, embJSON, sid string
	if err := row.Scan(&rid, &t, &propsJSON, &embJSON, &sid); err != nil {
		return nil, storage.ErrNotFound
	}
	if scopeID != "" && sid != scopeID {
		return nil, storage.ErrNotFound
	}
	doc, err := scanDocument(rid, t, propsJSON, embJSON, sid)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateDocument applies a pre-filtered patch to a document's properties.
func (s *Store) UpdateDocument(ctx context.Context, id, scopeID string, patch map[string]interface{}) (*storage.Document, error) {
	existing, err := s.FindDocumentByID(ctx, id, scopeID)
	if err != nil {
		return nil, err
	}
	for k, v := range patch {
		existing.Properties[k] = v
	}
	return s.writeDocumentProperties(ctx, id, existing.Properties)
}

// DeleteDocument removes a document and its CONTAINS_ENTITY edges.
func (s *Store) DeleteDocument(ctx context.Context, id, scopeID string) error {
	if _, err := s.FindDocumentByID(ctx, id, scopeID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM relationships WHERE type = ? AND from_id = ?`, storage.ContainsEntityType, id); err != nil {
		return fmt.Errorf("sqlite: delete document links: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: delete document: %w", err)
	}
	return nil
}

// ListDocuments returns documents matching f.
func (s *Store) ListDocuments(ctx context.Context, f storage.ListFilter) ([]storage.Document, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, text, properties, embedding, scope_id FROM documents WHERE scope_id = ? ORDER BY id LIMIT ? OFFSET ?`, f.ScopeID, limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list documents: %w", err)
	}
	defer rows.Close()

	out := make([]storage.Document, 0)
	for rows.Next() {
		var id, t, propsJSON, embJSON, sid string
		if err := rows.Scan(&id, &t, &propsJSON, &embJSON, &sid); err != nil {
			return nil, fmt.Errorf("sqlite: scan document: %w", err)
		}
		doc, err := scanDocument(id, t, propsJSON, embJSON, sid)
		if err != nil {
			return nil, err
		}
		if !storage.ContextsMatch(storage.ContextIDsOf(doc.Properties), f.Contexts) {
			continue
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}
