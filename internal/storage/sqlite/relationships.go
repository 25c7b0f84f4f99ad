package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/madeindigio/graphrag/internal/storage"
	"github.com/madeindigio/graphrag/pkg/idgen"
)

func scanRelationship(id, relType, fromID, toID, propsJSON string) (storage.Relationship, error) {
	var props map[string]interface{}
	if err := json.Unmarshal([]byte(propsJSON), &props); err != nil {
		return storage.Relationship{}, fmt.Errorf("sqlite: decode relationship properties: %w", err)
	}
	return storage.Relationship{ID: id, Type: relType, From: fromID, To: toID, Properties: props}, nil
}

// CreateRelationships inserts a batch of relationships sharing scopeID.
func (s *Store) CreateRelationships(ctx context.Context, relationships []storage.Relationship, scopeID string) ([]storage.Relationship, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin transaction: %w", err)
	}
	defer tx.Rollback()

	out := make([]storage.Relationship, 0, len(relationships))
	for _, r := range relationships {
		propsJSON, err := json.Marshal(r.Properties)
		if err != nil {
			return nil, fmt.Errorf("sqlite: encode relationship properties: %w", err)
		}
		id := idgen.New()
		if _, err := tx.ExecContext(ctx, `INSERT INTO relationships (id, type, from_id, to_id, properties, scope_id) VALUES (?, ?, ?, ?, ?, ?)`,
			id, r.Type, r.From, r.To, string(propsJSON), scopeID); err != nil {
			return nil, fmt.Errorf("sqlite: insert relationship %s->%s: %w", r.From, r.To, err)
		}
		out = append(out, storage.Relationship{ID: id, Type: r.Type, From: r.From, To: r.To, Properties: r.Properties})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit relationships: %w", err)
	}
	return out, nil
}

// LinkEntityToDocument records the CONTAINS_ENTITY edge from a document to
// one of the entities extracted from it.
func (s *Store) LinkEntityToDocument(ctx context.Context, documentID, entityID, scopeID string) (*storage.Relationship, error) {
	id := idgen.New()
	props := map[string]interface{}{}
	propsJSON, _ := json.Marshal(props)
	_, err := s.db.ExecContext(ctx, `INSERT INTO relationships (id, type, from_id, to_id, properties, scope_id) VALUES (?, ?, ?, ?, ?, ?)`,
		id, storage.ContainsEntityType, documentID, entityID, string(propsJSON), scopeID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: link entity to document: %w", err)
	}
	return &storage.Relationship{ID: id, Type: storage.ContainsEntityType, From: documentID, To: entityID, Properties: props}, nil
}

// EntitiesForDocument returns every entity linked to documentID via
// CONTAINS_ENTITY, scoped to scopeID.
func (s *Store) EntitiesForDocument(ctx context.Context, documentID, scopeID string) ([]storage.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT to_id FROM relationships WHERE type = ? AND from_id = ? AND scope_id = ?`, storage.ContainsEntityType, documentID, scopeID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: entities for document: %w", err)
	}
	var entityIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: scan linked entity id: %w", err)
		}
		entityIDs = append(entityIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]storage.Entity, 0, len(entityIDs))
	for _, id := range entityIDs {
		e, err := s.FindEntityByID(ctx, id, scopeID)
		if err != nil {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

// FindRelationshipByID looks up one relationship by id, scoped to scopeID
// when non-empty.
func (s *Store) FindRelationshipByID(ctx context.Context, id, scopeID string) (*storage.Relationship, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, type, from_id, to_id, properties, scope_id FROM relationships WHERE id = ?`, id)
	var rid, relType, fromID, toID, propsJSON, sid string
	if err := row.Scan(&rid, &relType, &fromID, &toID, &propsJSON, &sid); err != nil {
		return nil, storage.ErrNotFound
	}
	if scopeID != "" && sid != scopeID {
		return nil, storage.ErrNotFound
	}
	r, err := scanRelationship(rid, relType, fromID, toID, propsJSON)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateRelationship applies a pre-filtered patch to a relationship's
// properties.
func (s *Store) UpdateRelationship(ctx context.Context, id, scopeID string, patch map[string]interface{}) (*storage.Relationship, error) {
	existing, err := s.FindRelationshipByID(ctx, id, scopeID)
	if err != nil {
		return nil, err
	}
	for k, v := range patch {
		existing.Properties[k] = v
	}
	propsJSON, err := json.Marshal(existing.Properties)
	if err != nil {
		return nil, fmt.Errorf("sqlite: encode relationship properties: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE relationships SET properties = ? WHERE id = ?`, string(propsJSON), id); err != nil {
		return nil, fmt.Errorf("sqlite: update relationship: %w", err)
	}
	return existing, nil
}

// DeleteRelationship removes a single relationship.
func (s *Store) DeleteRelationship(ctx context.Context, id, scopeID string) error {
	if _, err := s.FindRelationshipByID(ctx, id, scopeID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM relationships WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: delete relationship: %w", err)
	}
	return nil
}

// ListRelationships returns relationships matching f, optionally filtered
// to a single relationship type via f.Labels[0].
func (s *Store) ListRelationships(ctx context.Context, f storage.ListFilter) ([]storage.Relationship, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, type, from_id, to_id, properties, scope_id FROM relationships WHERE scope_id = ?`
	args := []interface{}{f.ScopeID}
	if len(f.Labels) > 0 {
		query += ` AND type = ?`
		args = append(args, f.Labels[0])
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list relationships: %w", err)
	}
	defer rows.Close()

	out := make([]storage.Relationship, 0)
	for rows.Next() {
		var id, relType, fromID, toID, propsJSON, sid string
		if err := rows.Scan(&id, &relType, &fromID, &toID, &propsJSON, &sid); err != nil {
			return nil, fmt.Errorf("sqlite: scan relationship: %w", err)
		}
		r, err := scanRelationship(id, relType, fromID, toID, propsJSON)
		if err != nil {
			return nil, err
		}
		if !storage.ContextsMatch(storage.ContextIDsOf(r.Properties), f.Contexts) {
			continue
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
