package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/madeindigio/graphrag/internal/storage"
	"github.com/madeindigio/graphrag/pkg/idgen"
)

func scanEntity(id, label, propsJSON, scopeID string) (storage.Entity, error) {
	var props map[string]interface{}
	if err := json.Unmarshal([]byte(propsJSON), &props); err != nil {
		return storage.Entity{}, fmt.Errorf("sqlite: decode entity properties: %w", err)
	}
	return storage.Entity{ID: id, Label: label, Properties: props}, nil
}

// CreateEntities inserts a batch of entities sharing scopeID, each with
// its own embedding.
func (s *Store) CreateEntities(ctx context.Context, entities []storage.Entity, embeddings [][]float32, scopeID string) ([]storage.Entity, error) {
	if len(entities) != len(embeddings) {
		return nil, fmt.Errorf("sqlite: entities/embeddings length mismatch: %d vs %d", len(entities), len(embeddings))
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin transaction: %w", err)
	}
	defer tx.Rollback()

	out := make([]storage.Entity, 0, len(entities))
	for i, e := range entities {
		propsJSON, err := json.Marshal(e.Properties)
		if err != nil {
			return nil, fmt.Errorf("sqlite: encode entity properties: %w", err)
		}
		embJSON, err := encodeEmbedding(embeddings[i])
		if err != nil {
			return nil, err
		}
		id := idgen.New()
		if _, err := tx.ExecContext(ctx, `INSERT INTO entities (id, label, properties, embedding, scope_id) VALUES (?, ?, ?, ?, ?)`,
			id, e.Label, string(propsJSON), embJSON, scopeID); err != nil {
			return nil, fmt.Errorf("sqlite: insert entity %q: %w", storage.NameOf(e.Properties), err)
		}
		out = append(out, storage.Entity{ID: id, Label: e.Label, Properties: e.Properties})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit entities: %w", err)
	}
	return out, nil
}

// FindEntityByName returns the first entity in scope whose name or title
// property exactly matches name.
func (s *Store) FindEntityByName(ctx context.Context, name, scopeID string) (*storage.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, label, properties, scope_id FROM entities WHERE scope_id = ?`, scopeID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: find entity by name: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, label, propsJSON, sid string
		if err := rows.Scan(&id, &label, &propsJSON, &sid); err != nil {
			return nil, fmt.Errorf("sqlite: scan entity: %w", err)
		}
		e, err := scanEntity(id, label, propsJSON, sid)
		if err != nil {
			return nil, err
		}
		if storage.NameOf(e.Properties) == name {
			return &e, nil
		}
	}
	return nil, rows.Err()
}

// UpdateEntityContextIDs appends contextID to an entity's contextIds set.
func (s *Store) UpdateEntityContextIDs(ctx context.Context, id, contextID string) (*storage.Entity, error) {
	e, err := s.FindEntityByID(ctx, id, "")
	if err != nil {
		return nil, err
	}
	e.Properties[storage.PropContextIDs] = storage.AddContextID(storage.ContextIDsOf(e.Properties), contextID)
	return s.writeEntityProperties(ctx, id, e.Label, e.Properties)
}

func (s *Store) writeEntityProperties(ctx context.Context, id, label string, props map[string]interface{}) (*storage.Entity, error) {
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("sqlite: encode entity properties: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE entities SET properties = ? WHERE id = ?`, string(propsJSON), id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: update entity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, storage.ErrNotFound
	}
	return &storage.Entity{ID: id, Label: label, Properties: props}, nil
}

// FindEntityByID looks up one entity by id, scoped to scopeID when
// non-empty.
func (s *Store) FindEntityByID(ctx context.Context, id, scopeID string) (*storage.Entity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, label, properties, scope_id FROM entities WHERE id = ?`, id)
	var rid, label, propsJSON, sid string
	if err := row.Scan(&rid, &label, &propsJSON, &sid); err != nil {
		return nil, storage.ErrNotFound
	}
	if scopeID != "" && sid != scopeID {
		return nil, storage.ErrNotFound
	}
	e, err := scanEntity(rid, label, propsJSON, sid)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateEntity applies a pre-filtered patch to an entity's properties.
func (s *Store) UpdateEntity(ctx context.Context, id, scopeID string, patch map[string]interface{}) (*storage.Entity, error) {
	existing, err := s.FindEntityByID(ctx, id, scopeID)
	if err != nil {
		return nil, err
	}
	for k, v := range patch {
		existing.Properties[k] = v
	}
	return s.writeEntityProperties(ctx, id, existing.Label, existing.Properties)
}

// DeleteEntity removes an entity and every relationship touching it.
func (s *Store) DeleteEntity(ctx context.Context, id, scopeID string) error {
	if _, err := s.FindEntityByID(ctx, id, scopeID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM relationships WHERE from_id = ? OR to_id = ?`, id, id); err != nil {
		return fmt.Errorf("sqlite: delete entity relationships: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: delete entity: %w", err)
	}
	return nil
}

// ListEntities returns entities matching f.
func (s *Store) ListEntities(ctx context.Context, f storage.ListFilter) ([]storage.Entity, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, label, properties, scope_id FROM entities WHERE scope_id = ?`
	args := []interface{}{f.ScopeID}
	if len(f.Labels) > 0 {
		placeholders := ""
		for i, l := range f.Labels {
			if i > 0 {
				placeholders += ","
			}
			placeholders += "?"
			args = append(args, l)
		}
		query += fmt.Sprintf(` AND label IN (%s)`, placeholders)
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list entities: %w", err)
	}
	defer rows.Close()

	out := make([]storage.Entity, 0)
	for rows.Next() {
		var id, label, propsJSON, sid string
		if err := rows.Scan(&id, &label, &propsJSON, &sid); err != nil {
			return nil, fmt.Errorf("sqlite: scan entity: %w", err)
		}
		e, err := scanEntity(id, label, propsJSON, sid)
		if err != nil {
			return nil, err
		}
		if !storage.ContextsMatch(storage.ContextIDsOf(e.Properties), f.Contexts) {
			continue
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
