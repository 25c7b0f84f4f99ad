package surrealdb

import (
	"context"
	"fmt"

	"github.com/madeindigio/graphrag/internal/storage"
)

func toEntity(row map[string]interface{}) storage.Entity {
	return storage.Entity{
		ID:         recordID(row["id"]),
		Label:      getString(row, "label"),
		Properties: getMap(row, "properties"),
	}
}

// CreateEntities inserts a batch of entities sharing scopeID, each with
// its own embedding.
func (s *Store) CreateEntities(ctx context.Context, entities []storage.Entity, embeddings [][]float32, scopeID string) ([]storage.Entity, error) {
	if len(entities) != len(embeddings) {
		return nil, fmt.Errorf("surrealdb: entities/embeddings length mismatch: %d vs %d", len(entities), len(embeddings))
	}
	out := make([]storage.Entity, 0, len(entities))
	for i, e := range entities {
		res, err := s.query(ctx, `CREATE entity CONTENT { label: $label, properties: $properties, embedding: $embedding, scopeId: $scopeId } RETURN *;`, map[string]interface{}{
			"label":      e.Label,
			"properties": e.Properties,
			"embedding":  embeddings[i],
			"scopeId":    scopeID,
		})
		if err != nil {
			return nil, fmt.Errorf("surrealdb: create entity %q: %w", storage.NameOf(e.Properties), err)
		}
		row, ok := firstRow(res)
		if !ok {
			return nil, fmt.Errorf("surrealdb: create entity %q: no row returned", storage.NameOf(e.Properties))
		}
		out = append(out, toEntity(row))
	}
	return out, nil
}

// FindEntityByName returns the first entity in scope whose name or
// title property exactly matches name.
func (s *Store) FindEntityByName(ctx context.Context, name, scopeID string) (*storage.Entity, error) {
	res, err := s.query(ctx, `SELECT * FROM entity WHERE scopeId = $scopeId AND (properties.name = $name OR properties.title = $name) LIMIT 1;`, map[string]interface{}{
		"name": name, "scopeId": scopeID,
	})
	if err != nil {
		return nil, fmt.Errorf("surrealdb: find entity by name: %w", err)
	}
	row, ok := firstRow(res)
	if !ok {
		return nil, nil
	}
	e := toEntity(row)
	return &e, nil
}

// UpdateEntityContextIDs appends contextID to an entity's contextIds set.
func (s *Store) UpdateEntityContextIDs(ctx context.Context, id, contextID string) (*storage.Entity, error) {
	res, err := s.query(ctx, `UPDATE $id SET properties.contextIds += $contextId WHERE $contextId NOT IN properties.contextIds RETURN *;`, map[string]interface{}{
		"id": id, "contextId": contextID,
	})
	if err != nil {
		return nil, fmt.Errorf("surrealdb: update entity context ids: %w", err)
	}
	row, ok := firstRow(res)
	if !ok {
		return s.FindEntityByID(ctx, id, "")
	}
	e := toEntity(row)
	return &e, nil
}

// FindEntityByID looks up one entity by id, scoped to scopeID when
// non-empty.
func (s *Store) FindEntityByID(ctx context.Context, id, scopeID string) (*storage.Entity, error) {
	res, err := s.query(ctx, `SELECT * FROM $id;`, map[string]interface{}{"id": id})
	if err != nil {
		return nil, fmt.Errorf("surrealdb: find entity by id: %w", err)
	}
	row, ok := firstRow(res)
	if !ok {
		return nil, storage.ErrNotFound
	}
	e := toEntity(row)
	if scopeID != "" && storage.ScopeIDOf(e.Properties) != scopeID {
		return nil, storage.ErrNotFound
	}
	return &e, nil
}

// UpdateEntity applies a pre-filtered patch to an entity's properties.
func (s *Store) UpdateEntity(ctx context.Context, id, scopeID string, patch map[string]interface{}) (*storage.Entity, error) {
	existing, err := s.FindEntityByID(ctx, id, scopeID)
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
		return nil, fmt.Errorf("surrealdb: update entity: %w", err)
	}
	row, ok := firstRow(res)
	if !ok {
		return nil, storage.ErrNotFound
	}
	e := toEntity(row)
	return &e, nil
}

// DeleteEntity removes an entity and every relationship touching it.
func (s *Store) DeleteEntity(ctx context.Context, id, scopeID string) error {
	if _, err := s.FindEntityByID(ctx, id, scopeID); err != nil {
		return err
	}
	tables, err := s.relationshipTables(ctx)
	if err != nil {
		return err
	}
	for _, t := range tables {
		if _, err := s.query(ctx, fmt.Sprintf(`DELETE %s WHERE in = $id OR out = $id;`, t), map[string]interface{}{"id": id}); err != nil {
			return fmt.Errorf("surrealdb: delete entity relationships in %s: %w", t, err)
		}
	}
	if _, err := s.query(ctx, `DELETE $id;`, map[string]interface{}{"id": id}); err != nil {
		return fmt.Errorf("surrealdb: delete entity: %w", err)
	}
	return nil
}

// ListEntities returns entities matching f.
func (s *Store) ListEntities(ctx context.Context, f storage.ListFilter) ([]storage.Entity, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT * FROM entity WHERE scopeId = $scopeId`
	params := map[string]interface{}{"scopeId": f.ScopeID, "limit": limit, "offset": f.Offset}
	if len(f.Labels) > 0 {
		q += ` AND label IN $labels`
		params["labels"] = f.Labels
	}
	q += ` ORDER BY id LIMIT $limit START $offset;`

	res, err := s.query(ctx, q, params)
	if err != nil {
		return nil, fmt.Errorf("surrealdb: list entities: %w", err)
	}
	out := make([]storage.Entity, 0)
	for _, row := range rows(res) {
		e := toEntity(row)
		if !storage.ContextsMatch(storage.ContextIDsOf(e.Properties), f.Contexts) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
