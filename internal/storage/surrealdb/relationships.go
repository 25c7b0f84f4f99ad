package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/madeindigio/graphrag/internal/storage"
)

func toRelationship(table string, row map[string]interface{}) storage.Relationship {
	return storage.Relationship{
		ID:         recordID(row["id"]),
		Type:       relationshipTypeFromTable(table),
		From:       recordID(row["in"]),
		To:         recordID(row["out"]),
		Properties: getMap(row, "properties"),
	}
}

func relationshipTypeFromTable(table string) string {
	return strings.TrimPrefix(table, "rel_")
}

// CreateRelationships inserts relationship edges, one dynamic table per
// relationship type (RELATE in->rel_TYPE->out).
func (s *Store) CreateRelationships(ctx context.Context, rels []storage.Relationship, scopeID string) ([]storage.Relationship, error) {
	out := make([]storage.Relationship, 0, len(rels))
	for _, r := range rels {
		if err := s.ensureRelationshipTable(ctx, r.Type); err != nil {
			return nil, err
		}
		table := relationshipTable(r.Type)
		q := fmt.Sprintf(`RELATE $from->%s->$to CONTENT { properties: $properties, scopeId: $scopeId } RETURN *;`, table)
		res, err := s.query(ctx, q, map[string]interface{}{
			"from": r.From, "to": r.To, "properties": r.Properties, "scopeId": scopeID,
		})
		if err != nil {
			return nil, fmt.Errorf("surrealdb: create relationship %s %s->%s: %w", r.Type, r.From, r.To, err)
		}
		row, ok := firstRow(res)
		if !ok {
			return nil, fmt.Errorf("surrealdb: create relationship %s: no row returned", r.Type)
		}
		out = append(out, toRelationship(table, row))
	}
	return out, nil
}

// LinkEntityToDocument creates the reserved CONTAINS_ENTITY edge from a
// document to an entity it was extracted from.
func (s *Store) LinkEntityToDocument(ctx context.Context, docID, entityID, scopeID string) (*storage.Relationship, error) {
	rels, err := s.CreateRelationships(ctx, []storage.Relationship{{
		Type: storage.ContainsEntityType,
		From: docID,
		To:   entityID,
	}}, scopeID)
	if err != nil {
		return nil, err
	}
	return &rels[0], nil
}

// EntitiesForDocument returns every entity linked to docID via
// CONTAINS_ENTITY.
func (s *Store) EntitiesForDocument(ctx context.Context, docID, scopeID string) ([]storage.Entity, error) {
	table := relationshipTable(storage.ContainsEntityType)
	res, err := s.query(ctx, fmt.Sprintf(`SELECT out.* AS entity FROM %s WHERE in = $docId;`, table), map[string]interface{}{
		"docId": docID,
	})
	if err != nil {
		return nil, fmt.Errorf("surrealdb: entities for document: %w", err)
	}
	out := make([]storage.Entity, 0)
	for _, row := range rows(res) {
		if em, ok := row["entity"].(map[string]interface{}); ok {
			e := toEntity(em)
			if scopeID == "" || storage.ScopeIDOf(e.Properties) == scopeID {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// findRelationshipRow resolves id's owning table from its "table:id"
// prefix and fetches the row.
func (s *Store) findRelationshipRow(ctx context.Context, id string) (string, map[string]interface{}, error) {
	table, _, ok := strings.Cut(id, ":")
	if !ok {
		return "", nil, storage.ErrNotFound
	}
	res, err := s.query(ctx, `SELECT * FROM $id;`, map[string]interface{}{"id": id})
	if err != nil {
		return "", nil, fmt.Errorf("surrealdb: find relationship: %w", err)
	}
	row, ok := firstRow(res)
	if !ok {
		return "", nil, storage.ErrNotFound
	}
	return table, row, nil
}

// FindRelationshipByID looks up a relationship by id, scoped to scopeID
// when non-empty.
func (s *Store) FindRelationshipByID(ctx context.Context, id, scopeID string) (*storage.Relationship, error) {
	table, row, err := s.findRelationshipRow(ctx, id)
	if err != nil {
		return nil, err
	}
	r := toRelationship(table, row)
	if scopeID != "" && storage.ScopeIDOf(r.Properties) != scopeID && getString(row, "scopeId") != scopeID {
		return nil, storage.ErrNotFound
	}
	return &r, nil
}

// UpdateRelationship applies a pre-filtered patch to a relationship's
// properties.
func (s *Store) UpdateRelationship(ctx context.Context, id, scopeID string, patch map[string]interface{}) (*storage.Relationship, error) {
	table, row, err := s.findRelationshipRow(ctx, id)
	if err != nil {
		return nil, err
	}
	existing := toRelationship(table, row)
	if scopeID != "" && getString(row, "scopeId") != scopeID {
		return nil, storage.ErrNotFound
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
		return nil, fmt.Errorf("surrealdb: update relationship: %w", err)
	}
	newRow, ok := firstRow(res)
	if !ok {
		return nil, storage.ErrNotFound
	}
	r := toRelationship(table, newRow)
	return &r, nil
}

// DeleteRelationship removes one relationship edge.
func (s *Store) DeleteRelationship(ctx context.Context, id, scopeID string) error {
	if _, err := s.FindRelationshipByID(ctx, id, scopeID); err != nil {
		return err
	}
	if _, err := s.query(ctx, `DELETE $id;`, map[string]interface{}{"id": id}); err != nil {
		return fmt.Errorf("surrealdb: delete relationship: %w", err)
	}
	return nil
}

// ListRelationships returns relationships matching f across every known
// relationship table.
func (s *Store) ListRelationships(ctx context.Context, f storage.ListFilter) ([]storage.Relationship, error) {
	tables, err := s.relationshipTables(ctx)
	if err != nil {
		return nil, err
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	out := make([]storage.Relationship, 0)
	for _, t := range tables {
		relType := relationshipTypeFromTable(t)
		if len(f.Labels) > 0 && !containsStr(f.Labels, relType) {
			continue
		}
		res, err := s.query(ctx, fmt.Sprintf(`SELECT * FROM %s WHERE scopeId = $scopeId;`, t), map[string]interface{}{
			"scopeId": f.ScopeID,
		})
		if err != nil {
			return nil, fmt.Errorf("surrealdb: list relationships in %s: %w", t, err)
		}
		for _, row := range rows(res) {
			r := toRelationship(t, row)
			if !storage.ContextsMatch(storage.ContextIDsOf(r.Properties), f.Contexts) {
				continue
			}
			out = append(out, r)
		}
	}
	if f.Offset < len(out) {
		out = out[f.Offset:]
	} else {
		out = nil
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func containsStr(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
