package surrealdb

import (
	"context"
	"fmt"

	"github.com/madeindigio/graphrag/internal/storage"
)

// RetrieveSubgraph performs a bounded breadth-first expansion from
// q.StartIDs, hopping across every relationship table known to this
// Store up to q.MaxDepth levels, deduplicating entities/relationships by
// id.
func (s *Store) RetrieveSubgraph(ctx context.Context, q storage.SubgraphQuery) (*storage.Subgraph, error) {
	if err := storage.ValidateMaxDepth(q.MaxDepth); err != nil {
		return nil, err
	}

	tables, err := s.relationshipTables(ctx)
	if err != nil {
		return nil, err
	}
	relFilter := make(map[string]bool, len(q.RelTypes))
	for _, t := range q.RelTypes {
		relFilter[t] = true
	}

	visitedEntities := make(map[string]storage.Entity)
	visitedRels := make(map[string]storage.Relationship)
	frontier := append([]string{}, q.StartIDs...)
	if len(frontier) == 0 && len(q.Labels) > 0 {
		seeded, err := s.entityIDsByLabels(ctx, q.Labels, q.ScopeID)
		if err != nil {
			return nil, err
		}
		frontier = seeded
	}
	seenFrontier := make(map[string]bool, len(frontier))
	for _, id := range frontier {
		seenFrontier[id] = true
	}

	for depth := 0; depth < q.MaxDepth && len(frontier) > 0; depth++ {
		next := make([]string, 0)
		for _, t := range tables {
			relType := relationshipTypeFromTable(t)
			if len(relFilter) > 0 && !relFilter[relType] {
				continue
			}
			res, err := s.query(ctx, fmt.Sprintf(`SELECT * FROM %s WHERE in IN $ids OR out IN $ids;`, t), map[string]interface{}{
				"ids": frontier,
			})
			if err != nil {
				return nil, fmt.Errorf("surrealdb: expand subgraph via %s: %w", t, err)
			}
			for _, row := range rows(res) {
				r := toRelationship(t, row)
				if q.ScopeID != "" && storage.ScopeIDOf(r.Properties) != q.ScopeID && getString(row, "scopeId") != q.ScopeID {
					continue
				}
				visitedRels[r.ID] = r
				for _, candidate := range []string{r.From, r.To} {
					if !seenFrontier[candidate] {
						seenFrontier[candidate] = true
						next = append(next, candidate)
					}
				}
			}
		}
		frontier = next
	}

	for id := range visitedRels {
		r := visitedRels[id]
		for _, entityID := range []string{r.From, r.To} {
			if _, ok := visitedEntities[entityID]; ok {
				continue
			}
			e, err := s.FindEntityByID(ctx, entityID, q.ScopeID)
			if err != nil {
				if err == storage.ErrNotFound {
					continue
				}
				return nil, fmt.Errorf("surrealdb: load subgraph entity %s: %w", entityID, err)
			}
			visitedEntities[entityID] = *e
		}
	}

	out := &storage.Subgraph{
		Entities:      make([]storage.Entity, 0, len(visitedEntities)),
		Relationships: make([]storage.Relationship, 0, len(visitedRels)),
	}
	for _, e := range visitedEntities {
		out.Entities = append(out.Entities, e)
		if q.Limit > 0 && len(out.Entities) >= q.Limit {
			break
		}
	}
	for _, r := range visitedRels {
		out.Relationships = append(out.Relationships, r)
		if q.Limit > 0 && len(out.Relationships) >= q.Limit {
			break
		}
	}
	return out, nil
}

// entityIDsByLabels returns the ids of every scope-matching entity whose
// label is in labels, used to seed the BFS frontier when the caller gave
// no explicit start ids.
func (s *Store) entityIDsByLabels(ctx context.Context, labels []string, scopeID string) ([]string, error) {
	res, err := s.query(ctx, `SELECT id FROM entity WHERE label IN $labels AND ($scopeId = "" OR scopeId = $scopeId);`, map[string]interface{}{
		"labels":  labels,
		"scopeId": scopeID,
	})
	if err != nil {
		return nil, fmt.Errorf("surrealdb: seed subgraph frontier by labels: %w", err)
	}
	ids := make([]string, 0)
	for _, row := range rows(res) {
		ids = append(ids, recordID(row["id"]))
	}
	return ids, nil
}
