package sqlite

import (
	"context"
	"fmt"

	"github.com/madeindigio/graphrag/internal/storage"
)

// RetrieveSubgraph performs a bounded breadth-first expansion from
// q.StartIDs over the relationships table, up to q.MaxDepth levels,
// deduplicating entities/relationships by id.
func (s *Store) RetrieveSubgraph(ctx context.Context, q storage.SubgraphQuery) (*storage.Subgraph, error) {
	if err := storage.ValidateMaxDepth(q.MaxDepth); err != nil {
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
		placeholders := ""
		args := make([]interface{}, 0, len(frontier)*2)
		for i, id := range frontier {
			if i > 0 {
				placeholders += ","
			}
			placeholders += "?"
			args = append(args, id)
		}
		for _, id := range frontier {
			args = append(args, id)
		}
		query := fmt.Sprintf(`SELECT id, type, from_id, to_id, properties, scope_id FROM relationships WHERE from_id IN (%s) OR to_id IN (%s)`, placeholders, placeholders)
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("sqlite: expand subgraph: %w", err)
		}
		for rows.Next() {
			var id, relType, fromID, toID, propsJSON, sid string
			if err := rows.Scan(&id, &relType, &fromID, &toID, &propsJSON, &sid); err != nil {
				rows.Close()
				return nil, fmt.Errorf("sqlite: scan subgraph relationship: %w", err)
			}
			if len(relFilter) > 0 && !relFilter[relType] {
				continue
			}
			if q.ScopeID != "" && sid != q.ScopeID {
				continue
			}
			r, err := scanRelationship(id, relType, fromID, toID, propsJSON)
			if err != nil {
				rows.Close()
				return nil, err
			}
			visitedRels[r.ID] = r
			for _, candidate := range []string{r.From, r.To} {
				if !seenFrontier[candidate] {
					seenFrontier[candidate] = true
					next = append(next, candidate)
				}
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
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
				return nil, fmt.Errorf("sqlite: load subgraph entity %s: %w", entityID, err)
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
	placeholders := ""
	args := make([]interface{}, 0, len(labels)+1)
	for i, l := range labels {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args = append(args, l)
	}
	query := fmt.Sprintf(`SELECT id FROM entities WHERE label IN (%s)`, placeholders)
	if scopeID != "" {
		query += " AND scope_id = ?"
		args = append(args, scopeID)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: seed subgraph frontier by labels: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scan seed entity id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
