package surrealdb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/madeindigio/graphrag/internal/storage"
)

const containsEntityType = storage.ContainsEntityType

type schemaElement struct {
	kind      string // "table", "field", "index"
	statement string
}

func (s *Store) applySchema(ctx context.Context, dimension int) error {
	elements := []schemaElement{
		{"table", `DEFINE TABLE document SCHEMALESS;`},
		{"table", `DEFINE TABLE entity SCHEMALESS;`},
		{"table", fmt.Sprintf(`DEFINE TABLE %s SCHEMALESS;`, relationshipTable(containsEntityType))},

		{"index", `DEFINE INDEX idx_document_scope ON document FIELDS scopeId;`},
		{"index", fmt.Sprintf(`DEFINE INDEX idx_document_embedding ON document FIELDS embedding MTREE DIMENSION %d DIST COSINE;`, dimension)},
		{"index", `DEFINE INDEX idx_entity_scope ON entity FIELDS scopeId;`},
		{"index", `DEFINE INDEX idx_entity_name ON entity FIELDS properties.name;`},
		{"index", fmt.Sprintf(`DEFINE INDEX idx_entity_embedding ON entity FIELDS embedding MTREE DIMENSION %d DIST COSINE;`, dimension)},
	}

	for _, el := range elements {
		if _, err := s.query(ctx, el.statement, nil); err != nil {
			if isAlreadyExistsError(err) {
				slog.Debug("schema element already present", "kind", el.kind, "statement", el.statement)
				continue
			}
			return fmt.Errorf("surrealdb: apply schema element %q: %w", el.statement, err)
		}
	}
	return nil
}

// relationshipTable returns the SurrealDB table name for a dynamic
// relationship type, sanitized to a legal identifier.
func relationshipTable(relType string) string {
	return "rel_" + sanitizeIdent(relType)
}

func sanitizeIdent(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			out = append(out, c)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}

func (s *Store) ensureRelationshipTable(ctx context.Context, relType string) error {
	table := relationshipTable(relType)

	s.relMu.Lock()
	known := s.relTables[table]
	if !known {
		s.relTables[table] = true
	}
	s.relMu.Unlock()
	if known {
		return nil
	}

	stmt := fmt.Sprintf(`DEFINE TABLE %s SCHEMALESS;`, table)
	if _, err := s.query(ctx, stmt, nil); err != nil && !isAlreadyExistsError(err) {
		return fmt.Errorf("surrealdb: define relationship table %s: %w", table, err)
	}
	return nil
}

// relationshipTables returns every relationship table this Store knows
// about (created this session, plus the built-in containment table).
func (s *Store) relationshipTables(ctx context.Context) ([]string, error) {
	s.relMu.Lock()
	defer s.relMu.Unlock()
	out := make([]string, 0, len(s.relTables))
	for t := range s.relTables {
		out = append(out, t)
	}
	return out, nil
}
