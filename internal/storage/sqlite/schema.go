package sqlite

import (
	"context"
	"fmt"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	text TEXT NOT NULL,
	properties TEXT NOT NULL,
	embedding TEXT NOT NULL,
	scope_id TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_scope ON documents(scope_id);

CREATE TABLE IF NOT EXISTS entities (
	id TEXT PRIMARY KEY,
	label TEXT NOT NULL,
	properties TEXT NOT NULL,
	embedding TEXT NOT NULL,
	scope_id TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entities_scope ON entities(scope_id);
CREATE INDEX IF NOT EXISTS idx_entities_label ON entities(label);

CREATE TABLE IF NOT EXISTS relationships (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	from_id TEXT NOT NULL,
	to_id TEXT NOT NULL,
	properties TEXT NOT NULL,
	scope_id TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_relationships_scope ON relationships(scope_id);
CREATE INDEX IF NOT EXISTS idx_relationships_endpoints ON relationships(from_id, to_id);
CREATE INDEX IF NOT EXISTS idx_relationships_type ON relationships(type);
`

func (s *Store) applySchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}
