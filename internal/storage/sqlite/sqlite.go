// Package sqlite implements the storage.Provider contract against an
// embedded SQLite database. SQLite has no native vector index, so
// similarity search falls back to an in-memory cosine ranking over a
// scope-bounded candidate set (see storage.RankByCosine).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Config points the embedded backend at a database file. Use ":memory:"
// for an ephemeral in-process store.
type Config struct {
	Path string
}

// Store implements storage.Provider against an embedded SQLite database.
type Store struct {
	cfg Config
	db  *sql.DB
}

// New builds a Store bound to cfg. Connect must be called before use.
func New(cfg Config) *Store {
	if cfg.Path == "" {
		cfg.Path = ":memory:"
	}
	return &Store{cfg: cfg}
}

// Connect opens the database file and creates the schema if absent.
func (s *Store) Connect(ctx context.Context) error {
	db, err := sql.Open("sqlite3", s.cfg.Path+"?_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	s.db = db
	return s.applySchema(ctx)
}

// Disconnect closes the underlying database handle.
func (s *Store) Disconnect(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("sqlite: not connected")
	}
	return s.db.PingContext(ctx)
}

// EnsureVectorIndex is a documented no-op: SQLite has no native vector
// index in this configuration, so similarity search always uses the
// in-memory cosine fallback regardless of dimension.
func (s *Store) EnsureVectorIndex(ctx context.Context, dimension int) error {
	return nil
}
