// Package surrealdb implements the storage.Provider contract against a
// remote SurrealDB server, using its native MTREE vector index for
// similarity search.
package surrealdb

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/madeindigio/graphrag/internal/storage"
	sdb "github.com/surrealdb/surrealdb.go"
)

// Config describes how to reach and authenticate against a SurrealDB
// server.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
	Timeout   time.Duration
}

// Store implements storage.Provider against a remote SurrealDB instance.
type Store struct {
	cfg Config
	db  *sdb.DB
	dim int

	relMu     sync.Mutex
	relTables map[string]bool
}

// New builds a Store bound to cfg. Connect must be called before use.
func New(cfg Config) *Store {
	if cfg.Namespace == "" {
		cfg.Namespace = "graphrag"
	}
	if cfg.Database == "" {
		cfg.Database = "graphrag"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Store{cfg: cfg, relTables: map[string]bool{relationshipTable(storage.ContainsEntityType): true}}
}

// Connect opens the SurrealDB connection, authenticates, and selects the
// configured namespace/database.
func (s *Store) Connect(ctx context.Context) error {
	if s.cfg.URL == "" {
		return fmt.Errorf("surrealdb: URL is required")
	}

	db, err := sdb.New(s.cfg.URL)
	if err != nil {
		return fmt.Errorf("surrealdb: connect: %w", err)
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		if _, err := db.SignIn(map[string]interface{}{
			"user": s.cfg.Username,
			"pass": s.cfg.Password,
		}); err != nil {
			return fmt.Errorf("surrealdb: authenticate: %w", err)
		}
	}

	if err := db.Use(s.cfg.Namespace, s.cfg.Database); err != nil {
		return fmt.Errorf("surrealdb: select namespace/database: %w", err)
	}

	s.db = db
	slog.Info("connected to surrealdb", "url", s.cfg.URL, "namespace", s.cfg.Namespace, "database", s.cfg.Database)
	return nil
}

// Disconnect closes the underlying connection.
func (s *Store) Disconnect(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("surrealdb: not connected")
	}
	_, err := sdb.Query[[]map[string]interface{}](ctx, s.db, "SELECT 1", nil)
	return err
}

// EnsureVectorIndex applies the schema for the configured dimension,
// including the MTREE vector indexes on documents and entities.
func (s *Store) EnsureVectorIndex(ctx context.Context, dimension int) error {
	if s.db == nil {
		return fmt.Errorf("surrealdb: not connected")
	}
	s.dim = dimension
	return s.applySchema(ctx, dimension)
}
