// Package sqlite provides SQLite-backed persistence for document chunks
// and the sales ledger using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/ledger-labs/salescope/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/ledger-labs/salescope/internal/core/ports/driven"
	"github.com/ledger-labs/salescope/internal/logger"
)

// DefaultDBFileName is the database file name inside the data directory.
const DefaultDBFileName = "salescope.db"

// Store owns the SQLite database handle shared by the chunk and sales stores.
type Store struct {
	db     *sql.DB
	metric driven.SimilarityMetric
}

// Option configures a Store.
type Option func(*Store)

// WithSimilarityMetric sets the metric used for vector search
// (default: cosine).
func WithSimilarityMetric(m driven.SimilarityMetric) Option {
	return func(s *Store) {
		s.metric = m
	}
}

// NewStore opens (creating if needed) the database under dataDir and runs
// pending migrations.
func NewStore(dataDir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DefaultDBFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL keeps readers unblocked while indexing writes chunks.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	store := &Store{
		db:     db,
		metric: driven.MetricCosine,
	}
	for _, opt := range opts {
		opt(store)
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Debug("sqlite store ready at %s", dbPath)
	return store, nil
}

// migrate applies embedded migration files in lexical order.
func (s *Store) migrate() error {
	entries, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(entries)

	for _, name := range entries {
		content, err := migrations.FS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// ChunkStore returns the chunk persistence and search interface.
func (s *Store) ChunkStore() *ChunkStore {
	return &ChunkStore{db: s.db, metric: s.metric}
}

// SalesStore returns the sales ledger interface.
func (s *Store) SalesStore() *SalesStore {
	return &SalesStore{db: s.db}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
