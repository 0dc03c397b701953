package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Store methods run against either, so the same entity helpers serve both
// autocommit reads and transactional writes.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store exposes entity operations over a querier.
type Store struct {
	q   querier
	fts bool
}

// DB wraps a sql.DB connection to the strata SQLite database.
type DB struct {
	*sql.DB
	*Store
	Path string
}

// DefaultDBPath returns the default database path: ~/.strata/strata.db
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".strata", "strata.db"), nil
}

// Open opens (or creates) the SQLite database at the given path,
// configures pragmas, probes FTS5 support, and runs migrations.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return open(path)
}

// OpenMemory opens an in-memory SQLite database for testing.
func OpenMemory() (*DB, error) {
	return open(":memory:")
}

func open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection keeps in-memory databases coherent and lets WAL
	// writers queue on busy_timeout instead of SQLITE_BUSY errors.
	sqlDB.SetMaxOpenConns(1)

	db := &DB{DB: sqlDB, Path: path}
	if err := db.configurePragmas(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	fts := probeFTS5(sqlDB)
	db.Store = &Store{q: sqlDB, fts: fts}

	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *DB) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

// probeFTS5 checks the sqlite build's compile options for FTS5 support.
func probeFTS5(sqlDB *sql.DB) bool {
	rows, err := sqlDB.Query("PRAGMA compile_options")
	if err != nil {
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var opt string
		if err := rows.Scan(&opt); err != nil {
			return false
		}
		if strings.Contains(strings.ToUpper(opt), "FTS5") {
			return true
		}
	}
	return false
}

// FTSEnabled reports whether indexed text search is available. Callers branch
// on this instead of hard-coding assumptions about the sqlite build.
func (s *Store) FTSEnabled() bool {
	return s.fts
}

// WithTx runs fn inside a single transaction. SQLite serializes writers, so
// the transaction owns exclusive write access for its duration; observers
// never see a partially applied extraction or lifecycle pass.
func (db *DB) WithTx(fn func(s *Store) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Store{q: tx, fts: db.fts}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
