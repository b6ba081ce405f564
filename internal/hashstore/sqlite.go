package hashstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/leakwatch/leakwatch/internal/types"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS hashes (
	sha     TEXT PRIMARY KEY,
	seen_at TEXT NOT NULL
)`

// SQLiteStore keeps the hash list in an SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates) the database at path with WAL journaling.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("hashstore: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("hashstore: open: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		schema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("hashstore: %s: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Hashes(ctx context.Context) (types.HashSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sha FROM hashes`)
	if err != nil {
		return nil, fmt.Errorf("hashstore: query: %w", err)
	}
	defer rows.Close()
	set := types.HashSet{}
	for rows.Next() {
		var sha string
		if err := rows.Scan(&sha); err != nil {
			return nil, fmt.Errorf("hashstore: scan: %w", err)
		}
		set.Add(sha)
	}
	return set, rows.Err()
}

func (s *SQLiteStore) Add(ctx context.Context, shas ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("hashstore: begin: %w", err)
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO hashes (sha, seen_at) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("hashstore: prepare: %w", err)
	}
	defer stmt.Close()
	stamp := time.Now().UTC().Format(time.RFC3339)
	for _, sha := range shas {
		if sha == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, sha, stamp); err != nil {
			return fmt.Errorf("hashstore: insert %s: %w", sha, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
