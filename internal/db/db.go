package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	conn *sql.DB
	Path string
}

// OpenDB opens a SQLite database with WAL mode and foreign keys enabled
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return &DB{conn: conn, Path: path}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying sql.DB for custom queries
func (d *DB) Conn() *sql.DB {
	return d.conn
}

// InitSchema creates the nodes and edges tables if they do not exist.
// Safe to call on every open; existing data is untouched.
func (d *DB) InitSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS nodes (
			id    TEXT PRIMARY KEY,
			type  TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			body  TEXT NOT NULL DEFAULT '',
			extra TEXT NOT NULL DEFAULT '{}',
			ts    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(type)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_ts ON nodes(ts)`,
		`CREATE TABLE IF NOT EXISTS edges (
			id         TEXT PRIMARY KEY,
			source_id  TEXT NOT NULL,
			target_id  TEXT NOT NULL,
			rel        TEXT NOT NULL,
			extra      TEXT NOT NULL DEFAULT '{}',
			created_at TEXT,
			UNIQUE(source_id, target_id, rel)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id)`,
	}
	for _, stmt := range stmts {
		if _, err := d.conn.Exec(stmt); err != nil {
			return fmt.Errorf("initializing schema: %w", err)
		}
	}
	return nil
}
