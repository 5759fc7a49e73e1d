// Package database provides the sqlite store backing run history and the
// plan cache.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the sqlite connection.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and applies the
// schema. sqlite allows a single writer, so the pool is capped at one
// connection.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	pragmas := `PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;`
	if _, err := conn.Exec(pragmas); err != nil {
		conn.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	status TEXT NOT NULL,
	total_fee INTEGER NOT NULL,
	total_shortfall INTEGER NOT NULL,
	runtime_sec REAL NOT NULL,
	mem_mb REAL NOT NULL DEFAULT 0,
	cpu_percent REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

CREATE TABLE IF NOT EXISTS plan_cache (
	fingerprint TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	payload BLOB NOT NULL
);`
	if _, err := d.conn.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Conn exposes the underlying connection for repositories.
func (d *DB) Conn() *sql.DB {
	return d.conn
}

// Path returns the database file location.
func (d *DB) Path() string {
	return d.path
}

// Close closes the connection.
func (d *DB) Close() error {
	return d.conn.Close()
}
