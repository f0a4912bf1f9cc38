package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is bumped whenever a table definition changes.
const SchemaVersion = "1"

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	root        TEXT NOT NULL,
	branch      TEXT NOT NULL DEFAULT '',
	started_at  TEXT NOT NULL,
	file_count  INTEGER NOT NULL DEFAULT 0,
	symbol_count INTEGER NOT NULL DEFAULT 0
)`

const createFilesTable = `
CREATE TABLE IF NOT EXISTS files (
	run_id    TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	file_path TEXT NOT NULL,
	language  TEXT NOT NULL,
	line_count INTEGER NOT NULL,
	diagnostic_count INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, file_path)
)`

const createSymbolsTable = `
CREATE TABLE IF NOT EXISTS symbols (
	run_id     TEXT NOT NULL,
	file_path  TEXT NOT NULL,
	ordinal    INTEGER NOT NULL,
	name       TEXT NOT NULL,
	qualified_name TEXT NOT NULL,
	kind       TEXT NOT NULL,
	line       INTEGER NOT NULL,
	col        INTEGER NOT NULL,
	byte_offset INTEGER NOT NULL,
	scope_path TEXT NOT NULL,
	form       TEXT NOT NULL,
	language   TEXT NOT NULL,
	PRIMARY KEY (run_id, file_path, ordinal),
	FOREIGN KEY (run_id, file_path) REFERENCES files(run_id, file_path) ON DELETE CASCADE
)`

const createMetadataTable = `
CREATE TABLE IF NOT EXISTS schema_metadata (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

func getAllIndexes() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)",
		"CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(run_id, name)",
		"CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(run_id, kind)",
	}
}

// CreateSchema creates the runs, files and symbols tables and their indexes.
// All statements run in one transaction and are idempotent.
//
// Must be called with SQLite PRAGMA foreign_keys = ON.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Dependency order.
	tables := []struct {
		name string
		ddl  string
	}{
		{"runs", createRunsTable},
		{"files", createFilesTable},
		{"symbols", createSymbolsTable},
		{"schema_metadata", createMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range getAllIndexes() {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	_, err = tx.Exec(
		"INSERT OR REPLACE INTO schema_metadata (key, value, updated_at) VALUES (?, ?, ?)",
		"schema_version", SchemaVersion, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to write schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// GetSchemaVersion returns the stored schema version, or "" for a fresh database.
func GetSchemaVersion(db *sql.DB) (string, error) {
	var version string
	err := db.QueryRow("SELECT value FROM schema_metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// Open opens (creating if needed) the SQLite database at dbPath and makes sure
// the schema exists. The caller owns the returned connection.
func Open(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}
	// One connection keeps the pragma and :memory: databases consistent.
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
