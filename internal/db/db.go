package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// StateDir is the per-workspace directory holding the database.
const StateDir = ".emds"

// EnsureWorkspace creates the state directory if missing and returns it.
func EnsureWorkspace(workspace string) (string, error) {
	if workspace == "" {
		workspace = "."
	}
	dir := filepath.Join(workspace, StateDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// Open opens <workspace>/.emds/emds.db. A single connection serves the
// process; busy_timeout covers a second process holding the write lock.
func Open(workspace string) (*sql.DB, error) {
	dir, err := EnsureWorkspace(workspace)
	if err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", filepath.Join(dir, "emds.db"))
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	conn.SetMaxOpenConns(1)
	return conn, nil
}
