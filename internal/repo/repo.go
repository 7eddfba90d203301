package repo

import (
	"context"
	"database/sql"
	"errors"
)

// Repo is the key-value document gateway over the workspace database.
type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// GetDocument returns the stored value for key.
func (r Repo) GetDocument(ctx context.Context, key string) (string, error) {
	var value string
	err := r.DB.QueryRowContext(ctx, `SELECT value FROM kv_documents WHERE key=?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// PutDocumentTx replaces the whole value stored under key.
func (r Repo) PutDocumentTx(ctx context.Context, tx *sql.Tx, key, value, updatedAt string) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO kv_documents(key, value, updated_at) VALUES (?,?,?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, updatedAt)
	return err
}

// PutDocument runs PutDocumentTx in its own transaction.
func (r Repo) PutDocument(ctx context.Context, key, value, updatedAt string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := r.PutDocumentTx(ctx, tx, key, value, updatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// DocumentUpdatedAt reports when key was last written.
func (r Repo) DocumentUpdatedAt(ctx context.Context, key string) (string, error) {
	var ts string
	err := r.DB.QueryRowContext(ctx, `SELECT updated_at FROM kv_documents WHERE key=?`, key).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return ts, err
}
