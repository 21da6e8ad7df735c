// Package store provides a SQLite-backed document registry. Each ingested
// document gets a row here; its chunks live in the vector store keyed by the
// document ID, so deleting a registry row and its vectors together removes
// the document from the corpus.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/docuchat/docuchat-go/internal/rag"
)

// DocumentStore persists document registry records. Implementations must be
// safe for concurrent use.
type DocumentStore interface {
	// Create registers a new document and returns it with a fresh ID.
	Create(ctx context.Context, name string) (rag.Document, error)
	// Get returns the document with the given ID, or rag.ErrNotFound.
	Get(ctx context.Context, id string) (rag.Document, error)
	// List returns all documents, newest first.
	List(ctx context.Context) ([]rag.Document, error)
	// Delete removes the document with the given ID, or rag.ErrNotFound.
	Delete(ctx context.Context, id string) error
	// Close releases any resources held by the store.
	Close() error
}

// SQLiteStore is a DocumentStore backed by a local SQLite database.
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the document registry database.
// It resolves to ~/.docuchat/documents.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".docuchat")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "documents.db"), nil
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
    id           TEXT    PRIMARY KEY,
    name         TEXT    NOT NULL,
    created_at   INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE INDEX IF NOT EXISTS idx_documents_created
    ON documents (created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Create registers a new document under a fresh UUID.
func (s *SQLiteStore) Create(ctx context.Context, name string) (rag.Document, error) {
	doc := rag.Document{
		ID:        uuid.NewString(),
		Source:    name,
		CreatedAt: time.Now().Truncate(time.Second),
	}
	const q = `INSERT INTO documents (id, name, created_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, doc.ID, doc.Source, doc.CreatedAt.Unix()); err != nil {
		return rag.Document{}, fmt.Errorf("store: create document: %w", err)
	}
	return doc, nil
}

// Get returns the document with the given ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (rag.Document, error) {
	const q = `SELECT id, name, created_at FROM documents WHERE id = ?`
	var doc rag.Document
	var ts int64
	err := s.db.QueryRowContext(ctx, q, id).Scan(&doc.ID, &doc.Source, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return rag.Document{}, fmt.Errorf("store: document %s: %w", id, rag.ErrNotFound)
	}
	if err != nil {
		return rag.Document{}, fmt.Errorf("store: get document: %w", err)
	}
	doc.CreatedAt = time.Unix(ts, 0)
	return doc, nil
}

// List returns all documents, newest first. Ties on creation time are broken
// by ID for a stable order.
func (s *SQLiteStore) List(ctx context.Context) ([]rag.Document, error) {
	const q = `SELECT id, name, created_at FROM documents ORDER BY created_at DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: list documents: %w", err)
	}
	defer rows.Close()

	var docs []rag.Document
	for rows.Next() {
		var doc rag.Document
		var ts int64
		if err := rows.Scan(&doc.ID, &doc.Source, &ts); err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}
		doc.CreatedAt = time.Unix(ts, 0)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list rows: %w", err)
	}
	return docs, nil
}

// Delete removes the document with the given ID. Deleting an unknown ID
// returns rag.ErrNotFound.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("store: delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("store: document %s: %w", id, rag.ErrNotFound)
	}
	return nil
}

// Ping verifies the database connection for readiness probes.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store: ping: %w", err)
	}
	return nil
}

// Name identifies this dependency in readiness reports.
func (s *SQLiteStore) Name() string { return "documents-db" }

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
