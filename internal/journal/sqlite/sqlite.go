// Package sqlite persists the chunk sequence in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"docqa/internal/domain"
)

// Journal stores chunks in a table keyed by their global position.
type Journal struct {
	db   *sql.DB
	path string
}

var _ domain.Journal = (*Journal)(nil)

// NewJournal creates a Journal for the given path.
// Use ":memory:" for an in-memory database.
func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

// Open opens the database connection and creates the schema if needed.
func (j *Journal) Open() error {
	if j.path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	conn, err := sql.Open("sqlite3", j.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit to one connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if j.path != ":memory:" {
		if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
			conn.Close()
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS chunks (
			position INTEGER PRIMARY KEY,
			doc_id TEXT NOT NULL,
			chunk_id TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_chunks_doc_id ON chunks(doc_id);
	`); err != nil {
		conn.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}
	j.db = conn
	return nil
}

// Load returns every chunk in position order.
func (j *Journal) Load(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT doc_id, chunk_id, text FROM chunks ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.DocumentID, &c.ChunkID, &c.Text); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Append writes chunks after the current last position in one transaction.
func (j *Journal) Append(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM chunks`).Scan(&next); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (position, doc_id, chunk_id, text) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, c := range chunks {
		if _, err := stmt.ExecContext(ctx, next+i, c.DocumentID, c.ChunkID, c.Text); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ChunkID, err)
		}
	}
	return tx.Commit()
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}
