// Package jsonfile persists the chunk sequence as a single JSON record file
// of the form {"docs": [{"doc_id", "chunk_id", "text"}, ...]}.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"docqa/internal/domain"
)

type record struct {
	Docs []domain.Chunk `json:"docs"`
}

// Journal keeps the whole sequence in memory and rewrites the file on every
// append through a temporary file and rename.
type Journal struct {
	mu     sync.Mutex
	path   string
	chunks []domain.Chunk
}

var _ domain.Journal = (*Journal)(nil)

// New returns a journal stored at path. Nothing is read until Load.
func New(path string) *Journal {
	return &Journal{path: path}
}

// Load reads the file. A missing file is an empty sequence.
func (j *Journal) Load(_ context.Context) ([]domain.Chunk, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	data, err := os.ReadFile(j.path)
	if errors.Is(err, os.ErrNotExist) {
		j.chunks = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", j.path, err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", j.path, err)
	}
	j.chunks = rec.Docs
	return append([]domain.Chunk(nil), rec.Docs...), nil
}

// Append adds chunks to the end of the sequence and persists it.
func (j *Journal) Append(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	next := append(append([]domain.Chunk(nil), j.chunks...), chunks...)
	if err := j.write(next); err != nil {
		return err
	}
	j.chunks = next
	return nil
}

func (j *Journal) write(chunks []domain.Chunk) error {
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(record{Docs: chunks}, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(j.path), filepath.Base(j.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), j.path)
}

// Close is a no-op; every Append is already on disk.
func (j *Journal) Close() error { return nil }
