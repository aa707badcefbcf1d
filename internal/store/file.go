package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"lunch-system/internal/domain"
)

// FileStore keeps the document in a local JSON file. It is meant for a
// single process; the mutex makes the revision check atomic within it.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Mode() string { return ModeFile }

func (s *FileStore) Load(ctx context.Context) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) read() (domain.Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return emptyDocument(), nil
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return decodeDocument(data)
}

func (s *FileStore) Save(ctx context.Context, doc domain.Document, expected int64) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}

	current, err := s.read()
	if err != nil {
		return domain.Document{}, err
	}
	if current.Revision != expected {
		return domain.Document{}, ErrRevisionConflict
	}

	stored, data, err := encodeDocument(doc, expected)
	if err != nil {
		return domain.Document{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".db-*.json")
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return domain.Document{}, fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return domain.Document{}, fmt.Errorf("failed to write document: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return domain.Document{}, fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return stored, nil
}

func (s *FileStore) Ping(ctx context.Context) error {
	_, err := os.Stat(filepath.Dir(s.path))
	return err
}
