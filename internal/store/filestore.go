package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spec-kit/helpdesk-bot/internal/domain"
)

// FileStore keeps the document in a single JSON file. Writes go to a temp
// file in the same directory, are synced, then renamed over the target, so a
// crash mid-save leaves the previous document intact.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the document, creating a default-populated one on first use.
func (s *FileStore) Load(ctx context.Context) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

// Save performs a full overwrite of the document.
func (s *FileStore) Save(ctx context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, doc)
}

// Update runs fn against the current document and commits the result. The
// store mutex holds for the whole cycle, so concurrent updates serialize.
func (s *FileStore) Update(ctx context.Context, fn func(doc *domain.Document) error) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	if err := s.saveLocked(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *FileStore) loadLocked(ctx context.Context) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		doc := domain.NewDocument()
		if err := s.saveLocked(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	doc := &domain.Document{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	doc.ApplyDefaults()
	return doc, nil
}

func (s *FileStore) saveLocked(ctx context.Context, doc *domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}
