// Package storage abstracts access to raw photo bytes. The pipeline resolves
// a photo's stored reference through a BlobStore instead of touching files
// directly, so the backing can be a local directory today and an object store
// later.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound is returned when a blob reference does not resolve. The ingest
// pipeline treats it as transient: uploads may still be settling.
var ErrNotFound = errors.New("blob not found")

// BlobStore reads raw image bytes by stored reference.
type BlobStore interface {
	Read(ctx context.Context, ref string) ([]byte, error)
}

// FSStore implements BlobStore on a local directory tree.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem-backed blob store rooted at the given
// directory.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &FSStore{root: root}, nil
}

// Read returns the bytes of one blob. References must stay inside the root.
func (s *FSStore) Read(_ context.Context, ref string) ([]byte, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", ref, err)
	}
	if len(data) == 0 {
		// An empty file means the upload has not finished writing yet.
		return nil, ErrNotFound
	}
	return data, nil
}

// Write stores a blob under ref, creating parent directories as needed.
func (s *FSStore) Write(_ context.Context, ref string, data []byte) error {
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing blob %s: %w", ref, err)
	}
	return nil
}

func (s *FSStore) resolve(ref string) (string, error) {
	clean := filepath.Clean("/" + ref)
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("invalid blob reference %q", ref)
	}
	return filepath.Join(s.root, clean), nil
}

// MemStore is an in-memory BlobStore for tests.
type MemStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	// ReadError, when set, is returned by every Read.
	ReadError error
}

// NewMemStore creates an empty in-memory blob store.
func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string][]byte)}
}

// Put stores a blob.
func (s *MemStore) Put(ref string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[ref] = data
}

// Read returns a stored blob or ErrNotFound.
func (s *MemStore) Read(_ context.Context, ref string) ([]byte, error) {
	if s.ReadError != nil {
		return nil, s.ReadError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[ref]
	if !ok || len(data) == 0 {
		return nil, ErrNotFound
	}
	return data, nil
}
