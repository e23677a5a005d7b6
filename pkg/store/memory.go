package store

import (
	"context"
	"sort"
	"sync"

	"github.com/loci-dev/loci/pkg/construction"
	"github.com/loci-dev/loci/pkg/errors"
)

// MemoryStore keeps documents in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]construction.Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]construction.Document)}
}

// Save stores or replaces a named document.
func (s *MemoryStore) Save(_ context.Context, name string, doc construction.Document) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "document name must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = doc
	return nil
}

// Load retrieves a document by name.
func (s *MemoryStore) Load(_ context.Context, name string) (construction.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[name]
	if !ok {
		return construction.Document{}, errors.New(errors.ErrCodeNotFound, "no document named %q", name)
	}
	return doc, nil
}

// List returns all stored names, sorted.
func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a document by name.
func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[name]; !ok {
		return errors.New(errors.ErrCodeNotFound, "no document named %q", name)
	}
	delete(s.docs, name)
	return nil
}

// Close does nothing for the memory store.
func (s *MemoryStore) Close(context.Context) error { return nil }

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
