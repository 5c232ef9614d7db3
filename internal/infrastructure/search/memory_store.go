package search

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore is a process-local Store. Documents are stored as JSON so
// reads see the same shapes as the Redis store.
type MemoryStore struct {
	mu      sync.RWMutex
	indexes map[string]map[string][]byte
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{indexes: make(map[string]map[string][]byte)}
}

// BulkIndex writes or replaces the documents
func (s *MemoryStore) BulkIndex(ctx context.Context, index string, docs []Document) error {
	encoded := make(map[string][]byte, len(docs))
	for _, doc := range docs {
		id, err := documentID(doc)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("search: failed to encode document %s: %w", id, err)
		}
		encoded[id] = raw
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[index]
	if !ok {
		idx = make(map[string][]byte)
		s.indexes[index] = idx
	}
	for id, raw := range encoded {
		idx[id] = raw
	}
	return nil
}

// Unindex removes one document
func (s *MemoryStore) Unindex(ctx context.Context, index, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indexes[index], id)
	return nil
}

// Get loads one document
func (s *MemoryStore) Get(ctx context.Context, index, id string) (Document, error) {
	s.mu.RLock()
	raw, ok := s.indexes[index][id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrDocumentNotFound
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Count returns the number of documents in index
func (s *MemoryStore) Count(ctx context.Context, index string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.indexes[index])), nil
}

var _ Store = (*MemoryStore)(nil)
