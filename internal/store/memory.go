package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by tests and by deployments that
// don't need durability. Documents are copied on the way in and out so
// callers can't mutate stored state by aliasing.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]Document)}
}

// Save upserts doc under the record identified by the key fields.
func (s *MemoryStore) Save(_ context.Context, collection string, key Document, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, ok := s.collections[collection]
	if !ok {
		records = make(map[string]Document)
		s.collections[collection] = records
	}
	records[keyString(key)] = copyDocument(doc)
	return nil
}

// Find returns every document in collection matching the query fields.
func (s *MemoryStore) Find(_ context.Context, collection string, query Document) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []Document
	for _, doc := range s.collections[collection] {
		if matches(doc, query) {
			docs = append(docs, copyDocument(doc))
		}
	}
	return docs, nil
}

// FindOne returns one matching document, or (nil, nil) when absent.
func (s *MemoryStore) FindOne(ctx context.Context, collection string, query Document) (Document, error) {
	docs, err := s.Find(ctx, collection, query)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// Delete removes every document in collection matching the query fields.
func (s *MemoryStore) Delete(_ context.Context, collection string, query Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.collections[collection]
	for key, doc := range records {
		if matches(doc, query) {
			delete(records, key)
		}
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

func copyDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
