package vectorstore

import (
	"context"
	"sync"
)

// MemStore is an in-memory VectorStore with the same semantics as the SQLite
// store, used in tests and as a throwaway backend.
type MemStore struct {
	mu      sync.RWMutex
	created bool
	docs    map[string]memEntry
}

type memEntry struct {
	text   string
	vector []float32
	meta   map[string]string
}

func NewMem() *MemStore {
	return &MemStore{docs: make(map[string]memEntry)}
}

func (m *MemStore) Upsert(ctx context.Context, items []UpsertItem) error {
	if len(items) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = true
	for _, it := range items {
		meta := make(map[string]string, len(it.Metadata))
		for k, v := range it.Metadata {
			meta[k] = v
		}
		vec := make([]float32, len(it.Vector))
		copy(vec, it.Vector)
		m.docs[it.ID] = memEntry{text: it.Text, vector: vec, meta: meta}
	}
	return nil
}

func (m *MemStore) Query(ctx context.Context, vector []float32, k int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.created {
		return nil, ErrCollectionNotFound
	}
	if k <= 0 || len(vector) == 0 {
		return nil, nil
	}
	var matches []Match
	for id, e := range m.docs {
		if len(e.vector) != len(vector) {
			continue
		}
		matches = append(matches, Match{
			Document: Document{ID: id, Text: e.text, Metadata: e.meta},
			Distance: squaredDistance(vector, e.vector),
		})
	}
	return selectNearest(matches, k), nil
}

// Len reports the number of stored documents.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}
