package semantic

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/DocuQuery/docuquery-mvp/engine/domain"
)

// MemoryStore is an in-memory cosine-similarity store with the same surface
// as VectorStore. It backs tests and single-binary development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Upsert stores records, replacing any with the same ID.
func (m *MemoryStore) Upsert(_ context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[r.ID] = r
	}
	return nil
}

// DeleteByDocID removes all records belonging to a document.
func (m *MemoryStore) DeleteByDocID(_ context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.records {
		if r.Chunk.DocID == docID {
			delete(m.records, id)
		}
	}
	return nil
}

// Search ranks all records by cosine similarity to q.Vector and returns up to
// q.Limit matches in descending score order.
func (m *MemoryStore) Search(_ context.Context, q Query) ([]domain.RetrievedContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]domain.RetrievedContext, 0, len(m.records))
	for _, r := range m.records {
		c := r.Chunk
		results = append(results, domain.RetrievedContext{
			Text:     c.Text,
			Metadata: c.Metadata,
			DocID:    c.DocID,
			Source:   c.Source,
			Page:     c.Page,
			Type:     c.Type,
			Score:    cosine(q.Vector, c.Vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

// Len reports the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
