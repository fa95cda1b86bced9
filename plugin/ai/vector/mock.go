package vector

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]*storedRecord

	// FailAll makes every call return an error, for degradation tests.
	FailAll bool
}

type storedRecord struct {
	Vector   []float32
	Metadata map[string]any
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		namespaces: make(map[string]map[string]*storedRecord),
	}
}

// Upsert stores a record under the namespace.
func (m *MockStore) Upsert(ctx context.Context, namespace, id string, vec []float32, metadata map[string]any) error {
	if m.FailAll {
		return errors.New("mock store: upsert unavailable")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.namespaces[namespace]
	if !ok {
		ns = make(map[string]*storedRecord)
		m.namespaces[namespace] = ns
	}
	ns[id] = &storedRecord{Vector: vec, Metadata: metadata}
	return nil
}

// Query returns the topK nearest records within the namespace by cosine
// similarity.
func (m *MockStore) Query(ctx context.Context, namespace string, vec []float32, topK int) ([]Match, error) {
	if m.FailAll {
		return nil, errors.New("mock store: query unavailable")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ns := m.namespaces[namespace]

	matches := make([]Match, 0, len(ns))
	for id, rec := range ns {
		matches = append(matches, Match{
			ID:       id,
			Score:    cosineSimilarity(vec, rec.Vector),
			Metadata: rec.Metadata,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if topK > 0 && topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

// Count returns the number of records in a namespace (test helper).
func (m *MockStore) Count(namespace string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.namespaces[namespace])
}

// cosineSimilarity calculates the cosine similarity between two vectors,
// clamped to [0, 1] to match the Match score contract.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	raw := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	if raw < 0 {
		raw = 0
	}
	if raw > 1 {
		raw = 1
	}
	return float32(raw)
}

// Ensure MockStore implements Store
var _ Store = (*MockStore)(nil)
