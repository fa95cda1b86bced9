package vector

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"github.com/pkg/errors"
)

// ChromemStore is an embedded Store implementation over chromem-go, a pure Go
// in-process vector database. Used in dev/demo mode so the binary runs without
// Postgres. Each namespace maps to one chromem collection.
type ChromemStore struct {
	db          *chromem.DB
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
}

// NewChromemStore creates a persistent chromem store under dataDir.
func NewChromemStore(dataDir string) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(filepath.Join(dataDir, "mailsense-memory"), false)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open chromem db")
	}
	return &ChromemStore{
		db:          db,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

// NewEphemeralChromemStore creates an in-memory chromem store (demo mode).
func NewEphemeralChromemStore() *ChromemStore {
	return &ChromemStore{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
	}
}

func (s *ChromemStore) getOrCreateCollection(namespace string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, exists := s.collections[namespace]
	s.mu.RUnlock()
	if exists {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if col, exists := s.collections[namespace]; exists {
		return col, nil
	}

	// Embeddings are provided by the caller, so no embedding func; default
	// distance is cosine.
	col, err := s.db.GetOrCreateCollection(collectionName(namespace), nil, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create collection for namespace %s", namespace)
	}
	s.collections[namespace] = col
	return col, nil
}

// Upsert appends a record into the namespace collection.
func (s *ChromemStore) Upsert(ctx context.Context, namespace, id string, vec []float32, metadata map[string]any) error {
	col, err := s.getOrCreateCollection(namespace)
	if err != nil {
		return err
	}

	doc := chromem.Document{
		ID:        id,
		Embedding: vec,
		Metadata:  flattenMetadata(metadata),
	}
	if summary, ok := metadata["summary"].(string); ok {
		doc.Content = summary
	}

	if err := col.AddDocument(ctx, doc); err != nil {
		return errors.Wrap(err, "failed to add document")
	}
	return nil
}

// Query performs similarity search within the namespace collection.
func (s *ChromemStore) Query(ctx context.Context, namespace string, vec []float32, topK int) ([]Match, error) {
	col, err := s.getOrCreateCollection(namespace)
	if err != nil {
		return nil, err
	}

	// chromem rejects nResults larger than the collection size.
	if count := col.Count(); topK > count {
		topK = count
	}
	if topK == 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, vec, topK, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query collection")
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		metadata := make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			metadata[k] = v
		}
		matches = append(matches, Match{
			ID:       r.ID,
			Score:    r.Similarity,
			Metadata: metadata,
		})
	}
	return matches, nil
}

// Close is a no-op; chromem persists on write.
func (s *ChromemStore) Close() error {
	return nil
}

func collectionName(namespace string) string {
	if namespace == "" {
		return "ns_unknown"
	}
	return "ns_" + namespace
}

func flattenMetadata(metadata map[string]any) map[string]string {
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		if str, ok := v.(string); ok {
			out[k] = str
		} else {
			out[k] = fmt.Sprintf("%v", v)
		}
	}
	return out
}

// Ensure ChromemStore implements Store
var _ Store = (*ChromemStore)(nil)
