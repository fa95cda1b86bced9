// Package vector provides the namespaced vector store interface consumed by
// the memory gateway. A namespace is a logical partition; queries never cross
// namespaces.
package vector

import "context"

// Store defines the vector storage backend interface.
// Implementations: PgVectorStore (production), ChromemStore (embedded),
// MockStore (testing).
type Store interface {
	// Upsert appends a record with its embedding into a namespace.
	Upsert(ctx context.Context, namespace, id string, vector []float32, metadata map[string]any) error

	// Query performs similarity search within a namespace and returns up to
	// topK matches sorted by similarity (highest first).
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error)

	// Close releases resources.
	Close() error
}

// Match represents a similarity search result.
type Match struct {
	ID       string         `json:"id"`
	Score    float32        `json:"score"` // similarity score 0-1
	Metadata map[string]any `json:"metadata"`
}
