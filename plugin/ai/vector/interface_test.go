package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStoreNamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()

	require.NoError(t, store.Upsert(ctx, "alice@example.com", "rec-1",
		[]float32{1, 0, 0}, map[string]any{"summary": "alice prefers mornings"}))
	require.NoError(t, store.Upsert(ctx, "bob@example.com", "rec-2",
		[]float32{1, 0, 0}, map[string]any{"summary": "bob reschedules often"}))

	matches, err := store.Query(ctx, "alice@example.com", []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "rec-1", matches[0].ID)
	assert.Equal(t, "alice prefers mornings", matches[0].Metadata["summary"])
}

func TestMockStoreRelevanceOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()

	require.NoError(t, store.Upsert(ctx, "ns", "near", []float32{1, 0, 0}, nil))
	require.NoError(t, store.Upsert(ctx, "ns", "far", []float32{0, 1, 0}, nil))
	require.NoError(t, store.Upsert(ctx, "ns", "mid", []float32{1, 1, 0}, nil))

	matches, err := store.Query(ctx, "ns", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "near", matches[0].ID)
	assert.Equal(t, "mid", matches[1].ID)
}

func TestMockStoreFailAll(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()
	store.FailAll = true

	require.Error(t, store.Upsert(ctx, "ns", "id", []float32{1}, nil))
	_, err := store.Query(ctx, "ns", []float32{1}, 3)
	require.Error(t, err)
}

func TestChromemStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewEphemeralChromemStore()

	require.NoError(t, store.Upsert(ctx, "carol@example.com", "rec-1",
		[]float32{0.1, 0.9, 0.2}, map[string]any{
			"summary": "carol asked to move the sync to friday",
			"sender":  "carol@example.com",
		}))

	matches, err := store.Query(ctx, "carol@example.com", []float32{0.1, 0.9, 0.2}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "rec-1", matches[0].ID)
	assert.Equal(t, "carol asked to move the sync to friday", matches[0].Metadata["summary"])
}

func TestChromemStoreEmptyNamespace(t *testing.T) {
	ctx := context.Background()
	store := NewEphemeralChromemStore()

	matches, err := store.Query(ctx, "nobody@example.com", []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{1, 0}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	// Opposite vectors clamp to zero.
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	// Mismatched lengths score zero.
	assert.Zero(t, cosineSimilarity([]float32{1, 0}, []float32{1}))
}
