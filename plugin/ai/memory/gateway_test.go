package memory

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/mailsense/plugin/ai/vector"
)

// stubEmbedder returns a fixed-dimension vector derived from text length.
type stubEmbedder struct {
	dims int
	fail bool
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.fail {
		return nil, errors.New("embedder unavailable")
	}
	vec := make([]float32, s.dims)
	for i := range vec {
		vec[i] = float32(len(text)%7+1) / float32(i+1)
	}
	return vec, nil
}

func (s *stubEmbedder) Dimensions() int { return s.dims }

func TestDeriveNamespace(t *testing.T) {
	assert.Equal(t, "alice@example.com", DeriveNamespace(" Alice@Example.com "))
	assert.Equal(t, "unknown", DeriveNamespace(""))
	assert.Equal(t, "unknown", DeriveNamespace("   "))
	assert.Equal(t, "bob@x.com", DeriveNamespace("bob@x.com"))
}

func TestCommitThenRetrieve(t *testing.T) {
	ctx := context.Background()
	store := vector.NewMockStore()
	gw := NewGateway(&stubEmbedder{dims: 8}, store)

	require.NoError(t, gw.Commit(ctx, "Alice@Example.com", "Sync", "alice prefers morning meetings"))
	assert.Equal(t, 1, store.Count("alice@example.com"))

	snippets := gw.Retrieve(ctx, "are you free tomorrow morning?", "alice@example.com")
	require.Len(t, snippets, 1)
	assert.Equal(t, "alice prefers morning meetings", snippets[0])
}

func TestRetrieveNeverFails(t *testing.T) {
	ctx := context.Background()

	// Store down: empty result, no panic, no error surfaced.
	failing := vector.NewMockStore()
	failing.FailAll = true
	gw := NewGateway(&stubEmbedder{dims: 8}, failing)
	assert.Empty(t, gw.Retrieve(ctx, "any text", "bob@x.com"))

	// Embedder down: same degradation.
	gw = NewGateway(&stubEmbedder{dims: 8, fail: true}, vector.NewMockStore())
	assert.Empty(t, gw.Retrieve(ctx, "any text", "bob@x.com"))
}

func TestCommitSurfacesErrorToCaller(t *testing.T) {
	ctx := context.Background()
	failing := vector.NewMockStore()
	failing.FailAll = true
	gw := NewGateway(&stubEmbedder{dims: 8}, failing)

	// The gateway reports the failure; the summary writer decides to drop it.
	require.Error(t, gw.Commit(ctx, "bob@x.com", "Sync", "bob asked about tuesday"))
}

func TestRetrieveOmitsEmptySummaries(t *testing.T) {
	ctx := context.Background()
	store := vector.NewMockStore()
	embedder := &stubEmbedder{dims: 4}
	gw := NewGateway(embedder, store)

	vec, err := embedder.Embed(ctx, "seed")
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, "bob@x.com", "empty", vec, map[string]any{"summary": ""}))
	require.NoError(t, store.Upsert(ctx, "bob@x.com", "legacy", vec, map[string]any{"text": "stored under legacy key"}))

	snippets := gw.Retrieve(ctx, "seed", "bob@x.com")
	require.Len(t, snippets, 1)
	assert.Equal(t, "stored under legacy key", snippets[0])
}

func TestSummaryFromMetadataNormalization(t *testing.T) {
	assert.Equal(t, "a", summaryFromMetadata(map[string]any{"summary": "a"}))
	assert.Equal(t, "b", summaryFromMetadata(map[string]any{"text": "b"}))
	assert.Equal(t, "c", summaryFromMetadata(map[string]any{"summary": []byte("c")}))
	assert.Equal(t, "", summaryFromMetadata(map[string]any{"summary": 42}))
	assert.Equal(t, "", summaryFromMetadata(nil))
}
