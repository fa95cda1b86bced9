// Package memory implements the retrieval gateway between the triage pipeline
// and the vector store. Records are partitioned into one namespace per email
// sender and are append-only.
package memory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/mailsense/plugin/ai"
	"github.com/hrygo/mailsense/plugin/ai/timeout"
	"github.com/hrygo/mailsense/plugin/ai/vector"
)

// UnknownNamespace is the sentinel partition for emails without a sender.
const UnknownNamespace = "unknown"

// RetrieveTopK is the number of nearest records consulted per reply.
const RetrieveTopK = 3

// Gateway wraps embedding generation, similarity search and append into
// per-sender namespaces. Retrieve never fails past its boundary; the reply
// pipeline must keep working when the store is down.
type Gateway struct {
	embedder ai.EmbeddingService
	store    vector.Store
}

// NewGateway creates a Gateway over the given embedder and store.
func NewGateway(embedder ai.EmbeddingService, store vector.Store) *Gateway {
	return &Gateway{
		embedder: embedder,
		store:    store,
	}
}

// DeriveNamespace maps a sender address to its memory partition.
// Lower-cased and trimmed; empty maps to the "unknown" sentinel.
func DeriveNamespace(sender string) string {
	ns := strings.ToLower(strings.TrimSpace(sender))
	if ns == "" {
		return UnknownNamespace
	}
	return ns
}

// Retrieve embeds the email text and returns the summary of the top matches in
// the sender's namespace, in relevance order. Any failure degrades to an empty
// result.
func (g *Gateway) Retrieve(ctx context.Context, emailText, sender string) []string {
	namespace := DeriveNamespace(sender)

	embedCtx, cancel := context.WithTimeout(ctx, timeout.EmbeddingTimeout)
	defer cancel()
	vec, err := g.embedder.Embed(embedCtx, emailText)
	if err != nil {
		slog.Warn("memory retrieval degraded: embed failed",
			slog.String("namespace", namespace), slog.String("error", err.Error()))
		return nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, timeout.VectorQueryTimeout)
	defer cancel()
	matches, err := g.store.Query(queryCtx, namespace, vec, RetrieveTopK)
	if err != nil {
		slog.Warn("memory retrieval degraded: query failed",
			slog.String("namespace", namespace), slog.String("error", err.Error()))
		return nil
	}

	snippets := make([]string, 0, len(matches))
	for _, m := range matches {
		if s := summaryFromMetadata(m.Metadata); s != "" {
			snippets = append(snippets, s)
		}
	}
	return snippets
}

// Commit embeds the summary and appends a fresh record to the sender's
// namespace. Callers on the write-back path ignore the returned error.
func (g *Gateway) Commit(ctx context.Context, sender, subject, summary string) error {
	namespace := DeriveNamespace(sender)

	embedCtx, cancel := context.WithTimeout(ctx, timeout.EmbeddingTimeout)
	defer cancel()
	vec, err := g.embedder.Embed(embedCtx, summary)
	if err != nil {
		return errors.Wrap(err, "failed to embed summary")
	}

	id := namespace + "-" + shortuuid.New()
	metadata := map[string]any{
		"summary": summary,
		"sender":  sender,
		"subject": subject,
	}

	upsertCtx, cancel := context.WithTimeout(ctx, timeout.VectorUpsertTimeout)
	defer cancel()
	if err := g.store.Upsert(upsertCtx, namespace, id, vec, metadata); err != nil {
		return errors.Wrap(err, "failed to append memory record")
	}
	return nil
}

// summaryFromMetadata normalizes the record text out of store metadata.
// Backends differ in how they hand values back; callers only ever see strings.
func summaryFromMetadata(metadata map[string]any) string {
	for _, key := range []string{"summary", "text"} {
		switch v := metadata[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case []byte:
			if len(v) > 0 {
				return string(v)
			}
		}
	}
	return ""
}
