// Package timeout defines centralized timeout constants for AI and webhook
// operations. Every call that leaves the process goes out with one of these
// bounds so a stalled collaborator cannot pin a request goroutine.
package timeout

import "time"

const (
	// CompletionTimeout is the timeout for a single chat completion.
	CompletionTimeout = 60 * time.Second

	// EmbeddingTimeout is the timeout for embedding generation.
	EmbeddingTimeout = 30 * time.Second

	// VectorQueryTimeout is the timeout for a similarity search.
	VectorQueryTimeout = 10 * time.Second

	// VectorUpsertTimeout is the timeout for appending a memory record.
	VectorUpsertTimeout = 10 * time.Second

	// NotifyTimeout is the timeout for one operator chat message.
	NotifyTimeout = 10 * time.Second

	// DispatchTimeout is the timeout for the outbound reply webhook.
	DispatchTimeout = 15 * time.Second

	// WriteBackTimeout bounds the whole background summary write
	// (one completion plus one commit).
	WriteBackTimeout = 90 * time.Second

	// MaxConcurrentWriteBacks caps in-flight background summary writes.
	MaxConcurrentWriteBacks = 4
)
