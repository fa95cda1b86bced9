package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"
)

// PgVectorStore is the production Store implementation backed by PostgreSQL
// with the pgvector extension. One row per memory record; the namespace column
// partitions senders.
type PgVectorStore struct {
	db *sql.DB
}

// NewPgVectorStore opens the PostgreSQL connection and ensures the schema.
func NewPgVectorStore(dsn string, dimensions int) (*PgVectorStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// Low-traffic single-operator service; keep the pool small.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	s := &PgVectorStore{db: db}
	if err := s.migrate(context.Background(), dimensions); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PgVectorStore) migrate(ctx context.Context, dimensions int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS mail_memory (
				id BIGSERIAL PRIMARY KEY,
				namespace TEXT NOT NULL,
				record_id TEXT NOT NULL,
				embedding vector(%d) NOT NULL,
				metadata JSONB NOT NULL DEFAULT '{}',
				created_ts BIGINT NOT NULL,
				UNIQUE (namespace, record_id)
			)`, dimensions),
		`CREATE INDEX IF NOT EXISTS idx_mail_memory_namespace ON mail_memory (namespace)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to migrate mail_memory schema")
		}
	}
	return nil
}

// Upsert appends a record into the namespace.
func (s *PgVectorStore) Upsert(ctx context.Context, namespace, id string, vec []float32, metadata map[string]any) error {
	payload, err := json.Marshal(metadata)
	if err != nil {
		return errors.Wrap(err, "failed to marshal metadata")
	}

	stmt := `
		INSERT INTO mail_memory (namespace, record_id, embedding, metadata, created_ts)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (namespace, record_id)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata
	`

	_, err = s.db.ExecContext(ctx, stmt,
		namespace,
		id,
		pgvector.NewVector(vec),
		payload,
		time.Now().Unix(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to upsert mail memory")
	}
	return nil
}

// Query performs cosine similarity search within the namespace.
func (s *PgVectorStore) Query(ctx context.Context, namespace string, vec []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 3
	}

	// The <=> operator computes cosine distance (1 - cosine_similarity),
	// so order by distance ASC to get most similar first.
	query := `
		SELECT record_id, metadata, 1 - (embedding <=> $1) AS score
		FROM mail_memory
		WHERE namespace = $2
		ORDER BY embedding <=> $3
		LIMIT $4
	`

	vector := pgvector.NewVector(vec)
	rows, err := s.db.QueryContext(ctx, query, vector, namespace, vector, topK)
	if err != nil {
		return nil, errors.Wrap(err, "failed to vector search")
	}
	defer rows.Close()

	matches := []Match{}
	for rows.Next() {
		var (
			match   Match
			payload []byte
		)
		if err := rows.Scan(&match.ID, &payload, &match.Score); err != nil {
			return nil, errors.Wrap(err, "failed to scan vector search result")
		}

		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &match.Metadata); err != nil {
				return nil, errors.Wrap(err, "failed to unmarshal metadata")
			}
		}
		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

// Close closes the underlying connection pool.
func (s *PgVectorStore) Close() error {
	return s.db.Close()
}

// Ensure PgVectorStore implements Store
var _ Store = (*PgVectorStore)(nil)
