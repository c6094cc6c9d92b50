package repository

import (
	"context"
	"fmt"
	"strings"

	"clauseguard-backend/llm"
	"clauseguard-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPrecedentStore backs the precedent collection with a pgvector
// column, ranked by cosine distance.
type PostgresPrecedentStore struct {
	db       *pgxpool.Pool
	embedder llm.Embedder
}

// NewPostgresPrecedentStore creates a Postgres-backed precedent store.
func NewPostgresPrecedentStore(db *pgxpool.Pool, embedder llm.Embedder) *PostgresPrecedentStore {
	return &PostgresPrecedentStore{db: db, embedder: embedder}
}

// EnsureSchema creates the precedent table and vector extension if absent.
// Used by the seeding command; the server assumes the schema exists.
func (s *PostgresPrecedentStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS precedent_clauses (
			id TEXT PRIMARY KEY,
			clause_text TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, llm.EmbeddingDims),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure precedent schema: %w", err)
		}
	}
	return nil
}

// formatVector formats an embedding as a pgvector literal for pgx.
func formatVector(embedding []float32) string {
	if len(embedding) == 0 {
		return "[]"
	}
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = fmt.Sprintf("%.6f", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Query embeds the clause text and returns the k nearest precedents.
func (s *PostgresPrecedentStore) Query(ctx context.Context, text string, k int) ([]models.PrecedentMatch, error) {
	embedding, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embedding) != llm.EmbeddingDims {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", llm.EmbeddingDims, len(embedding))
	}

	query := `
		SELECT
			id,
			clause_text,
			1 - (embedding <=> $1::vector) AS similarity
		FROM precedent_clauses
		ORDER BY embedding <=> $1::vector
		LIMIT $2`

	rows, err := s.db.Query(ctx, query, formatVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query precedents: %w", err)
	}
	defer rows.Close()

	var matches []models.PrecedentMatch
	for rows.Next() {
		var m models.PrecedentMatch
		if err := rows.Scan(&m.PrecedentID, &m.Excerpt, &m.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan precedent: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating precedents: %w", err)
	}
	return matches, nil
}

// Upsert inserts or replaces a precedent clause and its embedding.
func (s *PostgresPrecedentStore) Upsert(ctx context.Context, id string, text string) error {
	embedding, err := s.embedder.EmbedDocument(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed precedent: %w", err)
	}

	query := `
		INSERT INTO precedent_clauses (id, clause_text, embedding)
		VALUES ($1, $2, $3::vector)
		ON CONFLICT (id) DO UPDATE SET
			clause_text = EXCLUDED.clause_text,
			embedding = EXCLUDED.embedding`

	if _, err := s.db.Exec(ctx, query, id, text, formatVector(embedding)); err != nil {
		return fmt.Errorf("failed to upsert precedent: %w", err)
	}
	return nil
}
