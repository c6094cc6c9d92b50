package repository

import (
	"context"
	"fmt"
	"os"

	"clauseguard-backend/llm"
	"clauseguard-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PrecedentStore is the contract consumed from the vector-indexed precedent
// collection. The store is a best-effort collaborator: callers treat query
// failures as a degraded (empty) result, not a pipeline abort.
type PrecedentStore interface {
	// Query returns up to k historical clauses ranked by similarity.
	Query(ctx context.Context, text string, k int) ([]models.PrecedentMatch, error)

	// Upsert inserts or replaces a precedent clause.
	Upsert(ctx context.Context, id string, text string) error
}

// PrecedentBackend selects the precedent store implementation.
type PrecedentBackend string

const (
	PrecedentBackendPostgres PrecedentBackend = "postgres"
	PrecedentBackendChromem  PrecedentBackend = "chromem"
)

// NewPrecedentStoreFromEnv creates a precedent store from environment
// variables. PRECEDENT_BACKEND picks the implementation; the default is the
// embedded chromem store, which needs no external database.
func NewPrecedentStoreFromEnv(db *pgxpool.Pool, embedder llm.Embedder) (PrecedentStore, error) {
	backend := os.Getenv("PRECEDENT_BACKEND")
	if backend == "" {
		backend = string(PrecedentBackendChromem)
	}

	switch PrecedentBackend(backend) {
	case PrecedentBackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("precedent backend %q requires DATABASE_URL", backend)
		}
		return NewPostgresPrecedentStore(db, embedder), nil

	case PrecedentBackendChromem:
		path := os.Getenv("CHROMEM_PATH")
		if path == "" {
			path = "./chromem_db"
		}
		collection := os.Getenv("PRECEDENT_COLLECTION")
		if collection == "" {
			collection = "precedents"
		}
		return NewChromemPrecedentStore(path, collection, embedder)

	default:
		return nil, fmt.Errorf("unknown precedent backend: %s", backend)
	}
}
