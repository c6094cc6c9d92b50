package repository

import (
	"context"
	"fmt"
	"os"

	"clauseguard-backend/llm"
	"clauseguard-backend/models"

	chromem "github.com/philippgille/chromem-go"
)

// ChromemPrecedentStore backs the precedent collection with the embedded
// chromem-go vector database: pure Go, persisted to disk, no external
// service. The default backend for local and single-node deployments.
type ChromemPrecedentStore struct {
	db         *chromem.DB
	collection string
	embedder   llm.Embedder
}

// NewChromemPrecedentStore opens (or creates) a persistent chromem database
// at path and uses the named collection for precedents.
func NewChromemPrecedentStore(path, collection string, embedder llm.Embedder) (*ChromemPrecedentStore, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chromem directory: %w", err)
	}
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open chromem db: %w", err)
	}
	return &ChromemPrecedentStore{
		db:         db,
		collection: collection,
		embedder:   embedder,
	}, nil
}

// embeddingFunc adapts the shared Embedder to chromem's callback.
func (s *ChromemPrecedentStore) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedQuery(ctx, text)
	}
}

func (s *ChromemPrecedentStore) getCollection() (*chromem.Collection, error) {
	col, err := s.db.GetOrCreateCollection(s.collection, nil, s.embeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", s.collection, err)
	}
	return col, nil
}

// Query returns the k most similar precedents to the clause text.
func (s *ChromemPrecedentStore) Query(ctx context.Context, text string, k int) ([]models.PrecedentMatch, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	col, err := s.getCollection()
	if err != nil {
		return nil, err
	}

	// chromem requires nResults <= stored document count.
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := col.Query(ctx, text, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query precedents: %w", err)
	}

	matches := make([]models.PrecedentMatch, len(results))
	for i, r := range results {
		matches[i] = models.PrecedentMatch{
			PrecedentID: r.ID,
			Similarity:  float64(r.Similarity),
			Excerpt:     r.Content,
		}
	}
	return matches, nil
}

// Upsert adds or replaces a precedent clause; the embedding is computed via
// the collection's embedding function.
func (s *ChromemPrecedentStore) Upsert(ctx context.Context, id string, text string) error {
	col, err := s.getCollection()
	if err != nil {
		return err
	}
	if err := col.AddDocument(ctx, chromem.Document{ID: id, Content: text}); err != nil {
		return fmt.Errorf("failed to upsert precedent: %w", err)
	}
	return nil
}
