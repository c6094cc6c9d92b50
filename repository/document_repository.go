package repository

import (
	"context"

	"clauseguard-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRepository persists metadata for uploaded contracts. Optional:
// deployments without Postgres skip it and lose only re-download by id.
type DocumentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create records an uploaded document.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (
			id, filename, format, size, storage_path
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	return r.db.QueryRow(
		ctx, query,
		doc.ID,
		doc.Filename,
		string(doc.Format),
		doc.Size,
		doc.StoragePath,
	).Scan(&doc.CreatedAt)
}

// GetByID retrieves an uploaded document record.
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc := &models.Document{}
	query := `
		SELECT id, filename, format, size, storage_path, created_at
		FROM documents
		WHERE id = $1`

	var format string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.Filename,
		&format,
		&doc.Size,
		&doc.StoragePath,
		&doc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.Format = models.DocumentFormat(format)
	return doc, nil
}

// EnsureSchema creates the documents table if absent.
func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS documents (
			id UUID PRIMARY KEY,
			filename TEXT NOT NULL,
			format TEXT NOT NULL,
			size BIGINT NOT NULL,
			storage_path TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	_, err := r.db.Exec(ctx, query)
	return err
}
