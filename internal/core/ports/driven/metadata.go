package driven

import (
	"context"

	"github.com/agora-labs/agora-cli/internal/core/domain"
)

// MetadataStore tracks document identity and processing status.
// Backed by SQLite.
type MetadataStore interface {
	// SaveDocument stores or updates a document record.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetByContentHash retrieves the non-deleted document with the given
	// content hash, for upload deduplication.
	GetByContentHash(ctx context.Context, hash string) (*domain.Document, error)

	// ListDocuments returns all non-deleted documents, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// SetStatus records a status transition. errMsg is stored for
	// failed transitions and cleared otherwise.
	SetStatus(ctx context.Context, id string, status domain.DocumentStatus, errMsg string) error

	// Close releases resources.
	Close() error
}
