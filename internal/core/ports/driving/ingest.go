// Package driving provides interfaces for application entry points (primary/inbound ports).
package driving

import (
	"context"

	"github.com/agora-labs/agora-cli/internal/core/domain"
)

// IngestService drives the document write path: upload, extract,
// structure, embed, persist.
type IngestService interface {
	// Ingest stores and processes a new document. Returns
	// domain.ErrAlreadyExists when a non-deleted document with the same
	// content hash exists.
	Ingest(ctx context.Context, filename string, content []byte) (*domain.Document, error)

	// Reprocess re-runs the full pipeline for an existing document,
	// replacing its structured index.
	Reprocess(ctx context.Context, docID string) (*domain.Document, error)

	// Delete marks a document deleted and removes its index artifacts.
	Delete(ctx context.Context, docID string) error

	// List returns all non-deleted documents.
	List(ctx context.Context) ([]domain.Document, error)
}
