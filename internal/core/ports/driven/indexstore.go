package driven

import (
	"context"

	"github.com/agora-labs/agora-cli/internal/core/domain"
)

// IndexStore persists per-document structured indexes: a metadata
// record, the ordered section list and the embedding matrix, co-located
// and keyed by (document id, embedding model).
//
// Each stored embedding row is labelled with its section_id so that
// alignment with the section list is verifiable by equality at load
// time, not assumed by position.
type IndexStore interface {
	// Write atomically replaces the document's index for the given model.
	// len(embeddings) must equal len(sections); a zero-section document
	// stores a zero-row matrix without error.
	Write(ctx context.Context, meta domain.IndexMeta, sections []domain.Section, embeddings [][]float32) error

	// Load returns the section list and embedding matrix for one
	// document and model. Returns domain.ErrNotFound when either
	// artifact is missing and domain.ErrIndexMismatch when counts or
	// row labels disagree.
	Load(ctx context.Context, docID, model string) ([]domain.Section, [][]float32, error)

	// LoadMeta returns the metadata record for one document.
	LoadMeta(ctx context.Context, docID string) (*domain.IndexMeta, error)

	// List returns the ids of all documents with persisted artifacts,
	// in lexical order.
	List(ctx context.Context) ([]string, error)

	// Delete removes all artifacts for a document.
	Delete(ctx context.Context, docID string) error

	// Root returns the filesystem root of the store, for watchers.
	Root() string
}
