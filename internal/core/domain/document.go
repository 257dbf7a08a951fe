package domain

import "time"

// DocumentStatus tracks a document through the processing pipeline.
type DocumentStatus string

// Document processing states.
const (
	// StatusUploaded means the raw bytes are stored but not yet processed.
	StatusUploaded DocumentStatus = "uploaded"

	// StatusProcessing means extraction/indexing is in progress.
	StatusProcessing DocumentStatus = "processing"

	// StatusReady means the structured index is complete and queryable.
	StatusReady DocumentStatus = "ready"

	// StatusFailed means processing failed; Error carries the reason.
	StatusFailed DocumentStatus = "failed"

	// StatusDeleted means the document was removed and must not be served.
	StatusDeleted DocumentStatus = "deleted"
)

// Valid reports whether s is a known status value.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusUploaded, StatusProcessing, StatusReady, StatusFailed, StatusDeleted:
		return true
	}
	return false
}

// Document represents an uploaded document and its processing state.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Filename is the original upload name, used as the section path root.
	Filename string

	// ContentHash is the SHA-256 hex digest of the raw bytes.
	// Identical uploads share one blob.
	ContentHash string

	// Status is the current processing state.
	Status DocumentStatus

	// Error holds the failure reason when Status is failed.
	Error string

	// SectionCount is the number of sections in the structured index.
	SectionCount int

	// EmbeddingModel is the model the stored vectors were computed with.
	EmbeddingModel string

	// CreatedAt is when the document was first uploaded.
	CreatedAt time.Time

	// UpdatedAt is when the document last changed state.
	UpdatedAt time.Time
}

// IndexMeta describes one document's persisted structured index.
type IndexMeta struct {
	// DocID is the owning document.
	DocID string `json:"doc_id"`

	// Filename is the original upload name.
	Filename string `json:"filename"`

	// EmbeddingModel is part of the storage key: switching models must
	// not silently mix incompatible vector spaces.
	EmbeddingModel string `json:"embedding_model"`

	// SectionCount is the number of sections (and embedding rows).
	SectionCount int `json:"section_count"`

	// CreatedAt is when the index was written.
	CreatedAt time.Time `json:"created_at"`
}
