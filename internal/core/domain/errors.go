package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file type no extractor handles.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrNoTextExtracted indicates structuring produced zero sections.
	// Callers must mark the document failed, never index it as empty.
	ErrNoTextExtracted = errors.New("no text extracted")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Nothing can be indexed or retrieved without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Retrieval still works; answer generation is disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrIndexMismatch indicates a document's section list and embedding
	// matrix disagree. The document is excluded from the corpus.
	ErrIndexMismatch = errors.New("section/embedding mismatch")
)
