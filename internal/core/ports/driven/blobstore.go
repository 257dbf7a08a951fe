package driven

import "context"

// BlobStore stores raw document bytes keyed by content hash, so
// identical uploads naturally dedupe.
type BlobStore interface {
	// Put stores content and returns its storage key (content hash).
	// Storing the same bytes twice returns the same key.
	Put(ctx context.Context, filename string, content []byte) (string, error)

	// Get returns the bytes for a storage key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the blob for a storage key.
	Delete(ctx context.Context, key string) error
}
