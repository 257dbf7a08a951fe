// Package blob stores raw document bytes on disk, keyed by the SHA-256
// of the content so identical uploads dedupe to one file. The key
// equals the document content hash, so blobs are addressable straight
// from document records.
package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agora-labs/agora-cli/internal/core/domain"
	"github.com/agora-labs/agora-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BlobStore = (*Store)(nil)

// Store keeps blobs under a filesystem root.
type Store struct {
	root string
}

// NewStore creates the blob store, ensuring the root directory exists.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("creating blob root: %w", err)
	}
	return &Store{root: root}, nil
}

// Key returns the storage key for content: the hex SHA-256 of its
// bytes. The key doubles as the document content hash, so callers can
// address blobs straight from document records.
func Key(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Put stores content and returns its key. Re-putting identical bytes
// is a no-op returning the same key.
func (s *Store) Put(ctx context.Context, _ string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := Key(content)
	path := filepath.Join(s.root, key)

	if _, err := os.Stat(path); err == nil {
		return key, nil
	}

	tmp, err := os.CreateTemp(s.root, ".tmp-blob-")
	if err != nil {
		return "", fmt.Errorf("creating temp blob: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("writing blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("closing blob: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("installing blob: %w", err)
	}
	return key, nil
}

// Get returns the bytes for a storage key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading blob: %w", err)
	}
	return data, nil
}

// Delete removes the blob for a storage key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.root, key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing blob: %w", err)
	}
	return nil
}
