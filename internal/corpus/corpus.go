// Package corpus aggregates all persisted per-document indexes into an
// in-memory snapshot for query time. Snapshots are immutable and cached
// per embedding model; a rebuild swaps the whole snapshot atomically so
// concurrent readers never observe a half-built corpus.
package corpus

import (
	"context"
	"fmt"
	"sync"

	"github.com/agora-labs/agora-cli/internal/core/domain"
	"github.com/agora-labs/agora-cli/internal/core/ports/driven"
	"github.com/agora-labs/agora-cli/internal/logger"
)

// Snapshot is an immutable aggregated corpus. Sections[i] corresponds
// to Embeddings[i]; never mutate a snapshot in place.
type Snapshot struct {
	// Sections is the concatenated section list across all valid documents.
	Sections []domain.Section

	// Embeddings is the row-aligned embedding matrix.
	Embeddings [][]float32

	// Stats describes the load that produced this snapshot.
	Stats LoadStats
}

// Len returns the number of corpus rows.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Sections)
}

// LoadStats makes fail-soft skips observable: documents excluded from
// the corpus are counted rather than silently dropped.
type LoadStats struct {
	// DocsLoaded is the number of documents included in the snapshot.
	DocsLoaded int

	// DocsSkipped is the number of documents excluded for missing,
	// mismatched or unreadable artifacts.
	DocsSkipped int
}

// Loader builds snapshots from the index store.
type Loader struct {
	store driven.IndexStore
}

// NewLoader creates a corpus loader over the given index store.
func NewLoader(store driven.IndexStore) *Loader {
	return &Loader{store: store}
}

// Load scans all persisted document indexes for the given model and
// aggregates the valid ones. A document whose artifacts are missing,
// mismatched or unreadable (truncated matrix, malformed section line)
// is skipped entirely and logged so one bad directory never takes the
// rest of the corpus down. Load itself only fails when the store cannot
// be listed at all or the context ends.
func (l *Loader) Load(ctx context.Context, model string) (*Snapshot, error) {
	docIDs, err := l.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}

	snap := &Snapshot{}
	for _, docID := range docIDs {
		sections, embeddings, err := l.store.Load(ctx, docID, model)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("Corpus load: skipping %s: %v", docID, err)
			snap.Stats.DocsSkipped++
			continue
		}
		if len(sections) != len(embeddings) {
			logger.Warn("Corpus load: skipping %s: %d sections vs %d rows", docID, len(sections), len(embeddings))
			snap.Stats.DocsSkipped++
			continue
		}

		snap.Sections = append(snap.Sections, sections...)
		snap.Embeddings = append(snap.Embeddings, embeddings...)
		snap.Stats.DocsLoaded++
	}

	logger.Debug("Corpus load: model=%s docs=%d skipped=%d rows=%d",
		model, snap.Stats.DocsLoaded, snap.Stats.DocsSkipped, len(snap.Sections))
	return snap, nil
}

// Cache memoizes snapshots keyed by embedding model. Invalidate must be
// called whenever a document is uploaded, reprocessed or deleted;
// without it queries would silently serve stale corpora.
type Cache struct {
	loader *Loader

	mu        sync.RWMutex
	snapshots map[string]*Snapshot
}

// NewCache creates an empty snapshot cache over the loader.
func NewCache(loader *Loader) *Cache {
	return &Cache{
		loader:    loader,
		snapshots: make(map[string]*Snapshot),
	}
}

// Get returns the cached snapshot for the model, building it on first
// use. Concurrent readers share one snapshot; a rebuild replaces the
// map entry atomically under the write lock.
func (c *Cache) Get(ctx context.Context, model string) (*Snapshot, error) {
	c.mu.RLock()
	snap, ok := c.snapshots[model]
	c.mu.RUnlock()
	if ok {
		return snap, nil
	}

	// Build outside any lock; the last writer wins on a race, which is
	// safe because both built the same on-disk state or newer.
	snap, err := c.loader.Load(ctx, model)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.snapshots[model] = snap
	c.mu.Unlock()
	return snap, nil
}

// Invalidate drops the cached snapshot for one model.
func (c *Cache) Invalidate(model string) {
	c.mu.Lock()
	delete(c.snapshots, model)
	c.mu.Unlock()
	logger.Debug("Corpus cache: invalidated model=%s", model)
}

// InvalidateAll drops every cached snapshot.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.snapshots = make(map[string]*Snapshot)
	c.mu.Unlock()
	logger.Debug("Corpus cache: invalidated all models")
}
