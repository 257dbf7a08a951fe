package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-labs/agora-cli/internal/adapters/driven/storage/index"
	"github.com/agora-labs/agora-cli/internal/core/domain"
	"github.com/agora-labs/agora-cli/internal/core/ports/driven"
)

// mockIndexStore implements driven.IndexStore over in-memory maps.
type mockIndexStore struct {
	sections   map[string][]domain.Section
	embeddings map[string][][]float32
	loadErr    map[string]error
	listErr    error
	loadCalls  int
}

var _ driven.IndexStore = (*mockIndexStore)(nil)

func newMockIndexStore() *mockIndexStore {
	return &mockIndexStore{
		sections:   make(map[string][]domain.Section),
		embeddings: make(map[string][][]float32),
		loadErr:    make(map[string]error),
	}
}

func (m *mockIndexStore) add(docID string, rows int) {
	for i := 0; i < rows; i++ {
		m.sections[docID] = append(m.sections[docID], domain.Section{
			Path:      docID + " > part",
			Text:      "text",
			SectionID: fmt.Sprintf("%s::s%04d", docID, i),
		})
		m.embeddings[docID] = append(m.embeddings[docID], []float32{float32(i), 1})
	}
}

func (m *mockIndexStore) Write(_ context.Context, _ domain.IndexMeta, _ []domain.Section, _ [][]float32) error {
	return nil
}

func (m *mockIndexStore) Load(ctx context.Context, docID, _ string) ([]domain.Section, [][]float32, error) {
	m.loadCalls++
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if err := m.loadErr[docID]; err != nil {
		return nil, nil, err
	}
	secs, ok := m.sections[docID]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	return secs, m.embeddings[docID], nil
}

func (m *mockIndexStore) LoadMeta(_ context.Context, docID string) (*domain.IndexMeta, error) {
	return nil, domain.ErrNotFound
}

func (m *mockIndexStore) List(_ context.Context) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var ids []string
	for id := range m.sections {
		ids = append(ids, id)
	}
	for id := range m.loadErr {
		if _, dup := m.sections[id]; !dup {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *mockIndexStore) Delete(_ context.Context, docID string) error {
	delete(m.sections, docID)
	delete(m.embeddings, docID)
	return nil
}

func (m *mockIndexStore) Root() string { return "" }

func TestLoader_AggregatesAllDocuments(t *testing.T) {
	store := newMockIndexStore()
	store.add("doc-a", 2)
	store.add("doc-b", 3)

	snap, err := NewLoader(store).Load(context.Background(), "m")
	require.NoError(t, err)

	assert.Equal(t, 5, snap.Len())
	assert.Len(t, snap.Embeddings, 5)
	assert.Equal(t, 2, snap.Stats.DocsLoaded)
	assert.Equal(t, 0, snap.Stats.DocsSkipped)
}

func TestLoader_SkipsMissingAndMismatched(t *testing.T) {
	store := newMockIndexStore()
	store.add("doc-ok", 2)
	store.loadErr["doc-gone"] = domain.ErrNotFound
	store.loadErr["doc-bad"] = domain.ErrIndexMismatch

	snap, err := NewLoader(store).Load(context.Background(), "m")
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Len())
	assert.Equal(t, 1, snap.Stats.DocsLoaded)
	assert.Equal(t, 2, snap.Stats.DocsSkipped)
}

func TestLoader_SkipsUnreadableArtifacts(t *testing.T) {
	store := newMockIndexStore()
	store.add("doc-ok", 2)
	store.loadErr["doc-x"] = fmt.Errorf("reading row 0: unexpected EOF")

	snap, err := NewLoader(store).Load(context.Background(), "m")
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Len())
	assert.Equal(t, 1, snap.Stats.DocsLoaded)
	assert.Equal(t, 1, snap.Stats.DocsSkipped)
}

func TestLoader_SkipsTruncatedMatrix(t *testing.T) {
	root := t.TempDir()
	store, err := index.NewStore(root)
	require.NoError(t, err)
	ctx := context.Background()

	for _, docID := range []string{"doc-ok", "doc-bad"} {
		sections := []domain.Section{{
			Path:      docID + " > part",
			Text:      "text",
			SectionID: docID + "::s0000",
		}}
		meta := domain.IndexMeta{
			DocID:          docID,
			Filename:       docID + ".pdf",
			EmbeddingModel: "m",
			SectionCount:   1,
			CreatedAt:      time.Now().UTC(),
		}
		require.NoError(t, store.Write(ctx, meta, sections, [][]float32{{1, 0}}))
	}

	vecPath := filepath.Join(root, "doc-bad", "embeddings__m.vec")
	info, err := os.Stat(vecPath)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(vecPath, info.Size()-3))

	snap, err := NewLoader(store).Load(ctx, "m")
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Stats.DocsLoaded)
	assert.Equal(t, 1, snap.Stats.DocsSkipped)
	require.Equal(t, 1, snap.Len())
	assert.Equal(t, "doc-ok::s0000", snap.Sections[0].SectionID)
}

func TestLoader_CancelledContext(t *testing.T) {
	store := newMockIndexStore()
	store.add("doc-a", 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(store).Load(ctx, "m")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoader_ListFailure(t *testing.T) {
	store := newMockIndexStore()
	store.listErr = fmt.Errorf("root unreadable")

	_, err := NewLoader(store).Load(context.Background(), "m")

	assert.Error(t, err)
}

func TestLoader_EmptyCorpus(t *testing.T) {
	snap, err := NewLoader(newMockIndexStore()).Load(context.Background(), "m")

	require.NoError(t, err)
	assert.Equal(t, 0, snap.Len())
}

func TestCache_MemoizesPerModel(t *testing.T) {
	store := newMockIndexStore()
	store.add("doc-a", 1)
	cache := NewCache(NewLoader(store))
	ctx := context.Background()

	s1, err := cache.Get(ctx, "model-a")
	require.NoError(t, err)
	s2, err := cache.Get(ctx, "model-a")
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Equal(t, 1, store.loadCalls)

	_, err = cache.Get(ctx, "model-b")
	require.NoError(t, err)
	assert.Equal(t, 2, store.loadCalls)
}

func TestCache_InvalidateForcesRebuild(t *testing.T) {
	store := newMockIndexStore()
	store.add("doc-a", 1)
	cache := NewCache(NewLoader(store))
	ctx := context.Background()

	s1, err := cache.Get(ctx, "m")
	require.NoError(t, err)

	store.add("doc-b", 1)
	cache.Invalidate("m")

	s2, err := cache.Get(ctx, "m")
	require.NoError(t, err)

	assert.NotSame(t, s1, s2)
	assert.Equal(t, 2, s2.Len())
}

func TestCache_InvalidateAll(t *testing.T) {
	store := newMockIndexStore()
	store.add("doc-a", 1)
	cache := NewCache(NewLoader(store))
	ctx := context.Background()

	_, err := cache.Get(ctx, "model-a")
	require.NoError(t, err)
	_, err = cache.Get(ctx, "model-b")
	require.NoError(t, err)

	cache.InvalidateAll()

	calls := store.loadCalls
	_, err = cache.Get(ctx, "model-a")
	require.NoError(t, err)
	assert.Equal(t, calls+1, store.loadCalls)
}
