package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-labs/agora-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testDoc(id, hash string) *domain.Document {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Document{
		ID:          id,
		Filename:    "report.pdf",
		ContentHash: hash,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDoc("doc-1", "hash-1")
	require.NoError(t, s.SaveDocument(ctx, doc))

	got, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.ID)
	assert.Equal(t, "report.pdf", got.Filename)
	assert.Equal(t, "hash-1", got.ContentHash)
	assert.Equal(t, domain.StatusUploaded, got.Status)
}

func TestStore_SaveUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDoc("doc-1", "hash-1")
	require.NoError(t, s.SaveDocument(ctx, doc))

	doc.Status = domain.StatusReady
	doc.SectionCount = 12
	doc.EmbeddingModel = "test-model"
	require.NoError(t, s.SaveDocument(ctx, doc))

	got, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, got.Status)
	assert.Equal(t, 12, got.SectionCount)
	assert.Equal(t, "test-model", got.EmbeddingModel)
}

func TestStore_SaveRejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.SaveDocument(ctx, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.SaveDocument(ctx, &domain.Document{}), domain.ErrInvalidInput)
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetDocument(context.Background(), "nope")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_GetByContentHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, testDoc("doc-1", "shared-hash")))

	got, err := s.GetByContentHash(ctx, "shared-hash")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.ID)

	_, err = s.GetByContentHash(ctx, "unknown-hash")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_GetByContentHashExcludesDeleted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDoc("doc-1", "hash-1")
	doc.Status = domain.StatusDeleted
	require.NoError(t, s.SaveDocument(ctx, doc))

	_, err := s.GetByContentHash(ctx, "hash-1")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := testDoc("doc-old", "h1")
	old.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	recent := testDoc("doc-new", "h2")

	require.NoError(t, s.SaveDocument(ctx, old))
	require.NoError(t, s.SaveDocument(ctx, recent))

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc-new", docs[0].ID)
	assert.Equal(t, "doc-old", docs[1].ID)
}

func TestStore_ListExcludesDeleted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, testDoc("doc-1", "h1")))
	deleted := testDoc("doc-2", "h2")
	deleted.Status = domain.StatusDeleted
	require.NoError(t, s.SaveDocument(ctx, deleted))

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-1", docs[0].ID)
}

func TestStore_SetStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, testDoc("doc-1", "h1")))
	require.NoError(t, s.SetStatus(ctx, "doc-1", domain.StatusProcessing, ""))

	got, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, got.Status)
	assert.Empty(t, got.Error)
}

func TestStore_SetStatusFailedKeepsMessage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, testDoc("doc-1", "h1")))
	require.NoError(t, s.SetStatus(ctx, "doc-1", domain.StatusFailed, "no text extracted"))

	got, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, "no text extracted", got.Error)
}

func TestStore_SetStatusClearsStaleError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, testDoc("doc-1", "h1")))
	require.NoError(t, s.SetStatus(ctx, "doc-1", domain.StatusFailed, "boom"))
	require.NoError(t, s.SetStatus(ctx, "doc-1", domain.StatusReady, "ignored"))

	got, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, got.Status)
	assert.Empty(t, got.Error)
}

func TestStore_SetStatusValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.SetStatus(ctx, "doc-1", domain.DocumentStatus("bogus"), ""), domain.ErrInvalidInput)
	assert.ErrorIs(t, s.SetStatus(ctx, "missing", domain.StatusReady, ""), domain.ErrNotFound)
}

func TestStore_MigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, s1.SaveDocument(context.Background(), testDoc("doc-1", "h1")))
	require.NoError(t, s1.Close())

	// Reopening the same database must not rerun applied migrations.
	s2, err := NewStore(dir)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.GetDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.ID)
}
