package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-labs/agora-cli/internal/core/domain"
)

type ingestFixture struct {
	metadata  *mockMetadataStore
	blobs     *mockBlobStore
	index     *mockIndexStore
	embedder  *mockEmbeddingService
	extractor *mockExtractor
	svc       *IngestService
}

func newIngestFixture() *ingestFixture {
	f := &ingestFixture{
		metadata: newMockMetadataStore(),
		blobs:    newMockBlobStore(),
		index:    newMockIndexStore(),
		embedder: newMockEmbeddingService(),
		extractor: &mockExtractor{
			exts:  []string{".pdf", ".txt", ".md"},
			pages: []string{"Report body text continues across this page."},
		},
	}
	f.svc = NewIngestService(f.metadata, f.blobs, f.index, f.embedder, nil, f.extractor)
	return f
}

func TestIngest_HappyPath(t *testing.T) {
	f := newIngestFixture()

	doc, err := f.svc.Ingest(context.Background(), "report.pdf", []byte("raw bytes"))
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, domain.StatusReady, doc.Status)
	assert.Equal(t, "mock-model", doc.EmbeddingModel)
	assert.Equal(t, 1, doc.SectionCount)

	stored, err := f.metadata.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, stored.Status)

	secs, vecs, err := f.index.Load(context.Background(), doc.ID, "mock-model")
	require.NoError(t, err)
	require.Len(t, secs, 1)
	assert.Len(t, vecs, 1)
	assert.Equal(t, doc.ID+"::s0000", secs[0].SectionID)

	_, err = f.blobs.Get(context.Background(), doc.ContentHash)
	assert.NoError(t, err)
}

func TestIngest_RejectsEmptyInput(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, "", []byte("bytes"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Ingest(ctx, "doc.pdf", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngest_RejectsUnsupportedExtension(t *testing.T) {
	f := newIngestFixture()

	_, err := f.svc.Ingest(context.Background(), "spreadsheet.xlsx", []byte("bytes"))

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestIngest_DeduplicatesByContentHash(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	first, err := f.svc.Ingest(ctx, "original.pdf", []byte("identical bytes"))
	require.NoError(t, err)

	dup, err := f.svc.Ingest(ctx, "renamed.pdf", []byte("identical bytes"))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	require.NotNil(t, dup)
	assert.Equal(t, first.ID, dup.ID)

	docs, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestIngest_EmptyExtractionFailsDocument(t *testing.T) {
	f := newIngestFixture()
	f.extractor.pages = nil

	doc, err := f.svc.Ingest(context.Background(), "scanned.pdf", []byte("bytes"))

	assert.ErrorIs(t, err, domain.ErrNoTextExtracted)
	require.NotNil(t, doc)
	assert.Equal(t, domain.StatusFailed, doc.Status)
	assert.Contains(t, doc.Error, "scanned or protected")

	stored, getErr := f.metadata.GetDocument(context.Background(), doc.ID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.StatusFailed, stored.Status)
}

func TestIngest_EmbeddingFailureFailsDocument(t *testing.T) {
	f := newIngestFixture()
	f.embedder.batchErr = domain.ErrEmbeddingUnavailable

	doc, err := f.svc.Ingest(context.Background(), "doc.pdf", []byte("bytes"))

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Equal(t, domain.StatusFailed, doc.Status)

	// No index artifacts were written for the failed document.
	_, _, loadErr := f.index.Load(context.Background(), doc.ID, "mock-model")
	assert.ErrorIs(t, loadErr, domain.ErrNotFound)
}

func TestIngest_EmbeddingCountMismatchFailsDocument(t *testing.T) {
	f := newIngestFixture()
	f.embedder.short = true

	doc, err := f.svc.Ingest(context.Background(), "doc.pdf", []byte("bytes"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
	assert.Equal(t, domain.StatusFailed, doc.Status)
}

func TestIngest_PlainTextSingleSection(t *testing.T) {
	f := newIngestFixture()
	f.extractor.pages = []string{"line one of notes", "line two of notes"}

	doc, err := f.svc.Ingest(context.Background(), "notes.txt", []byte("bytes"))
	require.NoError(t, err)

	secs, _, err := f.index.Load(context.Background(), doc.ID, "mock-model")
	require.NoError(t, err)
	require.Len(t, secs, 1)
	assert.Equal(t, "notes.txt", secs[0].Path)
	assert.Equal(t, 1, secs[0].Level)
	assert.Equal(t, 1, secs[0].PageStart)
	assert.Equal(t, 1, secs[0].PageEnd)
	assert.Equal(t, "line one of notes\nline two of notes", secs[0].Text)
}

func TestIngest_StripsRepeatedPageHeaders(t *testing.T) {
	f := newIngestFixture()
	header := "Orbital Mechanics Review.\nInternal circulation only."
	bodies := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	f.extractor.pages = nil
	for _, b := range bodies {
		f.extractor.pages = append(f.extractor.pages, header+"\nBody "+b+" continues here.")
	}

	doc, err := f.svc.Ingest(context.Background(), "review.pdf", []byte("pdf bytes"))
	require.NoError(t, err)

	secs, _, err := f.index.Load(context.Background(), doc.ID, "mock-model")
	require.NoError(t, err)
	require.NotEmpty(t, secs)
	for _, sec := range secs {
		assert.NotContains(t, sec.Text, "Orbital Mechanics Review")
		assert.Contains(t, sec.Text, "Body alpha")
	}
}

func TestIngest_KeepsHeadersBelowRepeatThreshold(t *testing.T) {
	f := newIngestFixture()

	// Two header variants differing only in internal whitespace. Each
	// appears on a third of the pages: neither repeats often enough on
	// the raw text to count as a running header, even though collapsing
	// whitespace first would merge them into one block over the
	// threshold.
	doubled := "Orbital  Mechanics Review.\nInternal circulation only."
	single := "Orbital Mechanics Review.\nInternal circulation only."
	f.extractor.pages = []string{
		doubled + "\nBody alpha continues here.",
		doubled + "\nBody beta continues here.",
		single + "\nBody gamma continues here.",
		single + "\nBody delta continues here.",
		"Body epsilon continues here.",
		"Body zeta continues here.",
	}

	doc, err := f.svc.Ingest(context.Background(), "review.pdf", []byte("pdf bytes"))
	require.NoError(t, err)

	secs, _, err := f.index.Load(context.Background(), doc.ID, "mock-model")
	require.NoError(t, err)
	var all strings.Builder
	for _, sec := range secs {
		all.WriteString(sec.Text)
		all.WriteString("\n")
	}
	assert.Contains(t, all.String(), "Orbital Mechanics Review")
}

func TestIngest_OversizedSectionTruncated(t *testing.T) {
	f := newIngestFixture()
	f.extractor.pages = []string{strings.Repeat("a", maxSectionChars+500)}

	doc, err := f.svc.Ingest(context.Background(), "big.txt", []byte("bytes"))
	require.NoError(t, err)

	secs, _, err := f.index.Load(context.Background(), doc.ID, "mock-model")
	require.NoError(t, err)
	require.Len(t, secs, 1)
	assert.Len(t, secs[0].Text, maxSectionChars)
}

func TestReprocess_RebuildsFromBlob(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	doc, err := f.svc.Ingest(ctx, "report.pdf", []byte("raw bytes"))
	require.NoError(t, err)

	// A model switch reprocesses the stored blob under the new model.
	f.embedder.model = "upgraded-model"

	redone, err := f.svc.Reprocess(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "upgraded-model", redone.EmbeddingModel)
	assert.Equal(t, domain.StatusReady, redone.Status)
}

func TestReprocess_MissingDocument(t *testing.T) {
	f := newIngestFixture()

	_, err := f.svc.Reprocess(context.Background(), "no-such-id")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReprocess_RejectsDeletedDocument(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	doc, err := f.svc.Ingest(ctx, "report.pdf", []byte("raw bytes"))
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, doc.ID))

	_, err = f.svc.Reprocess(ctx, doc.ID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_RemovesArtifacts(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	doc, err := f.svc.Ingest(ctx, "report.pdf", []byte("raw bytes"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, doc.ID))

	assert.Contains(t, f.index.deleted, doc.ID)
	_, err = f.blobs.Get(ctx, doc.ContentHash)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	docs, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDelete_Idempotent(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	doc, err := f.svc.Ingest(ctx, "report.pdf", []byte("raw bytes"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, doc.ID))
	assert.NoError(t, f.svc.Delete(ctx, doc.ID))
}

func TestDelete_MissingDocument(t *testing.T) {
	f := newIngestFixture()

	err := f.svc.Delete(context.Background(), "no-such-id")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
