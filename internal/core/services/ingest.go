package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/agora-labs/agora-cli/internal/core/domain"
	"github.com/agora-labs/agora-cli/internal/core/ports/driven"
	"github.com/agora-labs/agora-cli/internal/core/ports/driving"
	"github.com/agora-labs/agora-cli/internal/corpus"
	"github.com/agora-labs/agora-cli/internal/layout"
	"github.com/agora-labs/agora-cli/internal/logger"
	"github.com/agora-labs/agora-cli/internal/sections"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// maxSectionChars caps stored section text. Oversized sections are
// truncated, not split; embedding quality degrades long before this
// limit anyway.
const maxSectionChars = 8000

// plainTextExtensions are ingested as a single section without layout
// analysis or heading detection.
var plainTextExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// IngestService drives the document write path: store raw bytes,
// extract text, build sections, embed and persist the structured index.
type IngestService struct {
	metadata   driven.MetadataStore
	blobs      driven.BlobStore
	index      driven.IndexStore
	embedder   driven.EmbeddingService
	extractors map[string]driven.TextExtractor
	builder    *sections.Builder
	cache      *corpus.Cache
}

// NewIngestService creates a new ingest service. Extractors are keyed
// by the extensions they report.
func NewIngestService(
	metadata driven.MetadataStore,
	blobs driven.BlobStore,
	index driven.IndexStore,
	embedder driven.EmbeddingService,
	cache *corpus.Cache,
	extractors ...driven.TextExtractor,
) *IngestService {
	byExt := make(map[string]driven.TextExtractor)
	for _, ex := range extractors {
		for _, ext := range ex.SupportedExtensions() {
			byExt[strings.ToLower(ext)] = ex
		}
	}
	return &IngestService{
		metadata:   metadata,
		blobs:      blobs,
		index:      index,
		embedder:   embedder,
		extractors: byExt,
		builder:    sections.NewBuilder(),
		cache:      cache,
	}
}

// Ingest stores and processes a new document.
func (s *IngestService) Ingest(ctx context.Context, filename string, content []byte) (*domain.Document, error) {
	logger.Section("Document Ingestion")
	logger.Debug("File: %s (%d bytes)", filename, len(content))

	filename = strings.TrimSpace(filename)
	if filename == "" || len(content) == 0 {
		return nil, fmt.Errorf("%w: filename and content are required", domain.ErrInvalidInput)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := s.extractors[ext]; !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, ext)
	}

	hash := contentHash(content)
	if existing, err := s.metadata.GetByContentHash(ctx, hash); err == nil {
		logger.Debug("Duplicate content hash %s (existing doc %s)", hash[:12], existing.ID)
		return existing, fmt.Errorf("%w: identical content already uploaded as %q", domain.ErrAlreadyExists, existing.Filename)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("checking for duplicate: %w", err)
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:             uuid.NewString(),
		Filename:       filename,
		ContentHash:    hash,
		Status:         domain.StatusUploaded,
		EmbeddingModel: s.embedder.ModelName(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.metadata.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("saving document record: %w", err)
	}

	if _, err := s.blobs.Put(ctx, filename, content); err != nil {
		s.markFailed(ctx, doc, fmt.Errorf("storing raw file: %w", err))
		return doc, fmt.Errorf("storing raw file: %w", err)
	}

	if err := s.process(ctx, doc, content); err != nil {
		return doc, err
	}
	return doc, nil
}

// Reprocess re-runs the full pipeline for an existing document.
func (s *IngestService) Reprocess(ctx context.Context, docID string) (*domain.Document, error) {
	logger.Section("Document Reprocessing")
	logger.Debug("Document: %s", docID)

	doc, err := s.metadata.GetDocument(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	if doc.Status == domain.StatusDeleted {
		return nil, fmt.Errorf("%w: document %s is deleted", domain.ErrNotFound, docID)
	}

	content, err := s.blobs.Get(ctx, doc.ContentHash)
	if err != nil {
		return nil, fmt.Errorf("loading raw file: %w", err)
	}

	// Reprocessing adopts the currently configured embedding model, so
	// a model switch can rebuild existing documents in place.
	doc.EmbeddingModel = s.embedder.ModelName()

	if err := s.process(ctx, doc, content); err != nil {
		return doc, err
	}
	return doc, nil
}

// Delete marks a document deleted and removes its artifacts.
func (s *IngestService) Delete(ctx context.Context, docID string) error {
	logger.Section("Document Deletion")
	logger.Debug("Document: %s", docID)

	doc, err := s.metadata.GetDocument(ctx, docID)
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}
	if doc.Status == domain.StatusDeleted {
		return nil
	}

	if err := s.metadata.SetStatus(ctx, docID, domain.StatusDeleted, ""); err != nil {
		return fmt.Errorf("marking deleted: %w", err)
	}
	if err := s.index.Delete(ctx, docID); err != nil {
		logger.Warn("Failed to remove index for %s: %v", docID, err)
	}
	if err := s.blobs.Delete(ctx, doc.ContentHash); err != nil {
		logger.Warn("Failed to remove raw file for %s: %v", docID, err)
	}

	if s.cache != nil {
		s.cache.Invalidate(doc.EmbeddingModel)
	}
	return nil
}

// List returns all non-deleted documents.
func (s *IngestService) List(ctx context.Context) ([]domain.Document, error) {
	return s.metadata.ListDocuments(ctx)
}

// process runs extraction, section building, embedding and index
// persistence for one document. On failure the document is marked
// failed and any previously persisted index is left untouched.
func (s *IngestService) process(ctx context.Context, doc *domain.Document, content []byte) error {
	if err := s.metadata.SetStatus(ctx, doc.ID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("marking processing: %w", err)
	}
	doc.Status = domain.StatusProcessing

	secs, err := s.buildSections(ctx, doc, content)
	if err != nil {
		s.markFailed(ctx, doc, err)
		return err
	}
	if len(secs) == 0 {
		err := fmt.Errorf("%w: the file may be scanned or protected", domain.ErrNoTextExtracted)
		s.markFailed(ctx, doc, err)
		return err
	}
	logger.Debug("Built %d sections", len(secs))

	texts := make([]string, len(secs))
	for i, sec := range secs {
		texts[i] = sec.Text
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		wrapped := fmt.Errorf("embedding sections: %w", err)
		s.markFailed(ctx, doc, wrapped)
		return wrapped
	}
	if len(embeddings) != len(secs) {
		err := fmt.Errorf("embedding count mismatch: %d sections, %d vectors", len(secs), len(embeddings))
		s.markFailed(ctx, doc, err)
		return err
	}

	meta := domain.IndexMeta{
		DocID:          doc.ID,
		Filename:       doc.Filename,
		EmbeddingModel: doc.EmbeddingModel,
		SectionCount:   len(secs),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.index.Write(ctx, meta, secs, embeddings); err != nil {
		wrapped := fmt.Errorf("writing index: %w", err)
		s.markFailed(ctx, doc, wrapped)
		return wrapped
	}

	doc.Status = domain.StatusReady
	doc.Error = ""
	doc.SectionCount = len(secs)
	doc.UpdatedAt = time.Now().UTC()
	if err := s.metadata.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("saving document record: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(doc.EmbeddingModel)
	}
	logger.Info("Document %s ready (%d sections)", doc.ID, len(secs))
	return nil
}

// buildSections turns raw bytes into the ordered, labelled section list.
func (s *IngestService) buildSections(ctx context.Context, doc *domain.Document, content []byte) ([]domain.Section, error) {
	ext := strings.ToLower(filepath.Ext(doc.Filename))
	extractor, ok := s.extractors[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, ext)
	}

	pages, report, err := extractor.Extract(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("extracting text: %w", err)
	}
	for _, w := range report.Warnings {
		logger.Warn("Extraction: %s", w)
	}
	logger.Debug("Extracted %d/%d pages, %d chars", report.ExtractedPages, report.PageCount, report.TotalChars)

	var secs []domain.Section
	if plainTextExtensions[ext] {
		text := strings.TrimSpace(strings.Join(pages, "\n"))
		if text == "" {
			return nil, nil
		}
		secs = []domain.Section{{
			Path:      doc.Filename,
			Level:     1,
			PageStart: 1,
			PageEnd:   1,
			Text:      text,
		}}
	} else {
		pages = layout.StripRepeatedBlocks(pages, layout.DefaultBlockLines)
		pages = layout.Normalise(pages)
		secs = s.builder.Build(doc.Filename, pages)
	}

	out := secs[:0]
	for _, sec := range secs {
		sec.Text = truncateRunesafe(sec.Text, maxSectionChars)
		if strings.TrimSpace(sec.Text) == "" {
			continue
		}
		sec.SectionID = fmt.Sprintf("%s::s%04d", doc.ID, len(out))
		out = append(out, sec)
	}
	return out, nil
}

// markFailed records a failure without clobbering a prior error.
func (s *IngestService) markFailed(ctx context.Context, doc *domain.Document, cause error) {
	doc.Status = domain.StatusFailed
	doc.Error = cause.Error()
	if err := s.metadata.SetStatus(ctx, doc.ID, domain.StatusFailed, cause.Error()); err != nil {
		logger.Warn("Failed to record failure for %s: %v", doc.ID, err)
	}
}

// contentHash returns the lowercase hex SHA-256 of content.
func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// truncateRunesafe cuts s to at most max bytes without splitting a rune.
func truncateRunesafe(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	// Back off any trailing partial rune.
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
