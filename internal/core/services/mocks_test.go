package services

import (
	"context"
	"fmt"

	"github.com/agora-labs/agora-cli/internal/core/domain"
	"github.com/agora-labs/agora-cli/internal/core/ports/driven"
)

// mockMetadataStore implements driven.MetadataStore in memory.
type mockMetadataStore struct {
	docs      map[string]*domain.Document
	saveErr   error
	statusErr error
}

var _ driven.MetadataStore = (*mockMetadataStore)(nil)

func newMockMetadataStore() *mockMetadataStore {
	return &mockMetadataStore{docs: make(map[string]*domain.Document)}
}

func (m *mockMetadataStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *doc
	m.docs[doc.ID] = &cp
	return nil
}

func (m *mockMetadataStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (m *mockMetadataStore) GetByContentHash(_ context.Context, hash string) (*domain.Document, error) {
	for _, doc := range m.docs {
		if doc.ContentHash == hash && doc.Status != domain.StatusDeleted {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockMetadataStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	var out []domain.Document
	for _, doc := range m.docs {
		if doc.Status != domain.StatusDeleted {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (m *mockMetadataStore) SetStatus(_ context.Context, id string, status domain.DocumentStatus, errMsg string) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	doc, ok := m.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Status = status
	if status == domain.StatusFailed {
		doc.Error = errMsg
	} else {
		doc.Error = ""
	}
	return nil
}

func (m *mockMetadataStore) Close() error { return nil }

// mockBlobStore implements driven.BlobStore in memory, keyed the same
// way as the real store.
type mockBlobStore struct {
	data   map[string][]byte
	putErr error
}

var _ driven.BlobStore = (*mockBlobStore)(nil)

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{data: make(map[string][]byte)}
}

func (m *mockBlobStore) Put(_ context.Context, _ string, content []byte) (string, error) {
	if m.putErr != nil {
		return "", m.putErr
	}
	key := contentHash(content)
	m.data[key] = content
	return key, nil
}

func (m *mockBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	content, ok := m.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return content, nil
}

func (m *mockBlobStore) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

// mockIndexStore implements driven.IndexStore in memory.
type mockIndexStore struct {
	sections   map[string][]domain.Section
	embeddings map[string][][]float32
	writeErr   error
	deleted    []string
}

var _ driven.IndexStore = (*mockIndexStore)(nil)

func newMockIndexStore() *mockIndexStore {
	return &mockIndexStore{
		sections:   make(map[string][]domain.Section),
		embeddings: make(map[string][][]float32),
	}
}

func (m *mockIndexStore) Write(_ context.Context, meta domain.IndexMeta, secs []domain.Section, embeddings [][]float32) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.sections[meta.DocID] = secs
	m.embeddings[meta.DocID] = embeddings
	return nil
}

func (m *mockIndexStore) Load(_ context.Context, docID, _ string) ([]domain.Section, [][]float32, error) {
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
	var ids []string
	for id := range m.sections {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockIndexStore) Delete(_ context.Context, docID string) error {
	delete(m.sections, docID)
	delete(m.embeddings, docID)
	m.deleted = append(m.deleted, docID)
	return nil
}

func (m *mockIndexStore) Root() string { return "" }

// mockEmbeddingService implements driven.EmbeddingService with fixed
// two-dimensional vectors.
type mockEmbeddingService struct {
	model    string
	queryVec []float32
	batchVec []float32
	embedErr error
	batchErr error
	short    bool
}

var _ driven.EmbeddingService = (*mockEmbeddingService)(nil)

func newMockEmbeddingService() *mockEmbeddingService {
	return &mockEmbeddingService{
		model:    "mock-model",
		queryVec: []float32{0, 1},
		batchVec: []float32{0, 1},
	}
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.queryVec, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	n := len(texts)
	if m.short && n > 0 {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = m.batchVec
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int       { return len(m.batchVec) }
func (m *mockEmbeddingService) ModelName() string     { return m.model }
func (m *mockEmbeddingService) Ping(context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error          { return nil }

// mockLLMService implements driven.LLMService, recording prompts.
type mockLLMService struct {
	reply      string
	err        error
	lastSystem string
	lastUser   string
	calls      int
}

var _ driven.LLMService = (*mockLLMService)(nil)

func (m *mockLLMService) Complete(_ context.Context, system, user string) (string, error) {
	m.calls++
	m.lastSystem = system
	m.lastUser = user
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockLLMService) ModelName() string { return "mock-llm" }
func (m *mockLLMService) Close() error      { return nil }

// mockPromptStore implements driven.PromptStore over a map.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

var _ driven.PromptStore = (*mockPromptStore)(nil)

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	prompt, ok := m.prompts[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	return prompt, nil
}

func (m *mockPromptStore) Reload() {}

// mockExtractor implements driven.TextExtractor with canned pages.
type mockExtractor struct {
	exts     []string
	pages    []string
	warnings []string
	err      error
}

var _ driven.TextExtractor = (*mockExtractor)(nil)

func (m *mockExtractor) SupportedExtensions() []string { return m.exts }

func (m *mockExtractor) Extract(_ context.Context, _ []byte) ([]string, domain.ExtractionReport, error) {
	report := domain.ExtractionReport{
		PageCount: len(m.pages),
		Warnings:  m.warnings,
	}
	for _, p := range m.pages {
		if p != "" {
			report.ExtractedPages++
			report.TotalChars += len(p)
		}
	}
	return m.pages, report, m.err
}
