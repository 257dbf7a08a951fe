package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/agora-labs/agora-cli/internal/core/domain"
	"github.com/agora-labs/agora-cli/internal/core/ports/driven"
	"github.com/agora-labs/agora-cli/internal/core/ports/driving"
	"github.com/agora-labs/agora-cli/internal/corpus"
	"github.com/agora-labs/agora-cli/internal/logger"
	"github.com/agora-labs/agora-cli/internal/retrieval"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// lexicalMinShared is the overlap gate applied before packing: a
// candidate must share at least this many normalised word tokens with
// the question.
const lexicalMinShared = 1

// QueryService drives the read path: similarity retrieval over the
// corpus snapshot plus the grounded ask flow.
type QueryService struct {
	cache    *corpus.Cache
	embedder driven.EmbeddingService
	llm      driven.LLMService
	prompts  driven.PromptStore
	settings Settings
}

// NewQueryService creates a new query service. The llm parameter is
// optional (can be nil); without it Ask returns evidence only.
func NewQueryService(
	cache *corpus.Cache,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	settings Settings,
) *QueryService {
	return &QueryService{
		cache:    cache,
		embedder: embedder,
		llm:      llm,
		prompts:  prompts,
		settings: settings,
	}
}

// Retrieve embeds the query and returns the top-k sections ranked by
// cosine similarity, highest first.
func (s *QueryService) Retrieve(ctx context.Context, query string, opts domain.RetrievalOptions) ([]domain.ScoredSection, error) {
	logger.Section("Retrieval")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}

	snapshot, err := s.cache.Get(ctx, s.embedder.ModelName())
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}
	if snapshot.Len() == 0 {
		logger.Debug("Corpus is empty")
		return []domain.ScoredSection{}, nil
	}
	logger.Debug("Corpus: %d sections (%d docs, %d skipped)",
		snapshot.Len(), snapshot.Stats.DocsLoaded, snapshot.Stats.DocsSkipped)

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	topK := opts.TopK
	if topK < 1 {
		topK = s.settings.TopK
	}

	hits := retrieval.TopK(snapshot.Embeddings, queryVec, topK)
	results := make([]domain.ScoredSection, 0, len(hits))
	for _, h := range hits {
		if opts.MinScore > 0 && h.Score < opts.MinScore {
			continue
		}
		results = append(results, domain.ScoredSection{
			Section: snapshot.Sections[h.Index],
			Score:   h.Score,
		})
	}
	logger.Debug("Returning %d results", len(results))
	return results, nil
}

// Ask retrieves evidence, packs it into a budgeted context and asks the
// LLM. When nothing relevant survives the gates, a canned answer is
// returned without an LLM call.
func (s *QueryService) Ask(ctx context.Context, question string, opts domain.RetrievalOptions) (*domain.Answer, error) {
	logger.Section("Ask")

	if opts.MinScore == 0 {
		opts.MinScore = s.settings.MinScore
	}
	hits, err := s.Retrieve(ctx, question, opts)
	if err != nil {
		return nil, err
	}

	hits = retrieval.LexicalFilter(question, hits, lexicalMinShared)
	blocks := retrieval.Pack(hits, s.settings.MaxContextChars)
	logger.Debug("Packed %d blocks", len(blocks))

	if len(blocks) == 0 {
		return &domain.Answer{Text: s.loadPrompt(driven.PromptNoResults)}, nil
	}

	if s.llm == nil {
		return &domain.Answer{
			Text:    "No language model is configured. Review the sources below.",
			Sources: blocks,
		}, nil
	}

	rendered := make([]string, len(blocks))
	for i, b := range blocks {
		rendered[i] = b.Render()
	}

	system := s.loadPrompt(driven.PromptAnswerSystem)
	user := fmt.Sprintf(s.loadPrompt(driven.PromptAnswerUser), question, strings.Join(rendered, "\n\n"))

	text, err := s.llm.Complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &domain.Answer{
		Text:    text,
		Sources: blocks,
		Model:   s.llm.ModelName(),
	}, nil
}

// loadPrompt resolves a prompt template, falling back to an internal
// minimal default if the store is missing or failing.
func (s *QueryService) loadPrompt(name string) string {
	if s.prompts != nil {
		if prompt, err := s.prompts.Load(name); err == nil && prompt != "" {
			return prompt
		}
	}
	switch name {
	case driven.PromptAnswerSystem:
		return "Answer using ONLY the provided sources. If the sources don't contain the answer, say so."
	case driven.PromptAnswerUser:
		return "QUESTION:\n%s\n\nSOURCES:\n%s\n\nAnswer using the sources above."
	default:
		return "No relevant information was found in the uploaded documents."
	}
}
