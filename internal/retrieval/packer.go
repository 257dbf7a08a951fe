package retrieval

import (
	"strings"
	"unicode"

	"github.com/agora-labs/agora-cli/internal/core/domain"
)

// minTokenLen filters out articles and other short noise words before
// lexical overlap counting.
const minTokenLen = 3

// Pack assembles ranked sections into budgeted context blocks. Each
// block carries a 1-based index, the section path and its page range.
// Packing stops as soon as the next rendered block would exceed the
// character budget; blocks are never truncated mid-text.
func Pack(hits []domain.ScoredSection, budget int) []domain.ContextBlock {
	var blocks []domain.ContextBlock
	used := 0

	for _, h := range hits {
		text := strings.TrimSpace(h.Section.Text)
		if text == "" {
			continue
		}

		block := domain.ContextBlock{
			Index:     len(blocks) + 1,
			Path:      h.Section.Path,
			PageStart: h.Section.PageStart,
			PageEnd:   h.Section.PageEnd,
			Score:     h.Score,
			Text:      text,
		}
		rendered := block.Render()
		if used+len(rendered) > budget {
			break
		}
		used += len(rendered) + 2
		blocks = append(blocks, block)
	}
	return blocks
}

// LexicalFilter drops candidates sharing fewer than minShared
// normalised word tokens with the query. It is a cheap relevance gate
// on top of the embedding ranking: embeddings occasionally score
// topically unrelated text adequately, and those matches rarely share
// any vocabulary with the question.
func LexicalFilter(query string, hits []domain.ScoredSection, minShared int) []domain.ScoredSection {
	if minShared <= 0 {
		return hits
	}
	queryTokens := tokenSet(query)
	if len(queryTokens) == 0 {
		return hits
	}

	kept := make([]domain.ScoredSection, 0, len(hits))
	for _, h := range hits {
		if sharedTokens(queryTokens, h.Section.Text) >= minShared {
			kept = append(kept, h)
		}
	}
	return kept
}

// tokenSet splits text into lowercase word tokens of useful length.
func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range splitWords(text) {
		if len(tok) >= minTokenLen {
			set[tok] = struct{}{}
		}
	}
	return set
}

// sharedTokens counts distinct query tokens appearing in text.
func sharedTokens(queryTokens map[string]struct{}, text string) int {
	seen := make(map[string]struct{})
	count := 0
	for _, tok := range splitWords(text) {
		if len(tok) < minTokenLen {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if _, ok := queryTokens[tok]; ok {
			count++
		}
	}
	return count
}

func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
