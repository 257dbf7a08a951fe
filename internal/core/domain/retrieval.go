package domain

import "fmt"

// ScoredSection pairs a section with its cosine similarity to a query.
type ScoredSection struct {
	// Section is the retrieved section.
	Section Section

	// Score is the cosine similarity, roughly [-1, 1].
	// Rows with non-finite similarity carry the sentinel -1.0.
	Score float64
}

// RetrievalOptions configures a retrieval request.
type RetrievalOptions struct {
	// TopK is the number of sections to return. Values below 1 use the
	// configured default; the result is always clamped to corpus size.
	TopK int

	// MinScore drops results scoring below the threshold. Zero keeps all.
	MinScore float64
}

// ContextBlock is one formatted evidence block handed to the LLM layer.
type ContextBlock struct {
	// Index is the 1-based position within the packed context.
	Index int

	// Path is the section breadcrumb shown in the block header.
	Path string

	// PageStart and PageEnd bound the source pages.
	PageStart int
	PageEnd   int

	// Score is the retrieval similarity for the block.
	Score float64

	// Text is the section text.
	Text string
}

// Render formats the block as it appears in the packed context.
func (b ContextBlock) Render() string {
	return fmt.Sprintf("[%d] %s (pages %d-%d)\n%s", b.Index, b.Path, b.PageStart, b.PageEnd, b.Text)
}

// Answer is the result of the ask flow: generated text plus the packed
// evidence it was grounded on.
type Answer struct {
	// Text is the generated answer. When no relevant material was found
	// the text says so and no LLM call was made.
	Text string

	// Sources are the context blocks that were handed to the LLM.
	Sources []ContextBlock

	// Model is the LLM model that produced the answer, empty when the
	// LLM was not invoked.
	Model string
}
