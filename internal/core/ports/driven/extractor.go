package driven

import (
	"context"

	"github.com/agora-labs/agora-cli/internal/core/domain"
)

// TextExtractor pulls ordered per-page raw text out of a document.
//
// Extraction never fails hard: a total open failure yields an empty
// page list with the failure message as a warning, and per-page
// failures yield empty strings so page numbering stays aligned.
type TextExtractor interface {
	// SupportedExtensions returns the lowercase file extensions this
	// extractor handles, including the dot (".pdf").
	SupportedExtensions() []string

	// Extract returns one raw text string per page plus a diagnostic
	// report. The error return is reserved for context cancellation;
	// malformed input is reported through warnings.
	Extract(ctx context.Context, content []byte) ([]string, domain.ExtractionReport, error)
}
