// Package text extracts content from plain text and markdown uploads.
// The whole file is emitted as a single page; structuring treats it as
// one root-level section.
package text

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/agora-labs/agora-cli/internal/core/domain"
	"github.com/agora-labs/agora-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor handles .txt and .md uploads.
type Extractor struct{}

// New creates a plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedExtensions returns the file extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".txt", ".md"}
}

// Extract decodes the bytes as UTF-8 (invalid sequences replaced) and
// returns the whole document as one page.
func (e *Extractor) Extract(_ context.Context, content []byte) ([]string, domain.ExtractionReport, error) {
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}

	report := domain.ExtractionReport{PageCount: 1}
	if strings.TrimSpace(text) == "" {
		report.EmptyPages = 1
		report.Warnings = append(report.Warnings, "empty text file")
		return []string{""}, report, nil
	}

	report.ExtractedPages = 1
	report.TotalChars = len(text)
	return []string{text}, report, nil
}
