// Package pdf extracts per-page text from PDF documents using pdfcpu.
//
// Extraction is fail-soft end to end: a document that cannot be opened
// yields an empty page list with the failure recorded as a warning, and
// a page that cannot be parsed yields an empty string so downstream
// page numbering stays aligned.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/agora-labs/agora-cli/internal/core/domain"
	"github.com/agora-labs/agora-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor reads PDF content streams page by page.
type Extractor struct {
	conf *model.Configuration
}

// New creates a PDF extractor with relaxed validation, so partially
// malformed documents still open.
func New() *Extractor {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Extractor{conf: conf}
}

// SupportedExtensions returns the file extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Extract returns one raw text string per page plus a diagnostic report.
// Only context cancellation surfaces as an error; malformed input is
// reported through the warnings list.
func (e *Extractor) Extract(ctx context.Context, content []byte) ([]string, domain.ExtractionReport, error) {
	report := domain.ExtractionReport{}

	pdfCtx, err := e.open(content)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("failed to open PDF: %v", err))
		return nil, report, nil
	}

	report.PageCount = pdfCtx.PageCount
	pages := make([]string, 0, pdfCtx.PageCount)

	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}

		text, err := extractPage(pdfCtx, pageNr)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("page %d: %v", pageNr, err))
			text = ""
		}

		pages = append(pages, text)

		if strings.TrimSpace(text) != "" {
			report.ExtractedPages++
			report.TotalChars += len(text)
		} else {
			report.EmptyPages++
		}
	}

	return pages, report, nil
}

// open parses and validates the document. pdfcpu can panic on some
// malformed inputs, so the recover converts that into an open failure.
func (e *Extractor) open(content []byte) (pdfCtx *model.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			pdfCtx = nil
			err = fmt.Errorf("pdfcpu panic: %v", r)
		}
	}()
	return api.ReadValidateAndOptimize(bytes.NewReader(content), e.conf)
}

// extractPage pulls the text of a single page, recovering from parser
// panics so one bad page never aborts the document.
func extractPage(pdfCtx *model.Context, pageNr int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("content stream panic: %v", r)
		}
	}()

	r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
	if err != nil {
		return "", fmt.Errorf("extract content: %w", err)
	}
	if r == nil {
		return "", nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return streamText(data), nil
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// streamText parses content stream operators for text, keeping line
// structure: positioning operators become newlines so that heading and
// bullet heuristics downstream see one logical line per text row.
func streamText(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		// Tj / TJ operators carry the visible text.
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodeString(m[1]))
			}

		// ' shows text on the next line.
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			sb.WriteByte('\n')
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodeString(m[1]))
			}

		// Td/TD/T* move the text cursor to a new line.
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")), bytes.Equal(line, []byte("T*")):
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
		}
	}

	return sb.String()
}

// decodeString handles basic PDF string escape sequences.
func decodeString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			// Octal escape, e.g. \040 for space.
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}
