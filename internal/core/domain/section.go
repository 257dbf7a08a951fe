package domain

// Section is a titled, page-bounded span of extracted document text.
// It is the atomic unit of retrieval.
type Section struct {
	// Path is the hierarchical breadcrumb, e.g. "report.pdf > 2.1 Introduction".
	// Unique within a document, not globally.
	Path string `json:"path"`

	// Level is the heading depth, 1-6. Level 1 is the document root,
	// level 2 a flat heading, deeper levels come from numbered headings.
	Level int `json:"level"`

	// PageStart is the 1-indexed first page contributing to this section.
	PageStart int `json:"page_start"`

	// PageEnd is the 1-indexed last page contributing to this section.
	PageEnd int `json:"page_end"`

	// Text is the normalised, bullet-annotated prose block.
	Text string `json:"text"`

	// SectionID is the stable index-time identifier,
	// "{doc_id}::s{NNNN}". Empty until the section is indexed.
	SectionID string `json:"section_id,omitempty"`
}

// ExtractionReport summarises a page-by-page extraction run.
type ExtractionReport struct {
	// PageCount is the number of pages the document claims to have.
	PageCount int `json:"page_count"`

	// ExtractedPages is the number of pages that yielded text.
	ExtractedPages int `json:"extracted_pages"`

	// TotalChars is the total character count across extracted pages.
	TotalChars int `json:"total_chars"`

	// EmptyPages is the number of pages with no extractable text.
	// Empty pages are still emitted to keep page numbering aligned.
	EmptyPages int `json:"empty_pages"`

	// Warnings carries per-page and document-level extraction diagnostics.
	Warnings []string `json:"warnings,omitempty"`
}
