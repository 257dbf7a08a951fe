package sections

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agora-labs/agora-cli/internal/core/domain"
)

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// pageLine is one entry in the flattened reading-order stream.
type pageLine struct {
	page int
	text string
}

// Builder segments normalised per-page text into sections.
type Builder struct {
	rules []HeadingRule
}

// NewBuilder creates a builder using the default heading rule chain.
func NewBuilder() *Builder {
	return &Builder{rules: DefaultHeadingRules}
}

// Build walks the pages in reading order and produces the ordered
// section list. Sections are flushed on every detected heading and at
// end of stream; sections whose text trims to empty are discarded.
func (b *Builder) Build(filename string, pages []string) []domain.Section {
	var stream []pageLine
	for i, pageText := range pages {
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		for _, line := range strings.Split(pageText, "\n") {
			// Blank lines stay in the stream as paragraph separators.
			stream = append(stream, pageLine{page: i + 1, text: line})
		}
	}
	if len(stream) == 0 {
		return nil
	}

	var out []domain.Section
	cur := struct {
		title string
		level int
		start int
	}{title: filename, level: 1, start: stream[0].page}

	var buf []string

	flush := func(endPage int) {
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		text = strings.TrimSpace(blankRunRe.ReplaceAllString(text, "\n\n"))
		if text != "" {
			out = append(out, domain.Section{
				Path:      cur.title,
				Level:     cur.level,
				PageStart: cur.start,
				PageEnd:   endPage,
				Text:      text,
			})
		}
		buf = buf[:0]
	}

	for _, pl := range stream {
		s := strings.TrimSpace(pl.text)

		if s == "" {
			// Paragraph separator, never two in a row.
			if len(buf) > 0 && buf[len(buf)-1] != "" {
				buf = append(buf, "")
			}
			continue
		}

		if info, ok := b.detect(s); ok && info.Title != "" {
			flush(pl.page)
			cur.title = fmt.Sprintf("%s > %s", filename, info.Title)
			cur.level = info.Level
			cur.start = pl.page
			continue
		}

		if text, ok := IsBullet(s); ok && text != "" {
			buf = append(buf, "• "+text)
		} else {
			buf = append(buf, s)
		}
	}

	flush(stream[len(stream)-1].page)
	return out
}

func (b *Builder) detect(s string) (HeadingInfo, bool) {
	for _, rule := range b.rules {
		if rule.Match(s) {
			return rule.Extract(s), true
		}
	}
	return HeadingInfo{}, false
}
