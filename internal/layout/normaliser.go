// Package layout cleans raw per-page text ahead of section building:
// it strips running headers/footers detected by page-wide frequency
// analysis, then normalises unicode and whitespace while preserving the
// line and paragraph structure the heading heuristics rely on.
package layout

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultBlockLines is the number of leading/trailing non-empty lines
// inspected as a header/footer candidate block.
const DefaultBlockLines = 2

// blockFrequencyThreshold is the fraction of pages a candidate block
// must appear on before it is treated as a running header/footer.
const blockFrequencyThreshold = 0.4

// minBlockChars guards against stripping tiny blocks like page numbers
// that happen to repeat.
const minBlockChars = 6

var (
	hyphenBreakRe = regexp.MustCompile(`(\w)-\n(\w)`)
	hSpaceRe      = regexp.MustCompile("[ \t ]+")
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
)

// Normalise applies NormalisePage to every page. Header/footer
// stripping (StripRepeatedBlocks) runs before this pass, on the raw
// extractor output: block signatures must compare the text as printed,
// since canonicalising first can merge near-identical headers into one
// signature and push it over the strip threshold.
func Normalise(pages []string) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = NormalisePage(p)
	}
	return out
}

// NormalisePage normalises one page while keeping line breaks:
// NFKC form, hyphen-broken words rejoined, line endings unified,
// per-line trailing space stripped, horizontal whitespace collapsed
// and blank-line runs reduced to a single separator.
func NormalisePage(t string) string {
	t = strings.ReplaceAll(t, "\x00", "")
	t = norm.NFKC.String(t)
	t = hyphenBreakRe.ReplaceAllString(t, "$1$2")

	t = strings.ReplaceAll(t, "\r\n", "\n")
	t = strings.ReplaceAll(t, "\r", "\n")

	lines := strings.Split(t, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	t = strings.Join(lines, "\n")

	t = hSpaceRe.ReplaceAllString(t, " ")
	t = blankRunRe.ReplaceAllString(t, "\n\n")

	return strings.TrimSpace(t)
}

// blockSignature joins the first or last n non-empty lines of a page
// into a canonical candidate string. Returns "" when the page has no
// usable block.
func blockSignature(lines []string, n int, leading bool) string {
	cleaned := make([]string, 0, len(lines))
	for _, l := range lines {
		if s := strings.TrimSpace(l); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return ""
	}

	var block []string
	if leading {
		if len(cleaned) < n {
			block = cleaned
		} else {
			block = cleaned[:n]
		}
	} else {
		if len(cleaned) < n {
			block = cleaned
		} else {
			block = cleaned[len(cleaned)-n:]
		}
	}

	sig := strings.TrimSpace(strings.Join(block, " | "))
	if len(sig) < minBlockChars {
		return ""
	}
	return sig
}

// mostCommon returns the most frequent signature and its count.
func mostCommon(sigs []string) (string, int) {
	if len(sigs) == 0 {
		return "", 0
	}
	freq := make(map[string]int, len(sigs))
	for _, s := range sigs {
		freq[s]++
	}
	best, bestCount := "", 0
	for s, c := range freq {
		if c > bestCount {
			best, bestCount = s, c
		}
	}
	return best, bestCount
}

// StripRepeatedBlocks removes running headers and footers. For each
// page the first and last n non-empty lines form candidate blocks; the
// most frequent leading and trailing signatures are stripped from every
// matching page when they appear on at least 40% of pages. One global
// decision per document: at most one header and one footer signature.
func StripRepeatedBlocks(pages []string, n int) []string {
	if len(pages) == 0 {
		return pages
	}

	var firstSigs, lastSigs []string
	for _, p := range pages {
		lines := strings.Split(p, "\n")
		if fb := blockSignature(lines, n, true); fb != "" {
			firstSigs = append(firstSigs, fb)
		}
		if lb := blockSignature(lines, n, false); lb != "" {
			lastSigs = append(lastSigs, lb)
		}
	}

	first, fcount := mostCommon(firstSigs)
	last, lcount := mostCommon(lastSigs)

	total := len(pages)
	removeFirst := ""
	if first != "" && float64(fcount)/float64(total) >= blockFrequencyThreshold {
		removeFirst = first
	}
	removeLast := ""
	if last != "" && float64(lcount)/float64(total) >= blockFrequencyThreshold {
		removeLast = last
	}

	if removeFirst == "" && removeLast == "" {
		return pages
	}

	out := make([]string, len(pages))
	for i, p := range pages {
		lines := strings.Split(p, "\n")
		for j, l := range lines {
			lines[j] = strings.TrimRight(l, " \t")
		}

		if removeFirst != "" && blockSignature(lines, n, true) == removeFirst {
			lines = dropNonEmpty(lines, n, true)
		}
		if removeLast != "" && blockSignature(lines, n, false) == removeLast {
			lines = dropNonEmpty(lines, n, false)
		}

		out[i] = strings.Join(lines, "\n")
	}
	return out
}

// dropNonEmpty removes the first or last n non-empty lines, keeping
// intervening blank lines in place.
func dropNonEmpty(lines []string, n int, leading bool) []string {
	kept := make([]string, 0, len(lines))
	if leading {
		removed := 0
		for _, l := range lines {
			if removed < n && strings.TrimSpace(l) != "" {
				removed++
				continue
			}
			kept = append(kept, l)
		}
		return kept
	}

	removed := 0
	for i := len(lines) - 1; i >= 0; i-- {
		if removed < n && strings.TrimSpace(lines[i]) != "" {
			removed++
			continue
		}
		kept = append(kept, lines[i])
	}
	// Reverse back to original order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}
