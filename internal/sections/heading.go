// Package sections segments normalised page text into hierarchical,
// page-bounded sections using heading and bullet heuristics. PDFs carry
// no semantic structure, so the rules favour precision over recall: a
// document with no recognisable headings yields one root-level section.
package sections

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxHeadingLevel caps the depth derived from numbered headings.
const MaxHeadingLevel = 6

var (
	bulletRe     = regexp.MustCompile(`^\s*[-*\x{2022}\x{2013}\x{2014}\x{00b7}]\s+`)
	enumBulletRe = regexp.MustCompile(`^\s*(?:\d{1,3}\.|[A-Z]\)|\([a-zA-Z]\))\s+`)
	numHeadingRe = regexp.MustCompile(`^\s*(\d+(?:\.\d+){0,6})\s+(.{2,200})\s*$`)
	endPunctRe   = regexp.MustCompile(`[.!?;:,]\s*$`)
)

var titleCaser = cases.Title(language.Und)

// HeadingInfo is the outcome of a successful heading match.
type HeadingInfo struct {
	// Title is the normalised section title.
	Title string

	// Level is the heading depth, 2 for flat headings, deeper for
	// numbered ones.
	Level int
}

// HeadingRule is one independent heading heuristic: a predicate plus a
// transform, tried in priority order.
type HeadingRule struct {
	// Name identifies the rule in tests and logs.
	Name string

	// Match reports whether the line is a heading under this rule.
	Match func(line string) bool

	// Extract produces the title and level for a matched line.
	Extract func(line string) HeadingInfo
}

// DefaultHeadingRules is the rule chain in priority order: numbered
// headings, ALL-CAPS headings, then short title-ish lines.
var DefaultHeadingRules = []HeadingRule{
	{
		Name:    "numbered",
		Match:   matchNumbered,
		Extract: extractNumbered,
	},
	{
		Name:    "allcaps",
		Match:   matchAllCaps,
		Extract: extractAllCaps,
	},
	{
		Name:    "titleish",
		Match:   matchTitleish,
		Extract: extractTitleish,
	},
}

// DetectHeading runs the rule chain over a trimmed line.
func DetectHeading(line string) (HeadingInfo, bool) {
	s := strings.TrimSpace(line)
	if s == "" {
		return HeadingInfo{}, false
	}
	for _, rule := range DefaultHeadingRules {
		if rule.Match(s) {
			return rule.Extract(s), true
		}
	}
	return HeadingInfo{}, false
}

// IsBullet reports whether the line is a bullet or enumerated item and
// returns the text with the marker stripped.
func IsBullet(line string) (string, bool) {
	s := strings.TrimSpace(line)
	if s == "" {
		return "", false
	}
	if bulletRe.MatchString(s) {
		return strings.TrimSpace(bulletRe.ReplaceAllString(s, "")), true
	}
	if enumBulletRe.MatchString(s) {
		return strings.TrimSpace(enumBulletRe.ReplaceAllString(s, "")), true
	}
	return "", false
}

func matchNumbered(s string) bool {
	m := numHeadingRe.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	return len(strings.TrimSpace(m[2])) >= 2
}

func extractNumbered(s string) HeadingInfo {
	m := numHeadingRe.FindStringSubmatch(s)
	num, title := m[1], strings.TrimSpace(m[2])
	level := strings.Count(num, ".") + 1
	if level > MaxHeadingLevel {
		level = MaxHeadingLevel
	}
	return HeadingInfo{Title: num + " " + title, Level: level}
}

func matchAllCaps(s string) bool {
	if len([]rune(s)) > 90 {
		return false
	}
	alpha := 0
	cased := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			alpha++
		}
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased++
		}
	}
	if cased == 0 || alpha < 6 {
		return false
	}
	return !endPunctRe.MatchString(s)
}

func extractAllCaps(s string) HeadingInfo {
	return HeadingInfo{Title: titleCaser.String(strings.ToLower(s)), Level: 2}
}

func matchTitleish(s string) bool {
	n := len([]rune(s))
	if n < 4 || n > 70 {
		return false
	}
	if endPunctRe.MatchString(s) {
		return false
	}
	if bulletRe.MatchString(s) || enumBulletRe.MatchString(s) {
		return false
	}
	words := len(strings.Fields(s))
	return words >= 1 && words <= 10
}

func extractTitleish(s string) HeadingInfo {
	return HeadingInfo{Title: s, Level: 2}
}
