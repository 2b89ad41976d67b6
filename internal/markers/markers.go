// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package markers strips model-emitted block markers from page Markdown.
//
// A marker is a line of the form [[NAME START]] or [[NAME END]]. Blocks
// delimited by ordinary markers are removed. The reserved TOC FROM CONTENT
// block is kept by Clean and extracted by CleanAndExtractTOC so the driver
// can collect table-of-contents lines found on content pages.
//
// Block tracking is a single flag, not a stack: an END of any name closes
// whatever block is open, and nested blocks are not supported. Prompts are
// tuned against this behavior.
package markers

import (
	"strings"
	"unicode"

	"github.com/pdiddy/pdf-markdown/internal/textutil"
)

// ReservedName is the marker whose block content is extracted, not deleted.
const ReservedName = "TOC FROM CONTENT"

const tocPhrase = "table of contents"

// Kind is the direction of a marker tag.
type Kind string

const (
	Start Kind = "START"
	End   Kind = "END"
)

// Marker is a parsed tag line.
type Marker struct {
	Name string
	Kind Kind
}

// Parse reports whether line is a marker tag and returns it. The line is
// trimmed before matching.
func Parse(line string) (Marker, bool) {
	s := strings.TrimSpace(line)
	if !strings.HasPrefix(s, "[[") || !strings.HasSuffix(s, "]]") || len(s) < 4 {
		return Marker{}, false
	}
	content := strings.TrimSpace(s[2 : len(s)-2])
	for _, k := range []Kind{Start, End} {
		suffix := " " + string(k)
		if strings.HasSuffix(content, suffix) {
			name := strings.TrimSpace(strings.TrimSuffix(content, suffix))
			return Marker{Name: name, Kind: k}, true
		}
	}
	return Marker{}, false
}

// Clean removes every non-reserved marker block and any line mentioning a
// table of contents. Reserved tag lines and their content survive unless an
// ordinary block is open around them. Malformed markers never fail: a stray
// END just closes the (possibly absent) open block.
func Clean(text string) string {
	var out []string
	inside := false

	for _, line := range textutil.SplitLines(text) {
		if m, ok := Parse(line); ok && m.Name != ReservedName {
			inside = m.Kind == Start
			continue
		}
		if inside {
			continue
		}
		if strings.Contains(strings.ToLower(line), tocPhrase) {
			continue
		}
		out = append(out, line)
	}

	return textutil.JoinLines(out)
}

// CleanAndExtractTOC runs Clean, then lifts the reserved block out of the
// result. The extracted lines are returned only when a reserved START was
// seen and at least one line was captured; otherwise the slice is nil. An
// unclosed reserved block absorbs the remainder of the text.
func CleanAndExtractTOC(text string) (string, []string) {
	var (
		out       []string
		extracted []string
		inside    bool
		found     bool
	)

	for _, line := range textutil.SplitLines(Clean(text)) {
		if m, ok := Parse(line); ok && m.Name == ReservedName {
			inside = m.Kind == Start
			found = found || inside
			continue
		}
		if inside {
			extracted = append(extracted, line)
			continue
		}
		out = append(out, line)
	}

	if !found || len(extracted) == 0 {
		extracted = nil
	}
	return textutil.JoinLines(out), extracted
}

// HasMeaningfulContent reports whether text holds anything besides
// whitespace and '-' characters. Pages made only of separators are skipped.
func HasMeaningfulContent(text string) bool {
	for _, r := range text {
		if r != '-' && !unicode.IsSpace(r) {
			return true
		}
	}
	return false
}
