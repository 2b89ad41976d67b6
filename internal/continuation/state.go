// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package continuation

import (
	"strings"

	"github.com/pdiddy/pdf-markdown/internal/textutil"
)

// YesNo is a continuation flag as written by the model and rendered back
// into the prompt. Any upper-cased value the model writes is kept verbatim.
type YesNo string

const (
	Yes YesNo = "YES"
	No  YesNo = "NO"
)

// State is where the document structure left off at the end of a batch.
// Numeric fields are kept as the model wrote them so re-rendering into the
// next prompt is exact.
type State struct {
	PreviousHeading string `json:"previous_heading" yaml:"previous_heading"`
	PreviousContent string `json:"previous_content" yaml:"previous_content"`

	ContinuingTable YesNo  `json:"continuing_table" yaml:"continuing_table"`
	TableHeaders    string `json:"table_headers" yaml:"table_headers"`
	ColumnCount     string `json:"column_count" yaml:"column_count"`
	ColumnAlignment string `json:"column_alignment" yaml:"column_alignment"`

	ContinuingList YesNo  `json:"continuing_list" yaml:"continuing_list"`
	ListType       string `json:"list_type" yaml:"list_type"`
	ListLevel      string `json:"list_level" yaml:"list_level"`
	CurrentNumber  string `json:"current_number" yaml:"current_number"`
}

// DefaultState returns the state used when a reply carries no state section.
func DefaultState() State {
	return State{
		ContinuingTable: No,
		ColumnCount:     "0",
		ContinuingList:  No,
		ListLevel:       "0",
		CurrentNumber:   "1",
	}
}

// Subsection headers inside the state section.
const (
	HeaderLastHeading = "### Last Heading"
	HeaderLastContent = "### Last Content"
	HeaderStructures  = "### Continuing Structures"
)

type section int

const (
	sectionNone section = iota
	sectionHeading
	sectionContent
	sectionStructures
)

// parser is the accumulator of the fold over state lines.
type parser struct {
	section section
	buffer  []string
	state   State
}

// ParseState reads a state section (optionally starting with the state
// header line) into a State. Unknown lines and subsections are ignored and
// every missing field keeps its default.
func ParseState(text string) State {
	lines := textutil.SplitLines(text)
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == StateHeader {
		lines = lines[1:]
	}

	p := parser{state: DefaultState()}
	for _, line := range lines {
		p = p.step(line)
	}
	return p.flush().state
}

func (p parser) step(line string) parser {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, "###") {
		p = p.flush()
		p.section = sectionOf(trimmed)
		return p
	}

	switch p.section {
	case sectionHeading, sectionContent:
		p.buffer = append(p.buffer, line)
	case sectionStructures:
		p.state = applyStructure(p.state, trimmed)
	}
	return p
}

// flush moves buffered lines into the field of the current subsection.
func (p parser) flush() parser {
	if len(p.buffer) > 0 {
		value := strings.TrimSpace(textutil.JoinLines(p.buffer))
		switch p.section {
		case sectionHeading:
			p.state.PreviousHeading = value
		case sectionContent:
			p.state.PreviousContent = value
		}
	}
	p.buffer = nil
	return p
}

func sectionOf(header string) section {
	switch {
	case strings.HasPrefix(header, HeaderLastHeading):
		return sectionHeading
	case strings.HasPrefix(header, HeaderLastContent):
		return sectionContent
	case strings.HasPrefix(header, HeaderStructures):
		return sectionStructures
	default:
		return sectionNone
	}
}

// applyStructure fills one field from a "- Name: [value]" line.
func applyStructure(s State, line string) State {
	switch {
	case strings.HasPrefix(line, "- Table:"):
		s.ContinuingTable = yesNo(bracketValue(line))
	case strings.HasPrefix(line, "- Headers:"):
		s.TableHeaders = bracketValue(line)
	case strings.HasPrefix(line, "- Column Count:"):
		s.ColumnCount = orDefault(bracketValue(line), "0")
	case strings.HasPrefix(line, "- Alignment:"):
		s.ColumnAlignment = bracketValue(line)
	case strings.HasPrefix(line, "- List:"):
		s.ContinuingList = yesNo(bracketValue(line))
	case strings.HasPrefix(line, "- Type:"):
		s.ListType = bracketValue(line)
	case strings.HasPrefix(line, "- Current Level:"):
		s.ListLevel = orDefault(bracketValue(line), "0")
	case strings.HasPrefix(line, "- Current Number:"):
		s.CurrentNumber = orDefault(bracketValue(line), "1")
	}
	return s
}

// bracketValue returns the trimmed text between the first '[' and the next
// ']' after it, or "" when there is no such pair.
func bracketValue(line string) string {
	start := strings.Index(line, "[")
	if start < 0 {
		return ""
	}
	end := strings.Index(line[start+1:], "]")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(line[start+1 : start+1+end])
}

func yesNo(v string) YesNo {
	if v == "" {
		return No
	}
	return YesNo(strings.ToUpper(v))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
