// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package continuation turns one plain-text batch reply into the Markdown for
// that batch and the prompt for the next one.
//
// The model is asked to end each reply with a state section describing
// where headings, tables, and lists left off. Process strips transient
// wrapping (code fences, a validation report), splits the state section off
// the Markdown, parses it, and renders it into the fresh prompt template.
// Every step is a no-op when its markers are missing; nothing here errors.
package continuation

import (
	"strings"

	"github.com/pdiddy/pdf-markdown/internal/textutil"
)

// Section markers the model emits around or after its Markdown.
const (
	FenceOpen    = "```markdown"
	FenceClose   = "```"
	ReportHeader = "## Transformation Validation Report"
	StateHeader  = "## State Information for Next Batch"
)

// Result is the outcome of processing one batch reply.
type Result struct {
	// Markdown is the user-visible content of the batch.
	Markdown string

	// Prompt is the fresh template with State rendered into it.
	Prompt string

	// State is the parsed continuation state (defaults when absent).
	State State

	// HasState reports whether the reply carried a state section.
	HasState bool
}

// Process runs the full pipeline over a raw reply and returns the batch
// Markdown and the prompt for the next batch. freshTemplate must be the
// unrendered template, not the previous batch's prompt.
func Process(raw, freshTemplate string) (markdown, nextPrompt string) {
	r := ProcessResult(raw, freshTemplate)
	return r.Markdown, r.Prompt
}

// ProcessResult is Process with the parsed state exposed.
func ProcessResult(raw, freshTemplate string) Result {
	content := RemoveValidationReport(StripFences(raw))
	markdown, stateSection := SplitState(content)
	state := ParseState(stateSection)
	return Result{
		Markdown: markdown,
		Prompt:   state.Render(freshTemplate),
		State:    state,
		HasState: stateSection != "",
	}
}

// StripFences removes a ```markdown ... ``` wrapper when the first and last
// non-empty lines are exactly the fences. A single non-empty line is never
// a fence pair. Otherwise text is returned unchanged.
func StripFences(text string) string {
	lines := textutil.SplitLines(text)

	first, last := -1, -1
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			first = i
			break
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			last = i
			break
		}
	}

	if first < 0 || first >= last {
		return text
	}
	if strings.TrimSpace(lines[first]) != FenceOpen || strings.TrimSpace(lines[last]) != FenceClose {
		return text
	}
	return textutil.JoinLines(lines[first+1 : last])
}

// RemoveValidationReport truncates text before the last validation report
// header. Text without a report is returned unchanged.
func RemoveValidationReport(text string) string {
	lines := textutil.SplitLines(text)
	i := lastIndex(lines, ReportHeader)
	if i < 0 {
		return text
	}
	return textutil.JoinLines(lines[:i])
}

// SplitState splits text at the last state header. The state section starts
// with the header line. Without a header, all of text is Markdown.
func SplitState(text string) (markdown, state string) {
	lines := textutil.SplitLines(text)
	i := lastIndex(lines, StateHeader)
	if i < 0 {
		return text, ""
	}
	return textutil.JoinLines(lines[:i]), textutil.JoinLines(lines[i:])
}

// lastIndex returns the index of the last line equal to want after
// trimming, or -1.
func lastIndex(lines []string, want string) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) == want {
			return i
		}
	}
	return -1
}
