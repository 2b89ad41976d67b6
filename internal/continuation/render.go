// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package continuation

import (
	"strings"

	"github.com/pdiddy/pdf-markdown/internal/textutil"
)

// Placeholder tokens recognized in prompt templates.
const (
	PlaceholderPreviousHeading = "[PREVIOUS_HEADING]"
	PlaceholderPreviousContent = "[PREVIOUS_CONTENT]"
	PlaceholderYesNo           = "[YES/NO]"
	PlaceholderTableHeaders    = "[TABLE_HEADERS]"
	PlaceholderColumnCount     = "[COLUMN_COUNT]"
	PlaceholderColumnAlignment = "[COLUMN_ALIGNMENT]"
	PlaceholderListType        = "[LIST_TYPE]"
	PlaceholderListLevel       = "[LIST_LEVEL]"
	PlaceholderCurrentNumber   = "[CURRENT_NUMBER]"
)

// The [YES/NO] token is bound to a field by the text before it on its line.
const (
	tablePrefix = "- Continuing Table: ["
	listPrefix  = "- Continuing List: ["
)

// Render substitutes s into a fresh prompt template. Substitution is purely
// textual: every occurrence of a placeholder on a line is replaced, so
// templates must use each token only where it is meant. Lines that carry a
// contextual [YES/NO] get only that substitution.
func (s State) Render(template string) string {
	replacer := strings.NewReplacer(
		PlaceholderPreviousHeading, s.PreviousHeading,
		PlaceholderPreviousContent, s.PreviousContent,
		PlaceholderTableHeaders, s.TableHeaders,
		PlaceholderColumnCount, s.ColumnCount,
		PlaceholderColumnAlignment, s.ColumnAlignment,
		PlaceholderListType, s.ListType,
		PlaceholderListLevel, s.ListLevel,
		PlaceholderCurrentNumber, s.CurrentNumber,
	)

	lines := textutil.SplitLines(template)
	for i, line := range lines {
		hasYesNo := strings.Contains(line, PlaceholderYesNo)
		switch {
		case hasYesNo && strings.Contains(line, tablePrefix):
			lines[i] = strings.ReplaceAll(line, PlaceholderYesNo, "["+string(s.ContinuingTable)+"]")
		case hasYesNo && strings.Contains(line, listPrefix):
			lines[i] = strings.ReplaceAll(line, PlaceholderYesNo, "["+string(s.ContinuingList)+"]")
		default:
			lines[i] = replacer.Replace(line)
		}
	}
	return textutil.JoinLines(lines)
}
