// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-markdown/internal/continuation"
	"github.com/pdiddy/pdf-markdown/internal/markers"
)

func TestDefault(t *testing.T) {
	s := Default()
	assert.NotEmpty(t, s.Image)
	assert.NotEmpty(t, s.Fixup)
	assert.NotEmpty(t, s.Text)
	assert.Contains(t, s.Image, markers.ReservedName)
}

func TestTextTemplateCarriesEveryPlaceholder(t *testing.T) {
	text := Default().Text
	for _, p := range []string{
		continuation.PlaceholderPreviousHeading,
		continuation.PlaceholderPreviousContent,
		continuation.PlaceholderTableHeaders,
		continuation.PlaceholderColumnCount,
		continuation.PlaceholderColumnAlignment,
		continuation.PlaceholderListType,
		continuation.PlaceholderListLevel,
		continuation.PlaceholderCurrentNumber,
	} {
		assert.Equal(t, 1, strings.Count(text, p), p)
	}
	assert.Contains(t, text, "- Continuing Table: [YES/NO]")
	assert.Contains(t, text, "- Continuing List: [YES/NO]")
	assert.Contains(t, text, continuation.StateHeader)
}

func TestTextTemplateRendersDefaults(t *testing.T) {
	rendered := continuation.DefaultState().Render(Default().Text)
	assert.Contains(t, rendered, "- Continuing Table: [NO]")
	assert.Contains(t, rendered, "- Continuing List: [NO]")
	assert.NotContains(t, rendered, continuation.PlaceholderYesNo)
	assert.NotContains(t, rendered, continuation.PlaceholderColumnCount)
}

func TestLoad_Override(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FixupFile), []byte("custom fixup"), 0o644))

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "custom fixup", s.Fixup)
	assert.Equal(t, Default().Image, s.Image)
	assert.Equal(t, Default().Text, s.Text)
}

func TestLoad_EmptyDirMeansDefaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "prompt.md")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = Load(file)
	assert.Error(t, err)
}
