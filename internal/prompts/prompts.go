// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompts holds the prompt templates sent to the model. Defaults are
// embedded in the binary; a directory with files of the same names overrides
// them one by one.
package prompts

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File names of the three templates.
const (
	ImageFile = "image_to_markdown.md"
	FixupFile = "markdown_fixup.md"
	TextFile  = "text_to_markdown.md"
)

//go:embed files/*.md
var embedded embed.FS

// Set is the full collection of templates a conversion needs.
type Set struct {
	// Image converts one page image (image mode).
	Image string

	// Fixup repairs the Markdown of one page (image mode).
	Fixup string

	// Text is the continuation template for text-mode batches. It carries
	// the state placeholders and must be passed unrendered as the fresh
	// template.
	Text string
}

// Default returns the embedded templates.
func Default() Set {
	s, err := load(embedded, "files", nil)
	if err != nil {
		panic(fmt.Sprintf("embedded prompts: %v", err))
	}
	return s
}

// Load returns the embedded templates with any file present in dir used
// instead. An empty dir means the defaults.
func Load(dir string) (Set, error) {
	if dir == "" {
		return Default(), nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return Set{}, fmt.Errorf("reading prompts directory: %w", err)
	}
	if !info.IsDir() {
		return Set{}, fmt.Errorf("prompts path %s is not a directory", dir)
	}
	return load(embedded, "files", os.DirFS(dir))
}

func load(base fs.FS, baseDir string, override fs.FS) (Set, error) {
	read := func(name string) (string, error) {
		if override != nil {
			data, err := fs.ReadFile(override, name)
			if err == nil {
				return string(data), nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("reading prompt %s: %w", name, err)
			}
		}
		data, err := fs.ReadFile(base, filepath.ToSlash(filepath.Join(baseDir, name)))
		if err != nil {
			return "", fmt.Errorf("reading embedded prompt %s: %w", name, err)
		}
		return string(data), nil
	}

	var s Set
	var err error
	if s.Image, err = read(ImageFile); err != nil {
		return Set{}, err
	}
	if s.Fixup, err = read(FixupFile); err != nil {
		return Set{}, err
	}
	if s.Text, err = read(TextFile); err != nil {
		return Set{}, err
	}
	return s, nil
}
