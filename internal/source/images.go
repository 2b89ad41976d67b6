// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdiddy/pdf-markdown/internal/llm"
	"github.com/pdiddy/pdf-markdown/pkg/types"
)

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// DirImages reads pre-rendered page images. For document foo.pdf it looks
// in Dir/foo/ first and falls back to Dir itself. Files are ordered by the
// last number in their names, so page-2.png sorts before page-10.png.
type DirImages struct {
	Dir string
}

func (d DirImages) Render(ctx context.Context, pdfPath string) ([]llm.Image, error) {
	dir := d.Dir
	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	if info, err := os.Stat(filepath.Join(d.Dir, stem)); err == nil && info.IsDir() {
		dir = filepath.Join(d.Dir, stem)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading images directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := imageTypes[strings.ToLower(filepath.Ext(e.Name()))]; ok {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, types.ErrNoPages)
	}
	SortNatural(names)

	images := make([]llm.Image, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading page image %s: %w", name, err)
		}
		images = append(images, llm.Image{
			Data:     data,
			MIMEType: imageTypes[strings.ToLower(filepath.Ext(name))],
		})
	}
	return images, nil
}

// SortNatural orders names by their last embedded number, then by name.
// Names without a number sort after numbered ones.
func SortNatural(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		ni, oki := lastNumber(names[i])
		nj, okj := lastNumber(names[j])
		switch {
		case oki && okj && ni != nj:
			return ni < nj
		case oki != okj:
			return oki
		}
		return names[i] < names[j]
	})
}

func lastNumber(name string) (int, bool) {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	end := strings.LastIndexFunc(name, unicode.IsDigit)
	if end < 0 {
		return 0, false
	}
	start := end
	for start > 0 && unicode.IsDigit(rune(name[start-1])) {
		start--
	}
	n, err := strconv.Atoi(name[start : end+1])
	if err != nil {
		return 0, false
	}
	return n, true
}
