// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/pdf-markdown/pkg/types"
)

// PDFText reads the embedded text layer. Scanned PDFs yield empty pages.
type PDFText struct{}

// Pages returns each page's text prefixed with "[Page N]\n" so the model
// can see page boundaries inside a batch.
func (PDFText) Pages(ctx context.Context, pdfPath string) ([]string, error) {
	texts, err := TextPages(pdfPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LabelPages(texts), nil
}

// TextPages extracts the plain text of every page. Null pages produce "".
func TextPages(pdfPath string) ([]string, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", pdfPath, err)
	}
	defer func() { _ = f.Close() }()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("%s: %w", pdfPath, types.ErrNoPages)
	}

	fonts := make(map[string]*pdf.Font)
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := p.Font(name)
				fonts[name] = &font
			}
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("read pdf page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// PageCount returns the number of pages in the PDF.
func PageCount(pdfPath string) (int, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("open pdf %s: %w", pdfPath, err)
	}
	defer func() { _ = f.Close() }()
	return r.NumPage(), nil
}

// LabelPages prefixes page i (0-based) with "[Page i+1]\n".
func LabelPages(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = "[Page " + strconv.Itoa(i+1) + "]\n" + t
	}
	return out
}
