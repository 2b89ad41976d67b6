// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/pdiddy/pdf-markdown/internal/container"
	"github.com/pdiddy/pdf-markdown/internal/llm"
	"github.com/pdiddy/pdf-markdown/pkg/types"
)

// ContainerRasterizer renders pages with poppler's pdftoppm inside a
// container, one container run per page. The PDF is streamed on stdin and
// the PNG is read from stdout.
type ContainerRasterizer struct {
	Runtime container.Runtime
	Image   string
	DPI     int

	// PageCount defaults to the ledongthuc text reader.
	PageCount func(pdfPath string) (int, error)
}

// Args returns the container command rendering page (1-based) at dpi.
func Args(page, dpi int) []string {
	p, r := strconv.Itoa(page), strconv.Itoa(dpi)
	return []string{"pdftoppm", "-png", "-r", r, "-f", p, "-l", p, "-singlefile", "-"}
}

func (c *ContainerRasterizer) Render(ctx context.Context, pdfPath string) ([]llm.Image, error) {
	count := c.PageCount
	if count == nil {
		count = PageCount
	}
	n, err := count(pdfPath)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%s: %w", pdfPath, types.ErrNoPages)
	}

	dpi := c.DPI
	if dpi <= 0 {
		dpi = types.DefaultDPI
	}

	images := make([]llm.Image, 0, n)
	for page := 1; page <= n; page++ {
		img, err := c.renderPage(ctx, pdfPath, page, dpi)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func (c *ContainerRasterizer) renderPage(ctx context.Context, pdfPath string, page, dpi int) (llm.Image, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return llm.Image{}, fmt.Errorf("opening %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := c.Runtime.Run(ctx, c.Image, Args(page, dpi), f, &out); err != nil {
		return llm.Image{}, fmt.Errorf("rendering page %d: %w", page, err)
	}
	if out.Len() == 0 {
		return llm.Image{}, fmt.Errorf("rendering page %d: empty output", page)
	}
	return llm.Image{Data: out.Bytes(), MIMEType: "image/png"}, nil
}
