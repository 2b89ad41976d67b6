// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source produces the per-page inputs for conversion: the PDF text
// layer for text mode and rendered page images for image mode.
package source

import (
	"context"
	"fmt"

	"github.com/pdiddy/pdf-markdown/internal/container"
	"github.com/pdiddy/pdf-markdown/internal/llm"
	"github.com/pdiddy/pdf-markdown/pkg/types"
)

// TextSource returns one text string per page, in page order.
type TextSource interface {
	Pages(ctx context.Context, pdfPath string) ([]string, error)
}

// ImageSource returns one image per page, in page order.
type ImageSource interface {
	Render(ctx context.Context, pdfPath string) ([]llm.Image, error)
}

// NewImageSource builds the ImageSource selected by cfg.Source.
func NewImageSource(ctx context.Context, cfg types.RasterConfig) (ImageSource, error) {
	switch cfg.Source {
	case types.RasterDir:
		if cfg.ImagesDir == "" {
			return nil, fmt.Errorf("raster source dir: images_dir is required")
		}
		return DirImages{Dir: cfg.ImagesDir}, nil
	case types.RasterContainer, "":
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, err
		}
		image := cfg.Image
		if image == "" {
			image = types.DefaultRasterImage
		}
		if err := rt.ImageExists(ctx, image); err != nil {
			return nil, err
		}
		return &ContainerRasterizer{Runtime: rt, Image: image, DPI: cfg.DPI}, nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownRaster, cfg.Source)
	}
}
