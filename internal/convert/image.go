// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pdf-markdown/internal/artifact"
	"github.com/pdiddy/pdf-markdown/internal/llm"
	"github.com/pdiddy/pdf-markdown/internal/markers"
	"github.com/pdiddy/pdf-markdown/pkg/types"
)

// PageSeparator ends every page of image-mode output.
const PageSeparator = "\n-----\n"

// pageResult is one batch's contribution to the document.
type pageResult struct {
	markdown string
	toc      []string
	skipped  bool
}

// RunImages converts page images. Batches of one page go through marker
// cleaning, the empty-page check, and the fixup pass; larger batches are
// sent in one call and only fixed up. Batches are independent and run in
// parallel up to Config.Concurrency; output keeps page order. The first
// failing batch cancels the rest and fails the document.
func (p *Pipeline) RunImages(ctx context.Context, runID string, images []llm.Image, w io.Writer) (Output, error) {
	total := len(images)
	if total == 0 {
		return Output{}, types.ErrNoPages
	}

	size := p.batchSize()
	batches := (total + size - 1) / size
	results := make([]pageResult, batches)
	sw := &syncWriter{w: w}

	limit := p.Config.Concurrency
	if limit <= 0 {
		limit = types.DefaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for b := 0; b < batches; b++ {
		start := b * size
		end := min(start+size, total)
		g.Go(func() error {
			var (
				r   pageResult
				err error
			)
			if end-start == 1 {
				r, err = p.runPage(gctx, runID, start+1, images[start])
			} else {
				r, err = p.runImageBatch(gctx, runID, start+1, images[start:end])
			}
			if err != nil {
				return fmt.Errorf("pages %d-%d: %w", start+1, end, err)
			}
			results[b] = r
			if r.skipped {
				fmt.Fprintf(sw, "skipped page %d of %d (no content)\n", start+1, total)
			} else {
				fmt.Fprintf(sw, "completed pages %d to %d of %d\n", start+1, end, total)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Output{}, err
	}

	out := Output{Pages: total, Batches: batches}
	var sb strings.Builder
	for b, r := range results {
		if r.skipped {
			out.Skipped++
			continue
		}
		sb.WriteString(r.markdown)
		if r.toc != nil {
			out.TOC = append(out.TOC, types.PageTOC{Page: b*size + 1, Lines: r.toc})
		}
	}
	out.Markdown = sb.String()
	return out, nil
}

// runPage handles a single page. page is 1-based and doubles as the
// artifact batch number.
func (p *Pipeline) runPage(ctx context.Context, runID string, page int, img llm.Image) (pageResult, error) {
	sink, log := p.sink(), p.log()

	initial, err := p.Model.Complete(ctx, llm.Request{Prompt: p.Prompts.Image, Images: []llm.Image{img}, MaxTokens: p.MaxTokens})
	if err != nil {
		return pageResult{}, fmt.Errorf("converting page image: %w", err)
	}
	if err := sink.Put(ctx, runID, page, artifact.StageInitial, initial); err != nil {
		return pageResult{}, err
	}

	cleaned := markers.Clean(initial)
	if !markers.HasMeaningfulContent(cleaned) {
		log.Debug("page.skipped", "run_id", runID, "page", page)
		return pageResult{skipped: true}, nil
	}
	if err := sink.Put(ctx, runID, page, artifact.StageWithoutMarkers, cleaned); err != nil {
		return pageResult{}, err
	}

	fixed, err := p.fixup(ctx, cleaned)
	if err != nil {
		return pageResult{}, err
	}

	markdown, toc := markers.CleanAndExtractTOC(fixed)
	if toc != nil {
		if err := sink.PutTOC(ctx, runID, page, toc); err != nil {
			return pageResult{}, err
		}
		log.Debug("page.toc_extracted", "run_id", runID, "page", page, "lines", len(toc))
	}
	if !strings.HasSuffix(markdown, PageSeparator) {
		markdown += PageSeparator
	}
	if err := sink.Put(ctx, runID, page, artifact.StageFixed, markdown); err != nil {
		return pageResult{}, err
	}
	return pageResult{markdown: markdown, toc: toc}, nil
}

// runImageBatch sends several pages in one call. Marker processing is not
// applied to multi-page replies.
func (p *Pipeline) runImageBatch(ctx context.Context, runID string, firstPage int, imgs []llm.Image) (pageResult, error) {
	sink := p.sink()

	initial, err := p.Model.Complete(ctx, llm.Request{Prompt: p.Prompts.Image, Images: imgs, MaxTokens: p.MaxTokens})
	if err != nil {
		return pageResult{}, fmt.Errorf("converting page images: %w", err)
	}
	if err := sink.Put(ctx, runID, firstPage, artifact.StageInitial, initial); err != nil {
		return pageResult{}, err
	}

	fixed, err := p.fixup(ctx, initial)
	if err != nil {
		return pageResult{}, err
	}
	if err := sink.Put(ctx, runID, firstPage, artifact.StageFixed, fixed); err != nil {
		return pageResult{}, err
	}
	return pageResult{markdown: fixed}, nil
}

func (p *Pipeline) fixup(ctx context.Context, markdown string) (string, error) {
	fixed, err := p.Model.Complete(ctx, llm.Request{Prompt: p.Prompts.Fixup + "\n\n" + markdown, MaxTokens: p.MaxTokens})
	if err != nil {
		return "", fmt.Errorf("fixing up markdown: %w", err)
	}
	return fixed, nil
}
