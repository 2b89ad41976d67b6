// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert drives PDF-to-Markdown conversion: it feeds pages to the
// model, post-processes each reply, and assembles the document.
//
// Image mode sends each page image on its own, strips marker blocks, skips
// pages with no content, and sends the page through a fixup pass. Text mode
// sends the PDF text layer in batches and threads continuation state from
// each reply into the next batch's prompt, so it runs strictly in order.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-markdown/internal/artifact"
	"github.com/pdiddy/pdf-markdown/internal/llm"
	"github.com/pdiddy/pdf-markdown/internal/logging"
	"github.com/pdiddy/pdf-markdown/internal/outline"
	"github.com/pdiddy/pdf-markdown/internal/prompts"
	"github.com/pdiddy/pdf-markdown/internal/source"
	"github.com/pdiddy/pdf-markdown/pkg/types"
)

// Pipeline holds the collaborators of a conversion. Images is needed only
// in image mode and Text only in text mode.
type Pipeline struct {
	Model   llm.Model
	Images  source.ImageSource
	Text    source.TextSource
	Prompts prompts.Set
	Sink    artifact.Sink
	Log     logging.Logger

	Config    types.ConversionConfig
	MaxTokens int
}

// Output is the assembled result of one document's pages.
type Output struct {
	Markdown string
	TOC      []types.PageTOC
	Pages    int
	Batches  int
	Skipped  int
}

// BatchResult holds the outcome of a multi-document run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the number of documents processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any document failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

func (p *Pipeline) sink() artifact.Sink {
	if p.Sink == nil {
		return artifact.Nop()
	}
	return p.Sink
}

func (p *Pipeline) log() logging.Logger {
	return logging.OrNop(p.Log)
}

func (p *Pipeline) batchSize() int {
	if p.Config.BatchSize <= 0 {
		return types.DefaultBatchSize
	}
	return p.Config.BatchSize
}

// DocumentFor builds a Document from a PDF path, using the file name
// without extension as its ID.
func DocumentFor(pdfPath string) types.Document {
	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	return types.Document{ID: base, PDFPath: pdfPath}
}

// OutputPaths returns where a document's Markdown and ToC are written.
func OutputPaths(outDir, docID string) (mdPath, tocPath string) {
	return filepath.Join(outDir, docID+".md"), filepath.Join(outDir, docID+".toc.yaml")
}

// ConvertDocument converts one PDF and writes <out>/<id>.md and
// <out>/<id>.toc.yaml. When the Markdown already exists and Force is unset
// it returns a result with status ConversionNone and does nothing.
func (p *Pipeline) ConvertDocument(ctx context.Context, doc types.Document, w io.Writer) (types.ConversionResult, error) {
	outDir := p.Config.OutDir
	mdPath, tocPath := OutputPaths(outDir, doc.ID)
	result := types.ConversionResult{
		DocumentID:   doc.ID,
		Mode:         p.Config.Mode,
		MarkdownPath: mdPath,
		Status:       types.ConversionNone,
	}

	if !p.Config.Force {
		if _, err := os.Stat(mdPath); err == nil {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", doc.ID)
			return result, nil
		}
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		result.Status = types.ConversionFailed
		return result, fmt.Errorf("creating output directory: %w", err)
	}

	sink := p.sink()
	runID, err := sink.Begin(ctx, doc, p.Config.Mode)
	if err != nil {
		result.Status = types.ConversionFailed
		return result, err
	}
	result.RunID = runID

	log := p.log()
	log.Info("document.started", "document", doc.ID, "run_id", runID, "mode", string(p.Config.Mode))

	start := time.Now()
	out, err := p.convert(ctx, runID, doc, w)
	if err == nil {
		err = writeOutputs(mdPath, tocPath, doc.ID, out)
	}
	result.Duration = time.Since(start)

	if err != nil {
		result.Status = types.ConversionFailed
		if ferr := sink.Finish(ctx, runID, types.ConversionFailed, err); ferr != nil {
			log.Warn("artifact.finish_failed", "run_id", runID, "error", ferr)
		}
		log.Error("document.failed", "document", doc.ID, "run_id", runID, "error", err)
		return result, err
	}

	result.Status = types.ConversionDone
	result.TOCPath = tocPath
	result.Pages = out.Pages
	result.Batches = out.Batches
	result.SkippedPages = out.Skipped
	if err := sink.Finish(ctx, runID, types.ConversionDone, nil); err != nil {
		log.Warn("artifact.finish_failed", "run_id", runID, "error", err)
	}

	log.Info("document.converted",
		"document", doc.ID, "run_id", runID, "pages", out.Pages,
		"batches", out.Batches, "skipped_pages", out.Skipped, "duration", result.Duration.String())
	return result, nil
}

func (p *Pipeline) convert(ctx context.Context, runID string, doc types.Document, w io.Writer) (Output, error) {
	switch p.Config.Mode {
	case types.ModeImage, "":
		if p.Images == nil {
			return Output{}, fmt.Errorf("image mode: no image source configured")
		}
		images, err := p.Images.Render(ctx, doc.PDFPath)
		if err != nil {
			return Output{}, fmt.Errorf("rendering pages of %s: %w", doc.ID, err)
		}
		return p.RunImages(ctx, runID, images, w)

	case types.ModeText:
		if p.Text == nil {
			return Output{}, fmt.Errorf("text mode: no text source configured")
		}
		pages, err := p.Text.Pages(ctx, doc.PDFPath)
		if err != nil {
			return Output{}, fmt.Errorf("reading text of %s: %w", doc.ID, err)
		}
		return p.RunText(ctx, runID, pages, w)

	default:
		return Output{}, fmt.Errorf("%w: %q", types.ErrUnknownMode, p.Config.Mode)
	}
}

func writeOutputs(mdPath, tocPath, docID string, out Output) error {
	if err := os.WriteFile(mdPath, []byte(out.Markdown), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mdPath, err)
	}

	toc := types.TOC{
		Document:    docID,
		FromContent: out.TOC,
		Outline:     outline.Headings(out.Markdown),
	}
	data, err := yaml.Marshal(&toc)
	if err != nil {
		return fmt.Errorf("marshaling toc: %w", err)
	}
	if err := os.WriteFile(tocPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tocPath, err)
	}
	return nil
}

// ConvertPaths converts each PDF in turn, printing per-document status to w
// and a summary at the end. A failed document does not stop the run.
func (p *Pipeline) ConvertPaths(ctx context.Context, pdfPaths []string, w io.Writer) BatchResult {
	var result BatchResult
	for _, path := range pdfPaths {
		doc := DocumentFor(path)
		if ctx.Err() != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", doc.ID, ctx.Err())
			result.Failed++
			continue
		}

		res, err := p.ConvertDocument(ctx, doc, w)
		switch {
		case err != nil:
			fmt.Fprintf(w, "failed:  %s (%v)\n", doc.ID, err)
			result.Failed++
		case res.Status == types.ConversionNone:
			result.Skipped++
		default:
			fmt.Fprintf(w, "converted: %s (%d pages, %d batches, %d skipped) in %s\n",
				doc.ID, res.Pages, res.Batches, res.SkippedPages, res.Duration.Round(time.Millisecond))
			result.Converted++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

// syncWriter serializes progress lines from parallel page workers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(b)
}
