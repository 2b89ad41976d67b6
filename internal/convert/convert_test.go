// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-markdown/internal/artifact"
	"github.com/pdiddy/pdf-markdown/internal/llm"
	"github.com/pdiddy/pdf-markdown/internal/prompts"
	"github.com/pdiddy/pdf-markdown/pkg/types"
)

const (
	imagePrompt = "IMAGE"
	fixupPrompt = "FIXUP"
	textPrompt  = "Heading: [PREVIOUS_HEADING]\n- Continuing Table: [YES/NO]\nColumns: [COLUMN_COUNT]\n- Continuing List: [YES/NO]"
)

var testPrompts = prompts.Set{Image: imagePrompt, Fixup: fixupPrompt, Text: textPrompt}

// fakeModel answers image requests by page data and echoes fixup requests.
type fakeModel struct {
	mu    sync.Mutex
	reqs  []llm.Request
	pages map[string]string
	fail  map[string]error
	text  []string
	delay func(page string) time.Duration
}

func (f *fakeModel) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	n := len(f.reqs)
	f.mu.Unlock()

	switch {
	case strings.HasPrefix(req.Prompt, fixupPrompt+"\n\n"):
		return strings.TrimPrefix(req.Prompt, fixupPrompt+"\n\n"), nil

	case req.Prompt == imagePrompt:
		var keys []string
		for _, img := range req.Images {
			keys = append(keys, string(img.Data))
		}
		key := strings.Join(keys, "+")
		if f.delay != nil {
			select {
			case <-time.After(f.delay(key)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		if err := f.fail[key]; err != nil {
			return "", err
		}
		if reply, ok := f.pages[key]; ok {
			return reply, nil
		}
		return "# " + key, nil

	default:
		if err := f.fail[fmt.Sprintf("batch%d", n)]; err != nil {
			return "", err
		}
		if n > len(f.text) {
			return "", errors.New("unexpected text request")
		}
		return f.text[n-1], nil
	}
}

func (f *fakeModel) requests() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.reqs...)
}

// recordingSink keeps artifacts in memory.
type recordingSink struct {
	mu       sync.Mutex
	begun    []types.Document
	puts     map[string]string
	tocs     map[int][]string
	finished map[string]types.ConversionStatus
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		puts:     map[string]string{},
		tocs:     map[int][]string{},
		finished: map[string]types.ConversionStatus{},
	}
}

func (s *recordingSink) Begin(_ context.Context, doc types.Document, _ types.Mode) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begun = append(s.begun, doc)
	return "run-" + doc.ID, nil
}

func (s *recordingSink) Put(_ context.Context, _ string, batch int, stage artifact.Stage, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts[fmt.Sprintf("%d/%s", batch, stage)] = content
	return nil
}

func (s *recordingSink) PutTOC(_ context.Context, _ string, page int, lines []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tocs[page] = lines
	return nil
}

func (s *recordingSink) Finish(_ context.Context, runID string, status types.ConversionStatus, _ error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished[runID] = status
	return nil
}

type fakeImages struct {
	pages map[string][]llm.Image
}

func (f fakeImages) Render(_ context.Context, pdfPath string) ([]llm.Image, error) {
	imgs, ok := f.pages[filepath.Base(pdfPath)]
	if !ok {
		return nil, errors.New("cannot render " + pdfPath)
	}
	return imgs, nil
}

type fakeText struct {
	pages []string
}

func (f fakeText) Pages(context.Context, string) ([]string, error) {
	return f.pages, nil
}

func pageImages(names ...string) []llm.Image {
	out := make([]llm.Image, len(names))
	for i, n := range names {
		out[i] = llm.Image{Data: []byte(n), MIMEType: "image/png"}
	}
	return out
}

func imagePipeline(model llm.Model, sink artifact.Sink, cfg types.ConversionConfig) *Pipeline {
	cfg.Mode = types.ModeImage
	return &Pipeline{Model: model, Prompts: testPrompts, Sink: sink, Config: cfg}
}

func TestRunImages_SinglePageFlow(t *testing.T) {
	model := &fakeModel{pages: map[string]string{
		"p1": "[[PAGE HEADER START]]\nACME Corp\n[[PAGE HEADER END]]\n# Intro\nBody",
		"p2": "[[PAGE NUMBER START]]\n2\n[[PAGE NUMBER END]]\n-----",
		"p3": "[[TOC FROM CONTENT START]]\n1. Intro\n[[TOC FROM CONTENT END]]\n## Contents page",
	}}
	sink := newRecordingSink()
	p := imagePipeline(model, sink, types.ConversionConfig{BatchSize: 1, Concurrency: 2})

	var log bytes.Buffer
	out, err := p.RunImages(context.Background(), "run", pageImages("p1", "p2", "p3"), &log)
	require.NoError(t, err)

	assert.Equal(t, "# Intro\nBody\n-----\n## Contents page\n-----\n", out.Markdown)
	assert.Equal(t, 3, out.Pages)
	assert.Equal(t, 3, out.Batches)
	assert.Equal(t, 1, out.Skipped)
	assert.Equal(t, []types.PageTOC{{Page: 3, Lines: []string{"1. Intro"}}}, out.TOC)

	// 3 page calls + 2 fixups; the empty page never reaches fixup.
	assert.Len(t, model.requests(), 5)

	assert.Contains(t, sink.puts, "2/initial")
	assert.NotContains(t, sink.puts, "2/without-markers")
	assert.NotContains(t, sink.puts, "2/fixed")
	assert.Equal(t, "# Intro\nBody", sink.puts["1/without-markers"])
	assert.Equal(t, []string{"1. Intro"}, sink.tocs[3])

	assert.Contains(t, log.String(), "skipped page 2 of 3 (no content)")
	assert.Contains(t, log.String(), "completed pages 1 to 1 of 3")
}

func TestRunImages_AppendsSeparator(t *testing.T) {
	model := &fakeModel{pages: map[string]string{"p1": "text"}}
	p := imagePipeline(model, nil, types.ConversionConfig{})

	out, err := p.RunImages(context.Background(), "run", pageImages("p1"), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "text"+PageSeparator, out.Markdown)
}

func TestRunImages_ParallelKeepsPageOrder(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	model := &fakeModel{delay: func(page string) time.Duration {
		return time.Duration('h'-page[0]) * time.Millisecond
	}}
	p := imagePipeline(model, nil, types.ConversionConfig{Concurrency: 4})

	out, err := p.RunImages(context.Background(), "run", pageImages(names...), &bytes.Buffer{})
	require.NoError(t, err)

	var want strings.Builder
	for _, n := range names {
		want.WriteString("# " + n + PageSeparator)
	}
	assert.Equal(t, want.String(), out.Markdown)
}

func TestRunImages_MultiPageBatches(t *testing.T) {
	model := &fakeModel{pages: map[string]string{
		"p1+p2": "[[PAGE NUMBER START]]\n1\n[[PAGE NUMBER END]]\n# Both",
	}}
	sink := newRecordingSink()
	p := imagePipeline(model, sink, types.ConversionConfig{BatchSize: 2})

	out, err := p.RunImages(context.Background(), "run", pageImages("p1", "p2", "p3"), &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, 2, out.Batches)
	// Multi-page replies skip marker processing; the last page is a batch of one.
	assert.Equal(t, "[[PAGE NUMBER START]]\n1\n[[PAGE NUMBER END]]\n# Both# p3\n-----\n", out.Markdown)
	assert.Contains(t, sink.puts, "1/fixed")
	assert.NotContains(t, sink.puts, "1/without-markers")
	assert.Contains(t, sink.puts, "3/without-markers")

	var multi int
	for _, r := range model.requests() {
		if len(r.Images) == 2 {
			multi++
		}
	}
	assert.Equal(t, 1, multi)
}

func TestRunImages_PageFailureFailsDocument(t *testing.T) {
	model := &fakeModel{fail: map[string]error{"p2": errors.New("rate limited")}}
	p := imagePipeline(model, nil, types.ConversionConfig{Concurrency: 1})

	_, err := p.RunImages(context.Background(), "run", pageImages("p1", "p2", "p3"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pages 2-2")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestRunImages_NoPages(t *testing.T) {
	p := imagePipeline(&fakeModel{}, nil, types.ConversionConfig{})
	_, err := p.RunImages(context.Background(), "run", nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, types.ErrNoPages)
}

const firstReply = "```markdown\n" +
	"| A | B |\n|---|---|\n| 1 | 2 |\n\n" +
	"## State Information for Next Batch\n\n" +
	"### Last Heading\n# Intro\n\n" +
	"### Continuing Structures\n- Table: [YES]\n- Column Count: [2]\n" +
	"```"

func TestRunText_ThreadsStateAcrossBatches(t *testing.T) {
	model := &fakeModel{text: []string{firstReply, "| 3 | 4 |"}}
	sink := newRecordingSink()
	p := &Pipeline{
		Model:   model,
		Prompts: testPrompts,
		Sink:    sink,
		Config:  types.ConversionConfig{Mode: types.ModeText, BatchSize: 2},
	}

	pages := []string{"[Page 1]\na", "[Page 2]\nb", "[Page 3]\nc"}
	var log bytes.Buffer
	out, err := p.RunText(context.Background(), "run", pages, &log)
	require.NoError(t, err)

	assert.Equal(t, "| A | B |\n|---|---|\n| 1 | 2 |\n| 3 | 4 |", out.Markdown)
	assert.Equal(t, 2, out.Batches)

	reqs := model.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t,
		"Heading: \n- Continuing Table: [NO]\nColumns: 0\n- Continuing List: [NO]\n\n[Page 1]\na"+BatchSeparator+"[Page 2]\nb",
		reqs[0].Prompt)
	assert.Equal(t,
		"Heading: # Intro\n- Continuing Table: [YES]\nColumns: 2\n- Continuing List: [NO]\n\n[Page 3]\nc",
		reqs[1].Prompt)

	assert.Equal(t, firstReply, sink.puts["1/prompt-result"])
	assert.Equal(t, "| A | B |\n|---|---|\n| 1 | 2 |\n", sink.puts["1/batch"])
	assert.Equal(t, "Heading: # Intro\n- Continuing Table: [YES]\nColumns: 2\n- Continuing List: [NO]", sink.puts["1/prompt"])
	// A reply without state resets the next prompt to defaults.
	assert.Equal(t, "Heading: \n- Continuing Table: [NO]\nColumns: 0\n- Continuing List: [NO]", sink.puts["2/prompt"])

	assert.Contains(t, log.String(), "completed batch 2 of 2 (pages 3 to 3)")
}

func TestRunText_Errors(t *testing.T) {
	model := &fakeModel{text: []string{"ok"}, fail: map[string]error{"batch2": errors.New("timeout")}}
	p := &Pipeline{Model: model, Prompts: testPrompts, Config: types.ConversionConfig{Mode: types.ModeText}}

	_, err := p.RunText(context.Background(), "run", []string{"a", "b"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch 2 of 2")

	_, err = p.RunText(context.Background(), "run", nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, types.ErrNoPages)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.RunText(ctx, "run", []string{"a"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvertDocument(t *testing.T) {
	outDir := t.TempDir()
	sink := newRecordingSink()
	p := &Pipeline{
		Model:   &fakeModel{pages: map[string]string{"p1": "# Scope\nText", "p2": "## Terms\nMore"}},
		Images:  fakeImages{pages: map[string][]llm.Image{"report.pdf": pageImages("p1", "p2")}},
		Prompts: testPrompts,
		Sink:    sink,
		Config:  types.ConversionConfig{Mode: types.ModeImage, OutDir: outDir},
	}

	doc := DocumentFor("/docs/report.pdf")
	res, err := p.ConvertDocument(context.Background(), doc, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, types.ConversionDone, res.Status)
	assert.Equal(t, "run-report", res.RunID)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, types.ConversionDone, sink.finished["run-report"])

	md, err := os.ReadFile(filepath.Join(outDir, "report.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Scope\nText\n-----\n## Terms\nMore\n-----\n", string(md))

	data, err := os.ReadFile(filepath.Join(outDir, "report.toc.yaml"))
	require.NoError(t, err)
	var toc types.TOC
	require.NoError(t, yaml.Unmarshal(data, &toc))
	assert.Equal(t, "report", toc.Document)
	assert.Equal(t, []types.Heading{{Level: 1, Text: "Scope"}, {Level: 2, Text: "Terms"}}, toc.Outline)
}

func TestConvertDocument_SkipAndForce(t *testing.T) {
	outDir := t.TempDir()
	mdPath := filepath.Join(outDir, "report.md")
	require.NoError(t, os.WriteFile(mdPath, []byte("old"), 0o644))

	p := &Pipeline{
		Model:   &fakeModel{},
		Images:  fakeImages{pages: map[string][]llm.Image{"report.pdf": pageImages("p1")}},
		Prompts: testPrompts,
		Config:  types.ConversionConfig{Mode: types.ModeImage, OutDir: outDir},
	}

	var log bytes.Buffer
	res, err := p.ConvertDocument(context.Background(), DocumentFor("report.pdf"), &log)
	require.NoError(t, err)
	assert.Equal(t, types.ConversionNone, res.Status)
	assert.Contains(t, log.String(), "skipped: report (already exists)")

	p.Config.Force = true
	res, err = p.ConvertDocument(context.Background(), DocumentFor("report.pdf"), &log)
	require.NoError(t, err)
	assert.Equal(t, types.ConversionDone, res.Status)
	md, _ := os.ReadFile(mdPath)
	assert.Equal(t, "# p1\n-----\n", string(md))
}

func TestConvertDocument_Failures(t *testing.T) {
	t.Run("unknown mode", func(t *testing.T) {
		sink := newRecordingSink()
		p := &Pipeline{Model: &fakeModel{}, Sink: sink, Config: types.ConversionConfig{Mode: "audio", OutDir: t.TempDir()}}
		res, err := p.ConvertDocument(context.Background(), DocumentFor("x.pdf"), &bytes.Buffer{})
		assert.ErrorIs(t, err, types.ErrUnknownMode)
		assert.Equal(t, types.ConversionFailed, res.Status)
		assert.Equal(t, types.ConversionFailed, sink.finished["run-x"])
	})

	t.Run("text mode reads text source", func(t *testing.T) {
		p := &Pipeline{
			Model:   &fakeModel{text: []string{"# Only"}},
			Text:    fakeText{pages: []string{"[Page 1]\nonly"}},
			Prompts: testPrompts,
			Config:  types.ConversionConfig{Mode: types.ModeText, OutDir: t.TempDir()},
		}
		res, err := p.ConvertDocument(context.Background(), DocumentFor("x.pdf"), &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Batches)
	})

	t.Run("missing image source", func(t *testing.T) {
		p := &Pipeline{Model: &fakeModel{}, Config: types.ConversionConfig{Mode: types.ModeImage, OutDir: t.TempDir()}}
		_, err := p.ConvertDocument(context.Background(), DocumentFor("x.pdf"), &bytes.Buffer{})
		assert.Error(t, err)
	})
}

func TestConvertPaths(t *testing.T) {
	outDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "done.md"), []byte("x"), 0o644))

	p := &Pipeline{
		Model: &fakeModel{},
		Images: fakeImages{pages: map[string][]llm.Image{
			"good.pdf": pageImages("g1"),
			"done.pdf": pageImages("d1"),
		}},
		Prompts: testPrompts,
		Config:  types.ConversionConfig{Mode: types.ModeImage, OutDir: outDir},
	}

	var log bytes.Buffer
	result := p.ConvertPaths(context.Background(), []string{"in/good.pdf", "in/bad.pdf", "in/done.pdf"}, &log)

	assert.Equal(t, BatchResult{Converted: 1, Skipped: 1, Failed: 1}, result)
	assert.Equal(t, 3, result.Total())
	assert.True(t, result.HasFailures())
	assert.Contains(t, log.String(), "converted: good")
	assert.Contains(t, log.String(), "failed:  bad")
	assert.Contains(t, log.String(), "Batch summary: 1 converted, 1 skipped, 1 failed (total: 3)")
}

func TestDocumentFor(t *testing.T) {
	assert.Equal(t, types.Document{ID: "rfx-2024-07", PDFPath: "docs/rfx-2024-07.pdf"}, DocumentFor("docs/rfx-2024-07.pdf"))
}

func TestBatchResult(t *testing.T) {
	assert.False(t, BatchResult{Converted: 2, Skipped: 1}.HasFailures())
	assert.Equal(t, 0, BatchResult{}.Total())
}

func TestRunText_JoinsBatchesOnLineBoundary(t *testing.T) {
	model := &fakeModel{text: []string{"- one", "- two"}}
	p := &Pipeline{Model: model, Prompts: testPrompts, Config: types.ConversionConfig{Mode: types.ModeText}}

	out, err := p.RunText(context.Background(), "run", []string{"a", "b"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "- one\n- two", out.Markdown)
}
