// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-markdown/internal/artifact"
	"github.com/pdiddy/pdf-markdown/internal/convert"
	"github.com/pdiddy/pdf-markdown/internal/llm"
	"github.com/pdiddy/pdf-markdown/internal/prompts"
	"github.com/pdiddy/pdf-markdown/internal/source"
	"github.com/pdiddy/pdf-markdown/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [pdf or directory...]",
	Short: "Convert PDF documents to Markdown",
	Long: `Convert PDF documents to Markdown.

Each argument is a PDF file or a directory whose *.pdf files are converted
in name order. For every document the command writes <out>/<id>.md and
<out>/<id>.toc.yaml. Documents whose Markdown already exists are skipped
unless --force is set.

In image mode pages are rendered with pdftoppm in a container (or read
from --images-dir) and sent to the model one at a time, up to
--concurrency in parallel. In text mode the PDF text layer is sent in
batches of --batch-size pages and each reply's state section shapes the
next prompt.

Every intermediate reply is recorded under the artifacts directory unless
--no-artifacts is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	f := convertCmd.Flags()
	f.String("mode", "", "conversion mode: image or text (default image)")
	f.Int("batch-size", 0, "pages per model call (default 1)")
	f.Int("concurrency", 0, "parallel page calls in image mode (default 4)")
	f.String("out", "", "output directory for Markdown and ToC files (default output)")
	f.String("images-dir", "", "read pre-rendered page images from this directory instead of rasterizing")
	f.String("provider", "", "model API: azure-openai, anthropic, gemini (default azure-openai)")
	f.String("model", "", "model or deployment name")
	f.String("endpoint", "", "API base URL (azure-openai)")
	f.String("prompts-dir", "", "directory with prompt files overriding the built-in ones")
	f.Bool("force", false, "reconvert documents whose Markdown already exists")
	f.Bool("no-artifacts", false, "do not record intermediate artifacts")

	bindFlags(f, map[string]string{
		"convert.mode":        "mode",
		"convert.batch_size":  "batch-size",
		"convert.concurrency": "concurrency",
		"convert.out_dir":     "out",
		"convert.prompts_dir": "prompts-dir",
		"convert.force":       "force",
		"ai.provider":         "provider",
		"ai.model":            "model",
		"ai.endpoint":         "endpoint",
	})

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if dir, _ := cmd.Flags().GetString("images-dir"); dir != "" {
		cfg.Conversion.Raster.Source = types.RasterDir
		cfg.Conversion.Raster.ImagesDir = dir
	}
	if off, _ := cmd.Flags().GetBool("no-artifacts"); off {
		cfg.Artifacts.Enabled = false
	}

	paths, err := expandPDFPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no PDF files found in %v", args)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	pipeline, cleanup, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	start := time.Now()
	result := pipeline.ConvertPaths(ctx, paths, cmd.OutOrStdout())
	fmt.Fprintf(cmd.OutOrStdout(), "Execution time: %s\n", time.Since(start).Round(time.Millisecond))

	if result.HasFailures() {
		return fmt.Errorf("%d document(s) failed to convert", result.Failed)
	}
	return nil
}

// buildPipeline wires the collaborators selected by cfg. The returned
// cleanup closes the artifact store.
func buildPipeline(ctx context.Context, cfg types.PipelineConfig) (*convert.Pipeline, func(), error) {
	noop := func() {}

	mode := cfg.Conversion.Mode
	if mode != types.ModeImage && mode != types.ModeText {
		return nil, noop, fmt.Errorf("%w: %q", types.ErrUnknownMode, mode)
	}

	model, err := llm.New(ctx, cfg.AI, loadedSecrets)
	if err != nil {
		return nil, noop, err
	}

	set, err := prompts.Load(cfg.Conversion.PromptsDir)
	if err != nil {
		return nil, noop, err
	}

	p := &convert.Pipeline{
		Model:     model,
		Prompts:   set,
		Log:       logger("convert"),
		Config:    cfg.Conversion,
		MaxTokens: cfg.AI.MaxTokens,
	}

	if mode == types.ModeImage {
		images, err := source.NewImageSource(ctx, cfg.Conversion.Raster)
		if err != nil {
			return nil, noop, err
		}
		p.Images = images
	} else {
		p.Text = source.PDFText{}
	}

	if !cfg.Artifacts.Enabled {
		return p, noop, nil
	}
	store, err := artifact.Open(cfg.Artifacts.Dir)
	if err != nil {
		return nil, noop, err
	}
	p.Sink = store
	return p, func() { store.Close() }, nil
}

// expandPDFPaths replaces each directory argument with the PDF files it
// contains, sorted by name. File arguments are kept as given.
func expandPDFPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
				continue
			}
			found = append(found, filepath.Join(arg, e.Name()))
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}
