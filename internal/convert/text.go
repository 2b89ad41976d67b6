// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/pdf-markdown/internal/artifact"
	"github.com/pdiddy/pdf-markdown/internal/continuation"
	"github.com/pdiddy/pdf-markdown/internal/llm"
	"github.com/pdiddy/pdf-markdown/pkg/types"
)

// BatchSeparator joins the pages of one text-mode batch.
const BatchSeparator = "\n\n-----\n\n"

// RunText converts labelled page texts in batches of Config.BatchSize.
// Each reply is split into Markdown and a continuation state, and the state
// is rendered into the fresh text template to form the next batch's prompt.
// The first batch gets the template rendered with the default state.
func (p *Pipeline) RunText(ctx context.Context, runID string, pages []string, w io.Writer) (Output, error) {
	total := len(pages)
	if total == 0 {
		return Output{}, types.ErrNoPages
	}

	sink, log := p.sink(), p.log()
	size := p.batchSize()
	batches := (total + size - 1) / size
	fresh := p.Prompts.Text
	prompt := continuation.DefaultState().Render(fresh)

	out := Output{Pages: total, Batches: batches}
	var sb strings.Builder
	for b := 0; b < batches; b++ {
		if err := ctx.Err(); err != nil {
			return Output{}, err
		}
		n := b + 1
		start := b * size
		end := min(start+size, total)
		batchText := strings.Join(pages[start:end], BatchSeparator)

		raw, err := p.Model.Complete(ctx, llm.Request{Prompt: prompt + "\n\n" + batchText, MaxTokens: p.MaxTokens})
		if err != nil {
			return Output{}, fmt.Errorf("batch %d of %d: %w", n, batches, err)
		}
		if err := sink.Put(ctx, runID, n, artifact.StagePromptResult, raw); err != nil {
			return Output{}, err
		}

		res := continuation.ProcessResult(raw, fresh)
		if !res.HasState {
			log.Warn("batch.no_state", "run_id", runID, "batch", n)
		}
		if err := sink.Put(ctx, runID, n, artifact.StageBatch, res.Markdown); err != nil {
			return Output{}, err
		}
		if err := sink.Put(ctx, runID, n, artifact.StagePrompt, res.Prompt); err != nil {
			return Output{}, err
		}

		// Batches are joined on a line boundary so a table or list can resume.
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString(res.Markdown)
		prompt = res.Prompt
		fmt.Fprintf(w, "completed batch %d of %d (pages %d to %d)\n", n, batches, start+1, end)
	}

	out.Markdown = sb.String()
	return out, nil
}
