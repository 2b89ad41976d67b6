// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package artifact records the intermediate text of every conversion step so
// a run can be audited or replayed: the raw model reply, the text after
// marker cleaning, the fixed-up page, and in text mode each batch's
// Markdown and the prompt handed to the next batch.
package artifact

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/pdf-markdown/pkg/types"
)

// Stage names one intermediate step of a batch.
type Stage string

const (
	StageInitial        Stage = "initial"
	StageWithoutMarkers Stage = "without-markers"
	StageFixed          Stage = "fixed"
	StagePromptResult   Stage = "prompt-result"
	StageBatch          Stage = "batch"
	StagePrompt         Stage = "prompt"
)

// Run is one conversion of one document.
type Run struct {
	ID         string                 `json:"id" yaml:"id"`
	Document   string                 `json:"document" yaml:"document"`
	Mode       types.Mode             `json:"mode" yaml:"mode"`
	Status     types.ConversionStatus `json:"status" yaml:"status"`
	Error      string                 `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt  time.Time              `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time              `json:"finished_at,omitzero" yaml:"finished_at,omitempty"`
}

// Artifact is one stored intermediate text.
type Artifact struct {
	RunID string `json:"run_id" yaml:"run_id"`
	Batch int    `json:"batch" yaml:"batch"`
	Stage Stage  `json:"stage" yaml:"stage"`
	Path  string `json:"path" yaml:"path"`
	Bytes int    `json:"bytes" yaml:"bytes"`
}

// Sink receives the artifacts of conversion runs. Implementations must be
// safe for concurrent use because image-mode pages run in parallel.
type Sink interface {
	// Begin starts a run and returns its ID.
	Begin(ctx context.Context, doc types.Document, mode types.Mode) (string, error)

	// Put stores content for one batch (1-based) and stage.
	Put(ctx context.Context, runID string, batch int, stage Stage, content string) error

	// PutTOC stores the table-of-contents lines found on a page.
	PutTOC(ctx context.Context, runID string, page int, lines []string) error

	// Finish records the final status. runErr is nil on success.
	Finish(ctx context.Context, runID string, status types.ConversionStatus, runErr error) error
}

type nopSink struct{}

// Nop returns a Sink that only hands out run IDs.
func Nop() Sink { return nopSink{} }

func (nopSink) Begin(context.Context, types.Document, types.Mode) (string, error) {
	return uuid.NewString(), nil
}

func (nopSink) Put(context.Context, string, int, Stage, string) error { return nil }

func (nopSink) PutTOC(context.Context, string, int, []string) error { return nil }

func (nopSink) Finish(context.Context, string, types.ConversionStatus, error) error { return nil }
