// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"

	genai "google.golang.org/genai"

	"github.com/pdiddy/pdf-markdown/pkg/types"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini calls the Gemini API through the genai client. The reply length
// is left to the model's default limit.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini model for apiKey.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", types.ErrMissingAPIKey)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{client: c, model: model}, nil
}

// geminiContents builds a single user turn with the prompt followed by
// inline image blobs.
func geminiContents(req Request) []*genai.Content {
	parts := []*genai.Part{{Text: req.Prompt}}
	for _, img := range req.Images {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: img.mimeType(), Data: img.Data}})
	}
	return []*genai.Content{{Role: genai.RoleUser, Parts: parts}}
}

// Complete sends one request and returns the reply text.
func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("gemini not configured")
	}
	res, err := g.client.Models.GenerateContent(ctx, g.model, geminiContents(req), nil)
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}
	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini: %w", types.ErrEmptyResponse)
	}
	return text, nil
}
