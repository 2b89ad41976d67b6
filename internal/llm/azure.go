// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/pdf-markdown/internal/httputil"
	"github.com/pdiddy/pdf-markdown/pkg/types"
)

// AzureOpenAI calls an Azure OpenAI chat completions deployment.
type AzureOpenAI struct {
	Endpoint    string
	Deployment  string
	APIVersion  string
	APIKey      string
	BearerToken string
	MaxTokens   int
	MaxRetries  int
	Timeout     time.Duration
	Client      *http.Client
}

type chatRequest struct {
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

// chatMessage content is a plain string for text-only requests and a list
// of parts when images are attached.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (a *AzureOpenAI) url() string {
	base := strings.TrimRight(a.Endpoint, "/")
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		base, url.PathEscape(a.Deployment), url.QueryEscape(a.APIVersion))
}

func chatBody(req Request) chatRequest {
	msg := chatMessage{Role: "user", Content: req.Prompt}
	if len(req.Images) > 0 {
		parts := []chatPart{{Type: "text", Text: req.Prompt}}
		for _, img := range req.Images {
			parts = append(parts, chatPart{Type: "image_url", ImageURL: &chatImageURL{URL: img.DataURI()}})
		}
		msg.Content = parts
	}
	return chatRequest{Messages: []chatMessage{msg}, MaxTokens: req.MaxTokens}
}

// Complete sends one chat completion and returns the first choice's text.
func (a *AzureOpenAI) Complete(ctx context.Context, req Request) (string, error) {
	if req.MaxTokens <= 0 {
		req.MaxTokens = a.MaxTokens
	}
	body, err := json.Marshal(chatBody(req))
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if a.BearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.BearerToken)
	} else {
		httpReq.Header.Set("api-key", a.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, httpClient(a.Client, a.Timeout), httpReq, a.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("calling Azure OpenAI: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", &StatusError{Provider: "Azure OpenAI", Code: resp.StatusCode, Body: string(b)}
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decoding Azure OpenAI response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("Azure OpenAI: %w", types.ErrEmptyResponse)
	}
	return cr.Choices[0].Message.Content, nil
}
