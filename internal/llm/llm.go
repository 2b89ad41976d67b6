// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm talks to the multimodal model that turns page images or page
// text into Markdown. Each provider sits behind the Model interface so the
// conversion drivers can be tested with a fake.
package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"
)

// Image is one rendered page sent alongside the prompt.
type Image struct {
	Data     []byte
	MIMEType string
}

// mimeType returns the image's MIME type, defaulting to PNG.
func (i Image) mimeType() string {
	if i.MIMEType == "" {
		return "image/png"
	}
	return i.MIMEType
}

// DataURI encodes the image as a base64 data URI.
func (i Image) DataURI() string {
	return "data:" + i.mimeType() + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Request is a single completion call: a user prompt plus zero or more
// images.
type Request struct {
	Prompt    string
	Images    []Image
	MaxTokens int
}

// Model returns the plain-text reply to one request.
type Model interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// StatusError is returned when a provider answers with a non-200 status
// after retries.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned %d: %s", e.Provider, e.Code, e.Body)
}

func httpClient(c *http.Client, timeout time.Duration) *http.Client {
	if c != nil {
		return c
	}
	if timeout <= 0 {
		return http.DefaultClient
	}
	return &http.Client{Timeout: timeout}
}
