// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the pdf-markdown pipeline:
// configuration, documents, conversion results, and table-of-contents records.
package types

import "time"

// ConversionStatus indicates the state of a document conversion run.
type ConversionStatus string

const (
	ConversionNone    ConversionStatus = "none"
	ConversionRunning ConversionStatus = "running"
	ConversionDone    ConversionStatus = "converted"
	ConversionFailed  ConversionStatus = "failed"
)

// Document is one PDF queued for conversion.
type Document struct {
	// ID is the PDF file name without extension (e.g. "rfx-2024-07").
	ID string `json:"id" yaml:"id"`

	// PDFPath is the local filesystem path to the PDF.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`
}

// PageTOC holds table-of-contents lines the model marked on a content page.
type PageTOC struct {
	// Page is the 1-based page number (or first page of the batch).
	Page int `json:"page" yaml:"page"`

	Lines []string `json:"lines" yaml:"lines"`
}

// Heading is one heading found in the assembled Markdown.
type Heading struct {
	Level int    `json:"level" yaml:"level"`
	Text  string `json:"text" yaml:"text"`
}

// TOC is written next to the Markdown output as <doc>.toc.yaml.
type TOC struct {
	Document string `json:"document" yaml:"document"`

	// FromContent lists the reserved-marker blocks extracted per page.
	FromContent []PageTOC `json:"from_content,omitempty" yaml:"from_content,omitempty"`

	// Outline lists the headings of the final Markdown in order.
	Outline []Heading `json:"outline" yaml:"outline"`
}

// ConversionResult describes one finished document conversion.
type ConversionResult struct {
	RunID        string           `json:"run_id" yaml:"run_id"`
	DocumentID   string           `json:"document_id" yaml:"document_id"`
	Mode         Mode             `json:"mode" yaml:"mode"`
	Status       ConversionStatus `json:"status" yaml:"status"`
	MarkdownPath string           `json:"markdown_path" yaml:"markdown_path"`
	TOCPath      string           `json:"toc_path,omitempty" yaml:"toc_path,omitempty"`
	Pages        int              `json:"pages" yaml:"pages"`
	Batches      int              `json:"batches" yaml:"batches"`
	SkippedPages int              `json:"skipped_pages" yaml:"skipped_pages"`
	Duration     time.Duration    `json:"duration" yaml:"duration"`
}
