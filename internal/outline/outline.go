// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outline lists the headings of converted Markdown.
package outline

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/pdiddy/pdf-markdown/pkg/types"
)

var engine = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Headings returns every ATX heading in document order with its plain text.
// Setext headings are ignored: a page separator directly under a paragraph
// parses as a setext underline.
func Headings(markdown string) []types.Heading {
	src := []byte(markdown)
	doc := engine.Parser().Parse(text.NewReader(src))

	var out []types.Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if !isATX(h, src) {
			return ast.WalkSkipChildren, nil
		}
		if title := strings.TrimSpace(plainText(h, src)); title != "" {
			out = append(out, types.Heading{Level: h.Level, Text: title})
		}
		return ast.WalkSkipChildren, nil
	})
	return out
}

// isATX reports whether the heading's line starts with '#'.
func isATX(h *ast.Heading, src []byte) bool {
	lines := h.Lines()
	if lines.Len() == 0 {
		return false
	}
	start := lines.At(0).Start
	lineStart := bytes.LastIndexByte(src[:start], '\n') + 1
	return bytes.HasPrefix(bytes.TrimLeft(src[lineStart:start], " \t"), []byte("#"))
}

func plainText(n ast.Node, src []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		default:
			sb.WriteString(plainText(c, src))
		}
	}
	return sb.String()
}
