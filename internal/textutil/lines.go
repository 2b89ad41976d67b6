// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textutil holds line helpers shared by the reply processors.
package textutil

import "strings"

// SplitLines splits s into lines the way model replies are consumed:
// "\n" and "\r\n" both terminate a line, and a trailing terminator does not
// produce an extra empty line. An empty string yields no lines.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// JoinLines joins lines with "\n" and no trailing newline.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
