// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging provides the diagnostic logger used by the conversion
// drivers. It wraps go-logger behind a small interface so packages and
// tests do not depend on the concrete logger.
package logging

import (
	"fmt"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/pdiddy/pdf-markdown/pkg/types"
)

// Logger records diagnostic events as a message plus key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Root is a Logger that can hand out named child loggers.
type Root struct {
	base *glog.BaseLogger
}

// New builds a go-logger root from cfg.
func New(cfg types.LoggingConfig) (*Root, error) {
	var options []glog.Option

	if level := normalizeLevel(cfg.Level); level != "" {
		options = append(options, glog.WithLevel(level))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "console":
		options = append(options, glog.WithLoggerTypeConsole())
	case "json":
		options = append(options, glog.WithLoggerTypeJSON())
	case "pretty":
		options = append(options, glog.WithLoggerTypePretty())
	default:
		return nil, fmt.Errorf("logging: unsupported format %q", cfg.Format)
	}

	return &Root{base: glog.NewLogger(options...)}, nil
}

// Named returns a child logger tagged with name (e.g. "convert.image").
func (r *Root) Named(name string) Logger {
	if r == nil || r.base == nil {
		return Nop()
	}
	if name = strings.TrimSpace(name); name == "" {
		return r.base
	}
	return r.base.GetLogger(name)
}

func (r *Root) Debug(msg string, args ...any) { r.Named("").Debug(msg, args...) }
func (r *Root) Info(msg string, args ...any)  { r.Named("").Info(msg, args...) }
func (r *Root) Warn(msg string, args ...any)  { r.Named("").Warn(msg, args...) }
func (r *Root) Error(msg string, args ...any) { r.Named("").Error(msg, args...) }

func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return glog.Trace
	case "debug":
		return glog.Debug
	case "info":
		return glog.Info
	case "warn", "warning":
		return glog.Warn
	case "error":
		return glog.Error
	default:
		return ""
	}
}

type nop struct{}

func (nop) Debug(string, ...any) {}
func (nop) Info(string, ...any)  {}
func (nop) Warn(string, ...any)  {}
func (nop) Error(string, ...any) {}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nop{} }

// OrNop returns l, or Nop when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop()
	}
	return l
}
