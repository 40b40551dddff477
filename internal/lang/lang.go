// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package lang defines the C3 language analyzer interface and dispatches by
// file extension to a primary AST-based analyzer (Python) or a secondary
// heuristic analyzer (JS/TS), falling back to an "unknown" empty analysis
// for anything else. The interface shape mirrors the ingestion pipeline's
// CodeParser: given file bytes, produce a FileAnalysis or a typed parse
// error, with a configurable max size past which a file is skipped.
package lang

import (
	"log/slog"
	"path/filepath"

	"github.com/kraklabs/jupiter/internal/model"
)

// DefaultMaxFileSizeBytes is the §4.3 default large-file skip threshold.
const DefaultMaxFileSizeBytes = 10 * 1024 * 1024

// FileInput is what a caller hands to Analyzer.Analyze.
type FileInput struct {
	Path  string // project-relative path
	Bytes []byte
}

// Analyzer is the per-language capability: given (path, bytes), produce a
// FileAnalysis or a typed parse error.
type Analyzer interface {
	// Analyze parses one file's bytes into a FileAnalysis. The returned
	// analysis omits Path/ScanFingerprint, which the caller fills in.
	Analyze(input FileInput) (model.FileAnalysis, error)

	// LanguageTag is the language_tag this analyzer reports.
	LanguageTag() string
}

// Dispatcher routes a file to the Analyzer registered for its extension.
type Dispatcher struct {
	byExt          map[string]Analyzer
	maxFileSize    int64
	logger         *slog.Logger
}

// NewDispatcher builds a Dispatcher with no analyzers registered; callers
// add the built-in ones (Python primary, JS/TS secondary) with Register.
func NewDispatcher(maxFileSize int64, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSizeBytes
	}
	return &Dispatcher{byExt: map[string]Analyzer{}, maxFileSize: maxFileSize, logger: logger}
}

// Register binds an Analyzer to one or more extensions (including the dot,
// e.g. ".py").
func (d *Dispatcher) Register(a Analyzer, extensions ...string) {
	for _, ext := range extensions {
		d.byExt[ext] = a
	}
}

// AnalyzeFile dispatches by path's extension. Unknown extensions yield an
// empty analysis with language_tag "unknown". Files over the configured
// threshold are skipped, reported via the skippedLarge return.
func (d *Dispatcher) AnalyzeFile(path string, bytes []byte) (analysis model.FileAnalysis, skippedLarge bool, err error) {
	if int64(len(bytes)) > d.maxFileSize {
		return model.FileAnalysis{Path: path, LanguageTag: "unknown"}, true, nil
	}

	ext := filepath.Ext(path)
	a, ok := d.byExt[ext]
	if !ok {
		return model.FileAnalysis{Path: path, LanguageTag: "unknown"}, false, nil
	}

	analysis, err = a.Analyze(FileInput{Path: path, Bytes: bytes})
	if err != nil {
		d.logger.Warn("lang.analyze.parse_error", "path", path, "language", a.LanguageTag(), "error", err)
		return model.FileAnalysis{}, false, err
	}
	analysis.Path = path
	analysis.LanguageTag = a.LanguageTag()
	return analysis, false, nil
}
