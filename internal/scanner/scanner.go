// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package scanner implements the C4 scanner: a parallel filesystem walk that
// consults the ignore engine (C1), the cache store (C2), and the language
// analyzer dispatcher (C3) to produce a ScanReport. The worker-pool split —
// small candidate sets run sequentially, larger ones fan out across a
// bounded pool — follows the ingestion pipeline's parseFilesParallel /
// parseFilesSequential split, reimplemented with golang.org/x/sync/errgroup.
package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kraklabs/jupiter/internal/cache"
	"github.com/kraklabs/jupiter/internal/ignore"
	"github.com/kraklabs/jupiter/internal/lang"
	"github.com/kraklabs/jupiter/internal/model"
)

// sequentialThreshold mirrors the ingestion pipeline's small-batch fallback:
// below this many candidate files, a worker pool isn't worth the overhead.
const sequentialThreshold = 10

// Options configures one Scan call, per §4.4.
type Options struct {
	IncludeHidden    bool
	ExtraIgnoreGlobs []string
	Incremental      bool
	NoCache          bool
	Workers          int
	MaxFileSizeBytes int64
	JupiterVersion   string
}

// Scanner ties together the ignore engine, cache store, and language
// dispatcher for one project root.
type Scanner struct {
	logger *slog.Logger
}

// New builds a Scanner.
func New(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{logger: logger}
}

// Scan walks root and returns a ScanReport. ctx's cancellation is consulted
// once per file, never mid-file, matching §5's "workers interleave at file
// granularity" rule.
func (s *Scanner) Scan(ctx context.Context, root string, store *cache.Store, engine *ignore.Engine, dispatcher *lang.Dispatcher, opts Options) (*model.ScanReport, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	maxSize := opts.MaxFileSizeBytes
	if maxSize <= 0 {
		maxSize = lang.DefaultMaxFileSizeBytes
	}

	candidates, err := s.walk(root, engine, opts.IncludeHidden)
	if err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		files []model.FileRecord
		langs = map[string]int{}
	)

	record := func(fr model.FileRecord) {
		mu.Lock()
		files = append(files, fr)
		langs[fr.LanguageTag]++
		mu.Unlock()
	}

	reuse := func(path string, info os.FileInfo) (model.FileRecord, bool) {
		if opts.NoCache || !opts.Incremental {
			return model.FileRecord{}, false
		}
		fp := model.ScanFingerprintOf(info.Size(), info.ModTime())
		cachedFP, ok := store.Fingerprint(path)
		if !ok || cachedFP != fp {
			return model.FileRecord{}, false
		}
		fa, ok := store.Analysis(path, fp)
		if !ok {
			return model.FileRecord{}, false
		}
		content, err := os.ReadFile(filepath.Join(root, path))
		if err != nil {
			return model.FileRecord{}, false
		}
		return model.FileRecord{
			Path: path, SizeBytes: info.Size(), ModifiedAt: info.ModTime(),
			LanguageTag: fa.LanguageTag, ContentHash: contentHash(content), ScanFingerprint: fp,
		}, true
	}

	analyzeOne := func(path string) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fullPath := filepath.Join(root, path)
		info, err := os.Stat(fullPath)
		if err != nil {
			record(model.FileRecord{Path: path, AnalysisError: err.Error()})
			return nil
		}

		if opts.NoCache {
			store.InvalidatePath(path)
		}

		if fr, ok := reuse(path, info); ok {
			record(fr)
			return nil
		}

		content, err := os.ReadFile(fullPath)
		if err != nil {
			record(model.FileRecord{Path: path, AnalysisError: err.Error()})
			return nil
		}

		fp := model.ScanFingerprintOf(info.Size(), info.ModTime())
		analysis, skipped, err := dispatcher.AnalyzeFile(path, content)
		fr := model.FileRecord{
			Path: path, SizeBytes: info.Size(), ModifiedAt: info.ModTime(),
			ContentHash: contentHash(content), ScanFingerprint: fp,
		}
		if err != nil {
			fr.AnalysisError = err.Error()
			fr.LanguageTag = "unknown"
			record(fr)
			return nil
		}
		fr.LanguageTag = analysis.LanguageTag
		fr.SkippedLarge = skipped
		if !skipped {
			analysis.Duplication = duplicationFingerprints(content)
			store.Put(path, fp, analysis)
		}
		record(fr)
		return nil
	}

	if len(candidates) < sequentialThreshold || workers <= 1 {
		for _, path := range candidates {
			if err := analyzeOne(path); err != nil {
				return nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for _, path := range candidates {
			path := path
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				return analyzeOne(path)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	if err := store.Flush(); err != nil {
		s.logger.Warn("scanner.cache.flush_failed", "error", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	report := &model.ScanReport{
		ProjectRoot:     root,
		CreatedAt:       time.Now(),
		JupiterVersion:  opts.JupiterVersion,
		Files:           files,
		Analyses:        map[string]model.FileAnalysis{},
		LanguageSummary: langs,
	}
	for _, fr := range files {
		if fr.AnalysisError != "" || fr.SkippedLarge {
			continue
		}
		if fa, ok := store.Analysis(fr.Path, fr.ScanFingerprint); ok {
			report.Analyses[fr.Path] = fa
		}
	}
	return report, nil
}

// walk computes the candidate path set, asking the ignore engine at each
// entry; directories that should be ignored are skipped entirely.
func (s *Scanner) walk(root string, engine *ignore.Engine, includeHidden bool) ([]string, error) {
	var candidates []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !includeHidden && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if engine != nil && engine.ShouldIgnore(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		candidates = append(candidates, rel)
		return nil
	})
	return candidates, err
}

func isHidden(name string) bool {
	return len(name) > 1 && name[0] == '.'
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// duplicationWindowLines is the normalized-window size the rolling hash
// covers, per §4.5.
const duplicationWindowLines = 5

// duplicationFingerprints computes a rolling hash over each
// duplicationWindowLines-line window of normalized (trimmed,
// blank-line-dropped) source lines, for cross-file clustering by the
// analyzer.
func duplicationFingerprints(content []byte) []model.DuplicationFingerprint {
	lines := normalizedLines(content)
	if len(lines) < duplicationWindowLines {
		return nil
	}
	var out []model.DuplicationFingerprint
	for i := 0; i+duplicationWindowLines <= len(lines); i++ {
		h := fnv1a(lines[i : i+duplicationWindowLines])
		out = append(out, model.DuplicationFingerprint{
			Hash:      h,
			StartLine: lines[i].num,
			EndLine:   lines[i+duplicationWindowLines-1].num,
		})
	}
	return out
}

type numberedLine struct {
	text string
	num  int
}

func normalizedLines(content []byte) []numberedLine {
	var out []numberedLine
	lineNo := 0
	start := 0
	for i := 0; i <= len(content); i++ {
		if i == len(content) || content[i] == '\n' {
			lineNo++
			raw := string(content[start:i])
			trimmed := trimSpace(raw)
			if trimmed != "" {
				out = append(out, numberedLine{text: trimmed, num: lineNo})
			}
			start = i + 1
		}
	}
	return out
}

func trimSpace(s string) string {
	i, j := 0, len(s)
	for i < j && isSpace(s[i]) {
		i++
	}
	for j > i && isSpace(s[j-1]) {
		j--
	}
	return s[i:j]
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' }

// fnv1a hashes the joined window text, matching the project's care around
// iterating by rune rather than byte index in similar string-processing
// code (no multi-byte splitting concerns here since we hash the whole
// window's bytes in one pass).
func fnv1a(window []numberedLine) uint64 {
	var h uint64 = 14695981039346656037
	for _, l := range window {
		for i := 0; i < len(l.text); i++ {
			h ^= uint64(l.text[i])
			h *= 1099511628211
		}
		h ^= '\n'
		h *= 1099511628211
	}
	return h
}
