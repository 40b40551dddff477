// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kraklabs/jupiter/internal/cache"
	"github.com/kraklabs/jupiter/internal/config"
	"github.com/kraklabs/jupiter/internal/errors"
	"github.com/kraklabs/jupiter/internal/ignore"
	"github.com/kraklabs/jupiter/internal/lang"
	"github.com/kraklabs/jupiter/internal/lang/jsts"
	"github.com/kraklabs/jupiter/internal/lang/python"
	"github.com/kraklabs/jupiter/internal/model"
	"github.com/kraklabs/jupiter/internal/scanner"
)

func newLogger(globals GlobalFlags) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case globals.Verbose >= 2:
		level = slog.LevelDebug
	case globals.Verbose == 1:
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func loadProjectConfig(root string) (config.Config, error) {
	return config.Load(config.ProjectConfigPath(root))
}

// doScan runs C1+C2+C3+C4 against root and returns the resulting ScanReport.
func doScan(ctx context.Context, root string, globals GlobalFlags, cfg config.Config) (*model.ScanReport, error) {
	logger := newLogger(globals)

	cacheDir := filepath.Join(root, ".jupiter", "cache")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, errors.NewConfigError("could not create cache directory", err.Error(), "check filesystem permissions on the project root", err)
	}

	store := cache.New(cacheDir, []string{".lock", ".tmp"}, logger)
	engine := ignore.New(nil, logger)
	if err := engine.LoadProjectFile(filepath.Join(root, ".jupiterignore")); err != nil {
		logger.Warn("ignore.load.error", "error", err)
	}
	dispatcher := lang.NewDispatcher(lang.DefaultMaxFileSizeBytes, logger)
	dispatcher.Register(python.New(logger), ".py")
	dispatcher.Register(jsts.New(), ".js", ".jsx", ".ts", ".tsx")
	s := scanner.New(logger)

	opts := scanner.Options{
		IncludeHidden:    false,
		Incremental:      globals.Incremental,
		NoCache:          globals.NoCache,
		Workers:          cfg.Performance.Workers,
		MaxFileSizeBytes: lang.DefaultMaxFileSizeBytes,
		JupiterVersion:   version,
	}

	report, err := s.Scan(ctx, root, store, engine, dispatcher, opts)
	if err != nil {
		return nil, err
	}
	if err := store.Flush(); err != nil {
		logger.Warn("cache.flush.error", "error", err)
	}
	return report, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func resolveRoot(globals GlobalFlags) (string, error) {
	root := globals.Root
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errors.NewInputError("could not resolve project root", err.Error(), "pass an existing directory with --root")
	}
	return abs, nil
}
