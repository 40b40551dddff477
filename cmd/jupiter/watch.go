// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kraklabs/jupiter/internal/errors"
	"github.com/kraklabs/jupiter/internal/history"
	"github.com/kraklabs/jupiter/internal/ignore"
	"github.com/kraklabs/jupiter/internal/model"
	"github.com/kraklabs/jupiter/internal/output"
	"github.com/kraklabs/jupiter/internal/ui"
)

const watchDebounce = 500 * time.Millisecond

// runWatch watches root for filesystem changes and re-scans on each settled
// burst of events, diffing the result against the prior scan with
// history.DiffReports and streaming the diff to stdout.
func runWatch(args []string, globals GlobalFlags) int {
	root, err := resolveRoot(globals)
	if err != nil {
		errors.FatalError(err, globals.JSON)
		return exitDomain
	}
	cfg, err := loadProjectConfig(root)
	if err != nil {
		errors.FatalError(err, globals.JSON)
		return exitDomain
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		errors.FatalError(errors.NewConfigError("could not start filesystem watcher", err.Error(), "check the platform's inotify/kqueue limits", err), globals.JSON)
		return exitConnector
	}
	defer watcher.Close()

	engine := ignore.New(nil, newLogger(globals))
	_ = engine.LoadProjectFile(filepath.Join(root, ".jupiterignore"))

	if err := addWatchDirs(watcher, root, engine); err != nil {
		errors.FatalError(err, globals.JSON)
		return exitConnector
	}

	if !globals.Quiet && !globals.JSON {
		ui.Header("Watching " + root + " (Ctrl-C to stop)")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	debounce := time.NewTimer(watchDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false

	var previous *model.ScanReport
	rescan := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		report, err := doScan(ctx, root, globals, cfg)
		cancel()
		if err != nil {
			ui.Errorf("scan failed: %v", err)
			return
		}
		if previous != nil {
			diff := history.DiffReports(previous, report)
			if globals.JSON {
				_ = output.JSON(diff)
			} else if len(diff.FilesAdded) > 0 || len(diff.FilesRemoved) > 0 || len(diff.FilesModified) > 0 {
				ui.Infof("changed: +%d -%d ~%d", len(diff.FilesAdded), len(diff.FilesRemoved), len(diff.FilesModified))
			}
		}
		previous = report
		_ = addWatchDirs(watcher, root, engine)
	}

	rescan()
	for {
		select {
		case <-sigCh:
			return exitOK
		case event, ok := <-watcher.Events:
			if !ok {
				return exitOK
			}
			rel, relErr := filepath.Rel(root, event.Name)
			if relErr == nil && engine.ShouldIgnore(rel) {
				continue
			}
			pending = true
			debounce.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return exitOK
			}
			ui.Errorf("watch error: %v", err)
		case <-debounce.C:
			if pending {
				pending = false
				rescan()
			}
		}
	}
}

// addWatchDirs walks root and registers a watch on every directory not
// excluded by engine, so newly created subdirectories are picked up on the
// next rescan.
func addWatchDirs(watcher *fsnotify.Watcher, root string, engine *ignore.Engine) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr == nil && rel != "." && engine.ShouldIgnore(rel) {
			return filepath.SkipDir
		}
		_ = watcher.Add(path)
		return nil
	})
}
