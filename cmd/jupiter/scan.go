// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/jupiter/internal/errors"
	"github.com/kraklabs/jupiter/internal/history"
	"github.com/kraklabs/jupiter/internal/output"
	"github.com/kraklabs/jupiter/internal/ui"
)

func runScan(args []string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	snapshot := fs.Bool("capture-snapshot", false, "Persist the resulting report as a history snapshot")
	label := fs.String("snapshot-label", "", "Label to attach to the captured snapshot")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

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

	if !globals.Quiet && !globals.JSON {
		ui.Header("Scanning " + root)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	bar := NewSpinner(NewProgressConfig(globals), "scanning")
	report, err := doScan(ctx, root, globals, cfg)
	StopSpinner(bar)
	if err != nil {
		errors.FatalError(err, globals.JSON)
		return exitDomain
	}

	if *snapshot {
		store := history.New(filepath.Join(root, ".jupiter", "snapshots"))
		meta, err := store.CreateSnapshot(report, *label, time.Now().UnixMilli())
		if err != nil {
			errors.FatalError(err, globals.JSON)
			return exitDomain
		}
		if !globals.Quiet && !globals.JSON {
			ui.Successf("captured snapshot %s", meta.ID)
		}
	}

	if globals.JSON {
		if err := output.JSON(report); err != nil {
			errors.FatalError(err, globals.JSON)
			return exitDomain
		}
		return exitOK
	}

	ui.Successf("scanned %d files (%s)", len(report.Files), fmt.Sprintf("%d languages", len(report.LanguageSummary)))
	return exitOK
}
