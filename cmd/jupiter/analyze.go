// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/jupiter/internal/analyzer"
	"github.com/kraklabs/jupiter/internal/errors"
	"github.com/kraklabs/jupiter/internal/output"
	"github.com/kraklabs/jupiter/internal/ui"
)

func runAnalyze(args []string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	topN := fs.Int("top", 10, "Number of hotspots to report per category")
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	bar := NewSpinner(NewProgressConfig(globals), "analyzing")
	report, err := doScan(ctx, root, globals, cfg)
	StopSpinner(bar)
	if err != nil {
		errors.FatalError(err, globals.JSON)
		return exitDomain
	}

	summary := analyzer.Analyze(report, *topN)

	if globals.JSON {
		if err := output.JSON(summary); err != nil {
			errors.FatalError(err, globals.JSON)
			return exitDomain
		}
		return exitOK
	}

	ui.Header("Analysis Summary")
	ui.Infof("files: %d", len(report.Files))
	for _, h := range summary.ComplexityHotspots {
		ui.Infof("complexity hotspot: %s (%s=%.0f)", h.Path, h.Metric, h.Value)
	}
	for _, h := range summary.DuplicationHotspots {
		ui.Infof("duplication hotspot: %s (%s=%.2f)", h.Path, h.Metric, h.Value)
	}
	return exitOK
}
