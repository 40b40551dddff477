// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/jupiter/internal/analyzer"
	"github.com/kraklabs/jupiter/internal/config"
	"github.com/kraklabs/jupiter/internal/errors"
	"github.com/kraklabs/jupiter/internal/model"
	"github.com/kraklabs/jupiter/internal/output"
	"github.com/kraklabs/jupiter/internal/ui"
)

type ciGate struct {
	Gate   string  `json:"gate"`
	Limit  float64 `json:"limit"`
	Actual float64 `json:"actual"`
}

type ciResult struct {
	Summary       model.AnalysisSummary `json:"summary"`
	Pass          bool                  `json:"pass"`
	GatesExceeded []ciGate              `json:"gates_exceeded"`
}

func runCI(args []string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("ci", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	root, err := resolveRoot(globals)
	if err != nil {
		errors.FatalError(err, true)
		return exitDomain
	}
	cfg, err := loadProjectConfig(root)
	if err != nil {
		errors.FatalError(err, true)
		return exitDomain
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	report, err := doScan(ctx, root, globals, cfg)
	if err != nil {
		errors.FatalError(err, true)
		return exitDomain
	}

	summary := analyzer.Analyze(report, 10)
	result := gateSummary(summary, cfg)

	// CI mode always emits JSON to stdout regardless of verbosity (§4.17).
	_ = output.JSON(result)

	if !result.Pass {
		if !globals.Quiet {
			for _, g := range result.GatesExceeded {
				fmt.Printf("gate exceeded: %s limit=%.2f actual=%.2f\n", g.Gate, g.Limit, g.Actual)
			}
		}
		return exitDomain
	}
	if !globals.Quiet {
		ui.Success("CI gates passed")
	}
	return exitOK
}

func gateSummary(summary model.AnalysisSummary, cfg config.Config) ciResult {
	var gates []ciGate

	if cfg.CI.MaxComplexity > 0 {
		for _, h := range summary.ComplexityHotspots {
			if h.Value > float64(cfg.CI.MaxComplexity) {
				gates = append(gates, ciGate{Gate: "max_complexity", Limit: float64(cfg.CI.MaxComplexity), Actual: h.Value})
			}
		}
	}
	if cfg.CI.MaxDuplicationRatio > 0 {
		for _, h := range summary.DuplicationHotspots {
			if h.Value > cfg.CI.MaxDuplicationRatio {
				gates = append(gates, ciGate{Gate: "max_duplication_ratio", Limit: cfg.CI.MaxDuplicationRatio, Actual: h.Value})
			}
		}
	}
	if cfg.CI.FailOnUnused {
		if n := summary.UsageSummary[model.UsageUnused]; n > 0 {
			gates = append(gates, ciGate{Gate: "fail_on_unused", Limit: 0, Actual: float64(n)})
		}
	}

	return ciResult{Summary: summary, Pass: len(gates) == 0, GatesExceeded: gates}
}
