// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kraklabs/jupiter/internal/errors"
	"github.com/kraklabs/jupiter/internal/graph"
	"github.com/kraklabs/jupiter/internal/output"
	"github.com/kraklabs/jupiter/internal/simulator"
)

func runSimulate(args []string, globals GlobalFlags) int {
	if len(args) < 2 || args[0] != "remove" {
		fmt.Fprintln(os.Stderr, "usage: jupiter simulate remove <target>")
		return exitUsage
	}
	target := args[1]

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

	report, err := doScan(ctx, root, globals, cfg)
	if err != nil {
		errors.FatalError(err, globals.JSON)
		return exitDomain
	}

	g := graph.Build(report)

	targetType := simulator.TargetFile
	if containsSymbolSeparator(target) {
		targetType = simulator.TargetSymbol
	}

	impact := simulator.SimulateRemove(g, targetType, target)
	_ = output.JSON(impact)
	return exitOK
}

// containsSymbolSeparator recognizes the "path::symbol" convention used by
// SymbolRecord.ID() to distinguish a symbol target from a bare file path.
func containsSymbolSeparator(target string) bool {
	for i := 0; i+1 < len(target); i++ {
		if target[i] == ':' && target[i+1] == ':' {
			return true
		}
	}
	return false
}
