// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kraklabs/jupiter/internal/errors"
	"github.com/kraklabs/jupiter/internal/history"
	"github.com/kraklabs/jupiter/internal/output"
	"github.com/kraklabs/jupiter/internal/ui"
)

func runSnapshots(args []string, globals GlobalFlags) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: jupiter snapshots {list|show <id>|diff <before> <after>}")
		return exitUsage
	}

	root, err := resolveRoot(globals)
	if err != nil {
		errors.FatalError(err, globals.JSON)
		return exitDomain
	}
	store := history.New(filepath.Join(root, ".jupiter", "snapshots"))

	switch args[0] {
	case "list":
		snaps, err := store.ListSnapshots()
		if err != nil {
			errors.FatalError(err, globals.JSON)
			return exitDomain
		}
		if globals.JSON {
			_ = output.JSON(snaps)
			return exitOK
		}
		for _, s := range snaps {
			ui.Infof("%s  %s  files=%d", s.ID, s.CreatedAt.Format("2006-01-02T15:04:05"), s.FileCount)
		}
		return exitOK

	case "show":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: jupiter snapshots show <id>")
			return exitUsage
		}
		report, err := store.LoadSnapshot(args[1])
		if err != nil {
			errors.FatalError(errors.NewTaxonomyNotFoundError("snapshot not found", err.Error(), "run 'jupiter snapshots list' for valid ids"), globals.JSON)
			return exitDomain
		}
		_ = output.JSON(report)
		return exitOK

	case "diff":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: jupiter snapshots diff <before> <after>")
			return exitUsage
		}
		diff, err := store.Diff(args[1], args[2])
		if err != nil {
			errors.FatalError(err, globals.JSON)
			return exitDomain
		}
		_ = output.JSON(diff)
		return exitOK

	default:
		fmt.Fprintf(os.Stderr, "jupiter snapshots: unknown subcommand %q\n", args[0])
		return exitUsage
	}
}
