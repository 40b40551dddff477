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
	"github.com/kraklabs/jupiter/internal/eventbus"
	"github.com/kraklabs/jupiter/internal/output"
	"github.com/kraklabs/jupiter/internal/runner"
)

func runRunCommand(args []string, globals GlobalFlags) int {
	withDynamic := false
	argv := args
	if len(argv) > 0 && argv[0] == "--with-dynamic" {
		withDynamic = true
		argv = argv[1:]
	}
	if len(argv) == 0 {
		fmt.Fprintln(os.Stderr, "usage: jupiter run [--with-dynamic] -- <cmd> [args...]")
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

	bus := eventbus.New()
	defer bus.Close()
	r := runner.New(bus, nil, newLogger(globals))

	policy := runner.Policy{
		AllowRun:        cfg.Security.AllowRun,
		AllowedCommands: cfg.Security.AllowedCommands,
		CallerIsAdmin:   true, // the local CLI always runs as the project owner
		LicenseOK:       true, // CLI `run` does not gate on the remote license check
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := r.Run(ctx, policy, argv, withDynamic, nil)
	if err != nil {
		errors.FatalError(err, globals.JSON)
		return exitDomain
	}

	if globals.JSON {
		_ = output.JSON(result)
	} else {
		fmt.Print(result.Stdout)
		fmt.Fprint(os.Stderr, result.Stderr)
	}

	if result.ExitCode != 0 {
		return exitDomain
	}
	return exitOK
}
