// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main implements the Jupiter CLI: project introspection — scan,
// analyze, simulate removal, snapshot history, run with tracing, and serve
// the HTTP+WebSocket API. Plugin-contributed verbs mount under
// p:<plugin_id>:<verb>.
//
// Usage:
//
//	jupiter scan [--incremental] [--json]
//	jupiter analyze [--top N]
//	jupiter ci
//	jupiter snapshots {list|show|diff}
//	jupiter simulate remove <target>
//	jupiter run -- <cmd> [args...]
//	jupiter watch
//	jupiter server
//	jupiter license check
//	jupiter plugins {list|info|reload|install}
//	jupiter update
//	jupiter autodiag
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// CLI exit codes per §4.17: 0 success, 1 domain failure (including CI
// threshold breach), 2 bad usage, 3 connector/network error.
const (
	exitOK        = 0
	exitDomain    = 1
	exitUsage     = 2
	exitConnector = 3
)

// GlobalFlags are the flags accepted before the verb and threaded into
// every subcommand.
type GlobalFlags struct {
	Root        string
	JSON        bool
	Quiet       bool
	NoColor     bool
	Verbose     int
	NoCache     bool
	Incremental bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("jupiter", flag.ContinueOnError)
	var globals GlobalFlags
	fs.StringVar(&globals.Root, "root", ".", "Project root directory")
	fs.BoolVar(&globals.JSON, "json", false, "Emit machine-readable JSON to stdout")
	fs.BoolVarP(&globals.Quiet, "quiet", "q", false, "Suppress human-readable progress output")
	fs.BoolVar(&globals.NoColor, "no-color", false, "Disable colored output")
	fs.CountVarP(&globals.Verbose, "verbose", "v", "Increase log verbosity")
	fs.BoolVar(&globals.NoCache, "no-cache", false, "Bypass the per-project cache store")
	fs.BoolVar(&globals.Incremental, "incremental", false, "Scan only files changed since the last run")
	showVersion := fs.Bool("version", false, "Show version and exit")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usageText)
	}

	if err := fs.Parse(argv); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}

	if *showVersion {
		fmt.Printf("jupiter version %s (commit %s, built %s)\n", version, commit, date)
		return exitOK
	}

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		return exitUsage
	}

	command, rest := args[0], args[1:]

	handler, ok := dispatchTable[command]
	if !ok {
		if len(command) > 2 && command[:2] == "p:" {
			return dispatchPlugin(command, rest, globals)
		}
		fmt.Fprintf(os.Stderr, "jupiter: unknown command %q\n", command)
		fs.Usage()
		return exitUsage
	}
	return handler(rest, globals)
}

type verbHandler func(args []string, globals GlobalFlags) int

var dispatchTable = map[string]verbHandler{
	"scan":      runScan,
	"analyze":   runAnalyze,
	"ci":        runCI,
	"snapshots": runSnapshots,
	"simulate":  runSimulate,
	"run":       runRunCommand,
	"watch":     runWatch,
	"server":    runServer,
	"gui":       runGUI,
	"license":   runLicense,
	"plugins":   runPlugins,
	"update":    runUpdate,
	"autodiag":  runAutodiag,
}

const usageText = `Jupiter - project introspection server and CLI

Usage:
  jupiter <command> [options]

Commands:
  scan              Walk the project and produce a ScanReport
  analyze           Scan then aggregate into an AnalysisSummary
  ci                Analyze and gate on the configured CI thresholds
  snapshots         list | show <id> | diff <before> <after>
  simulate remove   Predict the impact of removing a file or symbol
  run -- <cmd>      Execute a command under policy, optionally with tracing
  watch             Re-scan on filesystem changes, streaming diffs
  server            Start the HTTP+WebSocket API facade
  gui               Start the server and open the web UI
  license check     Query current license status
  plugins           list | info | reload | install
  update            Show version, commit and build date
  autodiag          Run environment/self-diagnostics

Global Options:
  --root string      Project root directory (default ".")
  --json             Emit machine-readable JSON
  -q, --quiet        Suppress progress output
  --no-color         Disable colored output
  -v, --verbose      Increase log verbosity (repeatable)
  --no-cache         Bypass the cache store
  --incremental      Scan only changed files
  --version          Show version and exit

Exit codes: 0 success, 1 domain failure (including CI threshold breach),
2 bad usage, 3 connector/network error.
`
