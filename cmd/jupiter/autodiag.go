// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"os"
	"path/filepath"

	"github.com/kraklabs/jupiter/internal/errors"
	"github.com/kraklabs/jupiter/internal/output"
	"github.com/kraklabs/jupiter/internal/ui"
)

type diagCheck struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
	Note string `json:"note,omitempty"`
}

// runAutodiag runs a handful of self-diagnostic checks against the
// project root: writable .jupiter/cache, .jupiter/snapshots and
// .jupiter/plugins directories, and a loadable project config. The
// .jupiterignore file is not checked.
func runAutodiag(args []string, globals GlobalFlags) int {
	root, err := resolveRoot(globals)
	if err != nil {
		errors.FatalError(err, globals.JSON)
		return exitDomain
	}

	var checks []diagCheck
	checks = append(checks, checkWritableDir(root, ".jupiter/cache"))
	checks = append(checks, checkWritableDir(root, ".jupiter/snapshots"))
	checks = append(checks, checkWritableDir(root, ".jupiter/plugins"))

	if _, err := loadProjectConfig(root); err != nil {
		checks = append(checks, diagCheck{Name: "project config", OK: false, Note: err.Error()})
	} else {
		checks = append(checks, diagCheck{Name: "project config", OK: true})
	}

	allOK := true
	for _, c := range checks {
		if !c.OK {
			allOK = false
		}
	}

	if globals.JSON {
		_ = output.JSON(map[string]any{"checks": checks, "ok": allOK})
	} else {
		for _, c := range checks {
			if c.OK {
				ui.Successf("%s: ok", c.Name)
			} else {
				ui.Errorf("%s: %s", c.Name, c.Note)
			}
		}
	}

	if !allOK {
		return exitDomain
	}
	return exitOK
}

func checkWritableDir(root, rel string) diagCheck {
	dir := filepath.Join(root, rel)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return diagCheck{Name: rel, OK: false, Note: err.Error()}
	}
	probe := filepath.Join(dir, ".autodiag_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return diagCheck{Name: rel, OK: false, Note: err.Error()}
	}
	_ = os.Remove(probe)
	return diagCheck{Name: rel, OK: true}
}
