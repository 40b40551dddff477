// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"github.com/kraklabs/jupiter/internal/output"
	"github.com/kraklabs/jupiter/internal/ui"
)

// runUpdate reports the running version; self-replacement of the CLI
// binary is left to the user's package manager rather than reimplemented
// here.
func runUpdate(args []string, globals GlobalFlags) int {
	info := map[string]string{"version": version, "commit": commit, "built": date}
	if globals.JSON {
		_ = output.JSON(info)
		return exitOK
	}
	ui.Infof("jupiter %s (commit %s, built %s)", version, commit, date)
	ui.Info("use your package manager to install the latest release")
	return exitOK
}
