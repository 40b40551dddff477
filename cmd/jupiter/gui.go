// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/kraklabs/jupiter/internal/ui"
)

// runGUI starts the server then opens the web UI in the system's default
// browser, pointed at the configured host/port.
func runGUI(args []string, globals GlobalFlags) int {
	root, err := resolveRoot(globals)
	if err != nil {
		ui.Errorf("%v", err)
		return exitDomain
	}
	cfg, err := loadProjectConfig(root)
	if err != nil {
		ui.Errorf("%v", err)
		return exitDomain
	}

	url := fmt.Sprintf("http://%s:%d/", cfg.Server.Host, cfg.Server.Port)
	go openBrowser(url)

	return runServer(args, globals)
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
