// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kraklabs/jupiter/internal/errors"
	"github.com/kraklabs/jupiter/internal/output"
	"github.com/kraklabs/jupiter/internal/plugin"
	"github.com/kraklabs/jupiter/internal/ui"
)

func openBridge(root string, globals GlobalFlags) (*plugin.Bridge, error) {
	cfg, err := loadProjectConfig(root)
	if err != nil {
		return nil, err
	}
	bridge := plugin.New(
		filepath.Join(root, ".jupiter", "plugins"),
		filepath.Join(root, ".jupiter", "audit.log"),
		cfg.Plugins.AllowUnsignedLocalPlugins || cfg.AllowUnsignedLocalPlugins,
		cfg.DeveloperMode,
		nil,
	)
	if err := bridge.Discover(cfg.Plugins.TrustMode); err != nil {
		return nil, err
	}
	return bridge, nil
}

func runPlugins(args []string, globals GlobalFlags) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: jupiter plugins {list|info <id>|reload <id>|install <path>}")
		return exitUsage
	}

	root, err := resolveRoot(globals)
	if err != nil {
		errors.FatalError(err, globals.JSON)
		return exitDomain
	}
	bridge, err := openBridge(root, globals)
	if err != nil {
		errors.FatalError(err, globals.JSON)
		return exitDomain
	}

	switch args[0] {
	case "list":
		regs := bridge.Registrations()
		if globals.JSON {
			_ = output.JSON(regs)
			return exitOK
		}
		for _, r := range regs {
			ui.Infof("%-24s %-10s legacy=%v", r.Manifest.ID, r.Status, r.Legacy)
		}
		return exitOK

	case "info":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: jupiter plugins info <id>")
			return exitUsage
		}
		for _, r := range bridge.Registrations() {
			if r.Manifest.ID == args[1] {
				_ = output.JSON(r)
				return exitOK
			}
		}
		errors.FatalError(errors.NewTaxonomyNotFoundError("plugin not found", args[1], "run 'jupiter plugins list' for known ids"), globals.JSON)
		return exitDomain

	case "reload":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: jupiter plugins reload <id>")
			return exitUsage
		}
		if err := bridge.HotReload(args[1], plugin.Services{}, defaultLoader); err != nil {
			errors.FatalError(err, globals.JSON)
			return exitDomain
		}
		if !globals.Quiet {
			ui.Successf("reloaded plugin %s", args[1])
		}
		return exitOK

	case "install":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: jupiter plugins install <path>")
			return exitUsage
		}
		if err := installPluginDir(args[1], filepath.Join(root, ".jupiter", "plugins")); err != nil {
			errors.FatalError(err, globals.JSON)
			return exitDomain
		}
		if !globals.Quiet {
			ui.Success("plugin installed; run 'jupiter plugins list' to confirm discovery")
		}
		return exitOK

	default:
		fmt.Fprintf(os.Stderr, "jupiter plugins: unknown subcommand %q\n", args[0])
		return exitUsage
	}
}

// installPluginDir copies a local plugin directory (containing a
// plugin.yaml manifest) into the project's plugins directory so the next
// Discover call picks it up.
func installPluginDir(src, pluginsDir string) error {
	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return errors.NewInputError("plugin source must be a directory containing a manifest", src, "pass a directory with plugin.yaml")
	}
	dest := filepath.Join(pluginsDir, filepath.Base(src))
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	return filepath.Walk(src, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if fi.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
