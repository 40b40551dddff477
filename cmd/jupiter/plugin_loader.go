// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"path/filepath"

	"github.com/kraklabs/jupiter/internal/model"
	"github.com/kraklabs/jupiter/internal/plugin"
)

// subprocessPlugin is the cooperative, permission-based Initializer for a
// manifest-declared plugin. Init only checks that the declared init
// entrypoint file exists; no entrypoint is executed, and Shutdown does
// nothing. There is no OS-level sandboxing (see spec Non-goals); isolation is
// limited to the permission checks HasPermission enforces before dispatch.
type subprocessPlugin struct {
	dir      string
	manifest model.PluginManifest
}

func (p *subprocessPlugin) Init(services plugin.Services) error {
	if p.manifest.Entrypoints.Init == "" {
		return nil
	}
	path := filepath.Join(p.dir, p.manifest.Entrypoints.Init)
	if !fileExists(path) {
		return fmt.Errorf("init entrypoint %q not found in %s", p.manifest.Entrypoints.Init, p.dir)
	}
	return nil
}

func (p *subprocessPlugin) Shutdown() error {
	return nil
}

// defaultLoader builds the subprocess-backed Initializer for a discovered
// plugin directory and manifest.
func defaultLoader(dir string, m model.PluginManifest) (plugin.Initializer, error) {
	return &subprocessPlugin{dir: dir, manifest: m}, nil
}
