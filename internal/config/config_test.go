// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.jupiter.yaml")
	cfg := Default()
	cfg.Server.Port = 9999
	cfg.DeveloperMode = true

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9999, loaded.Server.Port)
	require.True(t, loaded.DeveloperMode)
}

func TestProjectConfigPath_UsesRootBasename(t *testing.T) {
	require.Equal(t, "/tmp/myproj/myproj.jupiter.yaml", ProjectConfigPath("/tmp/myproj"))
}

func TestProjectsRegistry_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	entries := []ProjectEntry{{ID: "p1", DisplayName: "One", RootPathOrURL: "/tmp/one", ConnectorKind: "local"}}
	require.NoError(t, SaveProjectsRegistry(path, entries))

	loaded, err := LoadProjectsRegistry(path)
	require.NoError(t, err)
	require.Equal(t, entries, loaded)
}

func TestProjectsRegistry_MissingFileReturnsEmpty(t *testing.T) {
	loaded, err := LoadProjectsRegistry(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	require.Nil(t, loaded)
}
