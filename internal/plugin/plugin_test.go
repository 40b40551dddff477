// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jupiter/internal/model"
)

func writeManifest(t *testing.T, root, id, yamlBody string) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte(yamlBody), 0o644))
}

func TestDiscover_ValidManifestBecomesDiscovered(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "alpha", "id: alpha\ntype: tool\npermissions: [fs_read]\n")

	b := New(root, filepath.Join(root, "audit.log"), true, false, nil)
	require.NoError(t, b.Discover("permissive"))

	regs := b.Registrations()
	require.Len(t, regs, 1)
	require.Equal(t, model.PluginDiscovered, regs[0].Status)
}

func TestDiscover_DependencyCycleMarkedError(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "a", "id: a\ntype: tool\ndependencies:\n  - plugin_id: b\n    version_range: \">=1\"\n")
	writeManifest(t, root, "b", "id: b\ntype: tool\ndependencies:\n  - plugin_id: a\n    version_range: \">=1\"\n")

	b := New(root, filepath.Join(root, "audit.log"), true, false, nil)
	require.NoError(t, b.Discover("permissive"))

	regs := b.Registrations()
	for _, r := range regs {
		require.Equal(t, model.PluginError, r.Status)
		require.Equal(t, "cycle", r.ErrorReason)
	}
}

func TestDiscover_StrictModeRefusesCommunityTrust(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "untrusted", "id: untrusted\ntype: tool\ntrust_level: community\n")

	b := New(root, filepath.Join(root, "audit.log"), false, false, nil)
	require.NoError(t, b.Discover("strict"))

	regs := b.Registrations()
	require.Len(t, regs, 1)
	require.Equal(t, model.PluginError, regs[0].Status)
}

func TestRegister_DuplicateVerbRefused(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "first", "id: first\ntype: tool\n")
	writeManifest(t, root, "second", "id: second\ntype: tool\n")

	b := New(root, filepath.Join(root, "audit.log"), true, false, nil)
	require.NoError(t, b.Discover("permissive"))
	b.Initialize(Services{}, func(dir string, m model.PluginManifest) (Initializer, error) {
		return noopInitializer{}, nil
	})

	require.NoError(t, b.Register("first", []string{"scan"}, "", nil))
	err := b.Register("second", []string{"scan"}, "", nil)
	require.Error(t, err)
}

func TestHotReload_RefusedWithoutDeveloperMode(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "alpha", "id: alpha\ntype: tool\n")
	b := New(root, filepath.Join(root, "audit.log"), true, false, nil)
	require.NoError(t, b.Discover("permissive"))

	err := b.HotReload("alpha", Services{}, func(dir string, m model.PluginManifest) (Initializer, error) {
		return noopInitializer{}, nil
	})
	require.Error(t, err)
}

func TestHotReload_RefusedWithNonTerminalJob(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "alpha", "id: alpha\ntype: tool\n")
	b := New(root, filepath.Join(root, "audit.log"), true, true, func(id string) bool { return true })
	require.NoError(t, b.Discover("permissive"))

	err := b.HotReload("alpha", Services{}, func(dir string, m model.PluginManifest) (Initializer, error) {
		return noopInitializer{}, nil
	})
	require.Error(t, err)
}

func TestAdoptLegacy_DispatchesScanAndAnalyze(t *testing.T) {
	b := New(t.TempDir(), filepath.Join(t.TempDir(), "audit.log"), true, false, nil)
	spy := &legacySpy{}
	b.AdoptLegacy("legacy-tool", spy)

	b.DispatchScan(&model.ScanReport{ProjectRoot: "/x"})
	b.DispatchAnalyze(model.AnalysisSummary{FileCount: 3})

	require.True(t, spy.sawScan)
	require.True(t, spy.sawAnalyze)

	regs := b.Registrations()
	require.Len(t, regs, 1)
	require.True(t, regs[0].Legacy)
}

func TestAudit_AppendsLine(t *testing.T) {
	root := t.TempDir()
	auditPath := filepath.Join(root, "audit.log")
	b := New(root, auditPath, true, false, nil)

	require.NoError(t, b.Audit(AuditEntry{Role: "admin", TokenID: "t1", Action: "install", Target: "alpha", Result: "ok"}))
	data, err := os.ReadFile(auditPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "install")
}

type noopInitializer struct{}

func (noopInitializer) Init(Services) error { return nil }
func (noopInitializer) Shutdown() error     { return nil }

type legacySpy struct {
	sawScan, sawAnalyze bool
}

func (s *legacySpy) OnScan(*model.ScanReport)             { s.sawScan = true }
func (s *legacySpy) OnAnalyze(model.AnalysisSummary) { s.sawAnalyze = true }
