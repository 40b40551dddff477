// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jupiter/internal/model"
)

func TestStore_CreateListLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	report := &model.ScanReport{
		ProjectRoot:    "/proj",
		CreatedAt:      time.Now(),
		JupiterVersion: "0.1.0",
		Files:          []model.FileRecord{{Path: "a.py", SizeBytes: 100}},
	}

	meta, err := s.CreateSnapshot(report, "before", 1000)
	require.NoError(t, err)
	require.Equal(t, "scan-1000", meta.ID)
	require.Equal(t, 1, meta.FileCount)

	metas, err := s.ListSnapshots()
	require.NoError(t, err)
	require.Len(t, metas, 1)

	loaded, err := s.LoadSnapshot(meta.ID)
	require.NoError(t, err)
	require.Equal(t, "/proj", loaded.ProjectRoot)
}

func TestStore_CollisionGetsNumericSuffix(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	report := &model.ScanReport{JupiterVersion: "0.1.0"}

	first, err := s.CreateSnapshot(report, "", 2000)
	require.NoError(t, err)
	second, err := s.CreateSnapshot(report, "", 2000)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, "scan-2000-1", second.ID)
}

func TestDiffReports_RoundTrip(t *testing.T) {
	before := &model.ScanReport{
		Files: []model.FileRecord{
			{Path: "a.py", SizeBytes: 10, ContentHash: "h1"},
			{Path: "b.py", SizeBytes: 20, ContentHash: "h2"},
		},
		Analyses: map[string]model.FileAnalysis{
			"a.py": {Symbols: []model.SymbolRecord{{FilePath: "a.py", QualifiedName: "foo"}}},
		},
	}
	after := &model.ScanReport{
		Files: []model.FileRecord{
			{Path: "a.py", SizeBytes: 15, ContentHash: "h1-changed"},
			{Path: "c.py", SizeBytes: 30, ContentHash: "h3"},
		},
		Analyses: map[string]model.FileAnalysis{
			"a.py": {Symbols: []model.SymbolRecord{{FilePath: "a.py", QualifiedName: "bar"}}},
		},
	}

	diff := DiffReports(before, after)
	require.Len(t, diff.FilesAdded, 1)
	require.Equal(t, "c.py", diff.FilesAdded[0].Path)
	require.Len(t, diff.FilesRemoved, 1)
	require.Equal(t, "b.py", diff.FilesRemoved[0].Path)
	require.Len(t, diff.FilesModified, 1)
	require.Equal(t, "a.py", diff.FilesModified[0].Path)
	require.Contains(t, diff.FunctionsAdded, "a.py::bar")
	require.Contains(t, diff.FunctionsRemoved, "a.py::foo")
	require.Equal(t, 0, diff.MetricsDelta.FileCount)
}
