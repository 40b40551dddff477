// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jupiter/internal/model"
)

func TestStore_PutFlushReload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".jupiter", "cache")
	s := New(dir, nil, nil)

	analysis := model.FileAnalysis{Path: "a.py", ScanFingerprint: "fp1", LanguageTag: "python"}
	s.Put("a.py", "fp1", analysis)
	require.NoError(t, s.Flush())

	reloaded := New(dir, nil, nil)
	fp, ok := reloaded.Fingerprint("a.py")
	require.True(t, ok)
	require.Equal(t, "fp1", fp)

	got, ok := reloaded.Analysis("a.py", "fp1")
	require.True(t, ok)
	require.Equal(t, "python", got.LanguageTag)
}

func TestStore_FingerprintMismatchMisses(t *testing.T) {
	s := New(t.TempDir(), nil, nil)
	s.Put("a.py", "fp1", model.FileAnalysis{Path: "a.py"})

	_, ok := s.Analysis("a.py", "fp2")
	require.False(t, ok, "changed fingerprint must never reuse the stale analysis")
}

func TestStore_VolatileExtensionsNeverWritten(t *testing.T) {
	s := New(t.TempDir(), nil, nil)
	s.Put("debug.log", "fp1", model.FileAnalysis{Path: "debug.log"})

	_, ok := s.Analysis("debug.log", "fp1")
	require.False(t, ok)
}

func TestStore_InvalidatePath(t *testing.T) {
	s := New(t.TempDir(), nil, nil)
	s.Put("a.py", "fp1", model.FileAnalysis{Path: "a.py"})
	s.InvalidatePath("a.py")

	_, ok := s.Fingerprint("a.py")
	require.False(t, ok)
	_, ok = s.Analysis("a.py", "fp1")
	require.False(t, ok)
}
