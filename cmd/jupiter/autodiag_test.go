// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckWritableDir_CreatesAndProbesDir(t *testing.T) {
	root := t.TempDir()

	check := checkWritableDir(root, ".jupiter/cache")
	require.True(t, check.OK, check.Note)
	assert.Equal(t, ".jupiter/cache", check.Name)

	info, err := os.Stat(filepath.Join(root, ".jupiter", "cache"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = os.Stat(filepath.Join(root, ".jupiter", "cache", ".autodiag_probe"))
	assert.True(t, os.IsNotExist(err), "probe file should be removed after the check")
}

func TestCheckWritableDir_FailsWhenParentIsAFile(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	check := checkWritableDir(root, "blocked/cache")
	assert.False(t, check.OK)
	assert.NotEmpty(t, check.Note)
}
