// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchesGlob_BasicPatterns(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		pattern string
		want    bool
	}{
		{"exact match", "foo.go", "foo.go", true},
		{"exact no match", "foo.go", "bar.go", false},
		{"star prefix", "foo.go", "*.go", true},
		{"star no match ext", "foo.txt", "*.go", false},
		{"doublestar prefix any depth", "a/b/c/foo.go", "**/*.go", true},
		{"doublestar suffix", "node_modules/pkg/index.js", "node_modules/**", true},
		{"question single", "foo.go", "fo?.go", true},
		{"char range match", "file1.go", "file[0-9].go", true},
		{"negated class match", "foo.go", "foo.[!ab]o", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, matchesGlob(tt.path, tt.pattern))
		})
	}
}

func TestEngine_ShouldIgnore_NegationOrdering(t *testing.T) {
	e := New([]string{"*.log"}, nil)
	e.addLine("build/")
	e.addLine("!build/keep.txt")

	require.True(t, e.ShouldIgnore("debug.log"))
	require.True(t, e.ShouldIgnore("build/output.o"))
	require.False(t, e.ShouldIgnore("build/keep.txt"), "later negation must override earlier exclude")
	require.False(t, e.ShouldIgnore("main.go"))
}

func TestEngine_LoadProjectFile_SkipsMalformedAndComments(t *testing.T) {
	dir := t.TempDir()
	ignorePath := filepath.Join(dir, ".jupiterignore")
	writeFile(t, ignorePath, "# comment\n\n*.tmp\n!\nvendor/**\n")

	e := New(nil, nil)
	require.NoError(t, e.LoadProjectFile(ignorePath))

	require.True(t, e.ShouldIgnore("a.tmp"))
	require.True(t, e.ShouldIgnore("vendor/pkg/x.go"))
	require.False(t, e.ShouldIgnore("main.go"))
}

func TestEngine_LoadProjectFile_MissingIsNotError(t *testing.T) {
	e := New(nil, nil)
	require.NoError(t, e.LoadProjectFile(filepath.Join(t.TempDir(), "missing")))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
