// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package python

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jupiter/internal/lang"
)

func TestAnalyzer_DecoratorFalsePositiveAvoided(t *testing.T) {
	src := []byte("@router.get(\"/x\")\ndef get_h():\n    pass\n")
	a := New(nil)

	analysis, err := a.Analyze(lang.FileInput{Path: "h.py", Bytes: src})
	require.NoError(t, err)
	require.Len(t, analysis.Symbols, 1)
	require.Equal(t, "get_h", analysis.Symbols[0].Name)
	require.Equal(t, []string{"router.get"}, analysis.Symbols[0].DecoratorTags)
}

func TestAnalyzer_ClassMethodsQualifiedName(t *testing.T) {
	src := []byte("class Foo:\n    def bar(self):\n        pass\n")
	a := New(nil)

	analysis, err := a.Analyze(lang.FileInput{Path: "f.py", Bytes: src})
	require.NoError(t, err)
	require.Len(t, analysis.Symbols, 2)

	found := false
	for _, s := range analysis.Symbols {
		if s.Name == "bar" {
			require.Equal(t, "Foo.bar", s.QualifiedName)
			found = true
		}
	}
	require.True(t, found)
}

func TestAnalyzer_ComplexityCountsBranches(t *testing.T) {
	src := []byte("def f(x):\n    if x:\n        pass\n    elif x:\n        pass\n    for i in range(3):\n        pass\n    return x and x or x\n")
	a := New(nil)

	analysis, err := a.Analyze(lang.FileInput{Path: "c.py", Bytes: src})
	require.NoError(t, err)
	require.Len(t, analysis.Symbols, 1)
	require.GreaterOrEqual(t, analysis.Symbols[0].CyclomaticComplexity, 5)
}

func TestAnalyzer_DynamicRegistration(t *testing.T) {
	src := []byte("def build(parser):\n    parser.set_defaults(func=run)\n")
	a := New(nil)

	analysis, err := a.Analyze(lang.FileInput{Path: "cli.py", Bytes: src})
	require.NoError(t, err)
	require.True(t, analysis.Symbols[0].DynamicallyRegistered)
}

func TestAnalyzer_Imports(t *testing.T) {
	src := []byte("import os\nfrom typing import List\n")
	a := New(nil)

	analysis, err := a.Analyze(lang.FileInput{Path: "i.py", Bytes: src})
	require.NoError(t, err)
	require.Len(t, analysis.Imports, 2)
}
