// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package jsts

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jupiter/internal/lang"
)

func TestAnalyzer_FunctionDeclarations(t *testing.T) {
	src := []byte("export function add(a, b) {\n  if (a) { return a + b; }\n  return 0;\n}\n")
	a := New()

	analysis, err := a.Analyze(lang.FileInput{Path: "m.js", Bytes: src})
	require.NoError(t, err)
	require.Len(t, analysis.Symbols, 1)
	require.Equal(t, "add", analysis.Symbols[0].Name)
	require.Contains(t, analysis.Symbols[0].DecoratorTags, "export")
}

func TestAnalyzer_ArrowFunctionAndClass(t *testing.T) {
	src := []byte("const handler = (req, res) => {\n  res.send('ok');\n};\n\nclass Widget {}\n")
	a := New()

	analysis, err := a.Analyze(lang.FileInput{Path: "w.ts", Bytes: src})
	require.NoError(t, err)
	names := map[string]bool{}
	for _, s := range analysis.Symbols {
		names[s.Name] = true
	}
	require.True(t, names["handler"])
	require.True(t, names["Widget"])
}

func TestAnalyzer_Imports(t *testing.T) {
	src := []byte("import { foo } from 'bar';\nconst x = require('./local');\n")
	a := New()

	analysis, err := a.Analyze(lang.FileInput{Path: "i.js", Bytes: src})
	require.NoError(t, err)
	targets := map[string]bool{}
	for _, imp := range analysis.Imports {
		targets[imp.Target] = true
	}
	require.True(t, targets["bar"])
	require.True(t, targets["./local"])
}

func TestAnalyzer_StringsDoNotProduceFalseCalls(t *testing.T) {
	src := []byte("function f() {\n  const s = \"not_a_call(\";\n  return s;\n}\n")
	a := New()

	analysis, err := a.Analyze(lang.FileInput{Path: "s.js", Bytes: src})
	require.NoError(t, err)
	for _, c := range analysis.Calls {
		require.NotEqual(t, "not_a_call", c.CalleeName)
	}
}
