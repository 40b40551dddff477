// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jupiter/internal/model"
)

func TestBuild_ResolvesCallWithinSameFile(t *testing.T) {
	report := &model.ScanReport{
		Analyses: map[string]model.FileAnalysis{
			"a.py": {
				Symbols: []model.SymbolRecord{
					{FilePath: "a.py", Name: "f", QualifiedName: "f"},
					{FilePath: "a.py", Name: "g", QualifiedName: "g"},
				},
				Calls: []model.CallEdge{{CallerSymbolID: "a.py::f", CalleeName: "g"}},
			},
		},
	}

	g := Build(report)
	var found bool
	for _, e := range g.Edges {
		if e.Kind == model.EdgeCalls {
			require.Equal(t, model.CallResolved, e.Resolution)
			found = true
		}
	}
	require.True(t, found)
}

func TestBuild_UnresolvedCallKeptAsEdge(t *testing.T) {
	report := &model.ScanReport{
		Analyses: map[string]model.FileAnalysis{
			"a.py": {
				Symbols: []model.SymbolRecord{{FilePath: "a.py", Name: "f", QualifiedName: "f"}},
				Calls:   []model.CallEdge{{CallerSymbolID: "a.py::f", CalleeName: "mystery"}},
			},
		},
	}
	g := Build(report)
	require.Len(t, g.Edges, 2) // one contains edge, one unresolved calls edge
}

func TestCapNodes_DropsLeastConnectedFirst(t *testing.T) {
	g := &model.DependencyGraph{
		Nodes: []model.GraphNode{
			{ID: "a", Path: "a", DegreeIn: 5, DegreeOut: 0},
			{ID: "b", Path: "b", DegreeIn: 0, DegreeOut: 0},
			{ID: "c", Path: "c", DegreeIn: 1, DegreeOut: 1},
		},
	}
	out := capNodes(g, 2)
	require.Len(t, out.Nodes, 2)
	for _, n := range out.Nodes {
		require.NotEqual(t, "b", n.ID)
	}
}
