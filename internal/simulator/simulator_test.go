// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package simulator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jupiter/internal/graph"
	"github.com/kraklabs/jupiter/internal/model"
)

// TestSimulateRemove_FileImportChain mirrors the worked example: a.py
// imports b.py, b.py imports c.py. Removing b.py should break a.py's import
// and orphan c.py, with an overall high risk score.
func TestSimulateRemove_FileImportChain(t *testing.T) {
	report := &model.ScanReport{
		Analyses: map[string]model.FileAnalysis{
			"a.py": {Imports: []model.ImportRecord{{Target: "b.py"}}},
			"b.py": {Imports: []model.ImportRecord{{Target: "c.py"}}},
			"c.py": {},
		},
	}
	g := graph.Build(report)

	report2 := SimulateRemove(g, TargetFile, "b.py")
	require.Equal(t, model.RiskHigh, report2.RiskScore)

	var sawBrokenImport, sawOrphaned bool
	for _, impact := range report2.Impacts {
		if impact.Target == "a.py" && impact.ImpactType == model.ImpactBrokenImport {
			sawBrokenImport = true
		}
		if impact.Target == "c.py" && impact.ImpactType == model.ImpactOrphaned {
			sawOrphaned = true
		}
	}
	require.True(t, sawBrokenImport)
	require.True(t, sawOrphaned)
}

func TestSimulateRemove_SymbolDirectCallersOnly(t *testing.T) {
	report := &model.ScanReport{
		Analyses: map[string]model.FileAnalysis{
			"a.py": {
				Symbols: []model.SymbolRecord{
					{FilePath: "a.py", Name: "top", QualifiedName: "top"},
					{FilePath: "a.py", Name: "mid", QualifiedName: "mid"},
					{FilePath: "a.py", Name: "leaf", QualifiedName: "leaf"},
				},
				Calls: []model.CallEdge{
					{CallerSymbolID: "a.py::top", CalleeName: "mid"},
					{CallerSymbolID: "a.py::mid", CalleeName: "leaf"},
				},
			},
		},
	}
	g := graph.Build(report)

	report2 := SimulateRemove(g, TargetSymbol, "a.py::mid")
	require.Len(t, report2.Impacts, 1)
	require.Equal(t, "a.py", report2.Impacts[0].Target)
	require.Equal(t, model.ImpactBrokenCall, report2.Impacts[0].ImpactType)
	require.Equal(t, model.RiskMedium, report2.RiskScore)
}

func TestSimulateRemove_NoImpactIsLowRisk(t *testing.T) {
	g := &model.DependencyGraph{}
	report := SimulateRemove(g, TargetFile, "isolated.py")
	require.Empty(t, report.Impacts)
	require.Equal(t, model.RiskLow, report.RiskScore)
}

// TestSimulateRemove_Monotonicity: removing a file can never yield fewer
// distinct impacted targets than removing any single symbol defined inside
// it, since the file-level removal subsumes every edge touching that file.
func TestSimulateRemove_Monotonicity(t *testing.T) {
	report := &model.ScanReport{
		Analyses: map[string]model.FileAnalysis{
			"a.py": {
				Symbols: []model.SymbolRecord{{FilePath: "a.py", Name: "helper", QualifiedName: "helper"}},
				Calls:   []model.CallEdge{{CallerSymbolID: "a.py::helper", CalleeName: "helper"}},
			},
			"b.py": {
				Imports: []model.ImportRecord{{Target: "a.py"}},
				Calls:   []model.CallEdge{{CallerSymbolID: "b.py::caller", CalleeName: "helper"}},
			},
		},
	}
	g := graph.Build(report)

	fileImpact := SimulateRemove(g, TargetFile, "a.py")
	symbolImpact := SimulateRemove(g, TargetSymbol, "a.py::helper")

	fileTargets := map[string]bool{}
	for _, i := range fileImpact.Impacts {
		fileTargets[i.Target] = true
	}
	for _, i := range symbolImpact.Impacts {
		require.True(t, fileTargets[i.Target], "file-level removal must cover every target a symbol-level removal affects")
	}
}
