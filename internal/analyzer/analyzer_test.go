// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jupiter/internal/model"
)

func TestAnalyze_DecoratorFalsePositive(t *testing.T) {
	report := &model.ScanReport{
		Files: []model.FileRecord{{Path: "h.py"}},
		Analyses: map[string]model.FileAnalysis{
			"h.py": {Symbols: []model.SymbolRecord{{
				FilePath: "h.py", Name: "get_h", QualifiedName: "get_h",
				DecoratorTags: []string{"router.get"},
			}}},
		},
	}

	summary := Analyze(report, 10)
	require.Len(t, summary.FunctionUsageDetails, 1)
	require.Equal(t, model.UsageLikelyUsed, summary.FunctionUsageDetails[0].Status)
	require.Equal(t, 0.95, summary.FunctionUsageDetails[0].Confidence)
}

func TestAnalyze_UsedBeatsDecorator(t *testing.T) {
	report := &model.ScanReport{
		Analyses: map[string]model.FileAnalysis{
			"a.py": {
				Symbols: []model.SymbolRecord{{FilePath: "a.py", Name: "helper", QualifiedName: "helper", DecoratorTags: []string{"router.get"}}},
				Calls:   []model.CallEdge{{CalleeName: "helper", Resolution: model.CallResolved}},
			},
		},
	}
	summary := Analyze(report, 10)
	require.Equal(t, model.UsageUsed, summary.FunctionUsageDetails[0].Status)
	require.Equal(t, 1.0, summary.FunctionUsageDetails[0].Confidence)
}

func TestAnalyze_DeterministicOrdering(t *testing.T) {
	report := &model.ScanReport{
		Files: []model.FileRecord{{Path: "b.py", SizeBytes: 10}, {Path: "a.py", SizeBytes: 10}},
	}
	summary := Analyze(report, 10)
	require.Equal(t, "a.py", summary.TopLargestFiles[0].Path)
	require.Equal(t, "b.py", summary.TopLargestFiles[1].Path)
}
