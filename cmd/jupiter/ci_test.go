// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jupiter/internal/config"
	"github.com/kraklabs/jupiter/internal/model"
)

func TestGateSummary_PassesWithinThresholds(t *testing.T) {
	cfg := config.Default()
	cfg.CI = config.CIConfig{MaxComplexity: 20, MaxDuplicationRatio: 0.1, FailOnUnused: false}

	summary := model.AnalysisSummary{
		ComplexityHotspots:  []model.Hotspot{{Path: "a.go", Metric: "cyclomatic", Value: 5}},
		DuplicationHotspots: []model.Hotspot{{Path: "b.go", Metric: "duplication_ratio", Value: 0.02}},
		UsageSummary:        map[model.UsageStatus]int{model.UsageUnused: 3},
	}

	result := gateSummary(summary, cfg)
	require.True(t, result.Pass)
	assert.Empty(t, result.GatesExceeded)
}

func TestGateSummary_FlagsComplexityAndDuplicationBreaches(t *testing.T) {
	cfg := config.Default()
	cfg.CI = config.CIConfig{MaxComplexity: 10, MaxDuplicationRatio: 0.05, FailOnUnused: false}

	summary := model.AnalysisSummary{
		ComplexityHotspots:  []model.Hotspot{{Path: "a.go", Metric: "cyclomatic", Value: 25}},
		DuplicationHotspots: []model.Hotspot{{Path: "b.go", Metric: "duplication_ratio", Value: 0.4}},
	}

	result := gateSummary(summary, cfg)
	require.False(t, result.Pass)
	require.Len(t, result.GatesExceeded, 2)
	assert.Equal(t, "max_complexity", result.GatesExceeded[0].Gate)
	assert.Equal(t, "max_duplication_ratio", result.GatesExceeded[1].Gate)
}

func TestGateSummary_FailOnUnused(t *testing.T) {
	cfg := config.Default()
	cfg.CI = config.CIConfig{FailOnUnused: true}

	summary := model.AnalysisSummary{
		UsageSummary: map[model.UsageStatus]int{model.UsageUnused: 2},
	}

	result := gateSummary(summary, cfg)
	require.False(t, result.Pass)
	require.Len(t, result.GatesExceeded, 1)
	assert.Equal(t, "fail_on_unused", result.GatesExceeded[0].Gate)
	assert.Equal(t, float64(2), result.GatesExceeded[0].Actual)
}

func TestGateSummary_ZeroThresholdsDisableGate(t *testing.T) {
	cfg := config.Default()
	cfg.CI = config.CIConfig{MaxComplexity: 0, MaxDuplicationRatio: 0, FailOnUnused: false}

	summary := model.AnalysisSummary{
		ComplexityHotspots: []model.Hotspot{{Path: "a.go", Metric: "cyclomatic", Value: 1000}},
	}

	result := gateSummary(summary, cfg)
	assert.True(t, result.Pass)
}
