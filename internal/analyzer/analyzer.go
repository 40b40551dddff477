// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package analyzer implements the C5 analyzer: it aggregates a ScanReport
// into an AnalysisSummary, covering counts, size totals, top-N largest
// files, complexity/duplication hotspots, and per-symbol usage
// classification via the §3 confidence table (internal/lang.Classify). All
// ranked lists are sorted deterministically: primarily by descending
// metric, secondarily by path ascending, tertiarily by symbol name
// ascending, matching the ingestion pipeline's field-by-field aggregation
// style in IngestionResult.
package analyzer

import (
	"sort"

	"github.com/kraklabs/jupiter/internal/lang"
	"github.com/kraklabs/jupiter/internal/model"
)

// Analyze aggregates report into an AnalysisSummary, keeping the top topN
// entries in each ranked list.
func Analyze(report *model.ScanReport, topN int) model.AnalysisSummary {
	if topN <= 0 {
		topN = 10
	}

	summary := model.AnalysisSummary{
		FileCount:    len(report.Files),
		UsageSummary: map[model.UsageStatus]int{},
	}
	for _, f := range report.Files {
		summary.TotalSizeBytes += f.SizeBytes
	}

	summary.TopLargestFiles = topLargestFiles(report.Files, topN)
	summary.ComplexityHotspots = complexityHotspots(report, topN)
	summary.DuplicationHotspots = duplicationHotspots(report, topN)
	summary.FunctionUsageDetails = usageDetails(report)

	for _, d := range summary.FunctionUsageDetails {
		summary.UsageSummary[d.Status]++
	}

	return summary
}

func topLargestFiles(files []model.FileRecord, topN int) []model.FileRecord {
	sorted := make([]model.FileRecord, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].SizeBytes != sorted[j].SizeBytes {
			return sorted[i].SizeBytes > sorted[j].SizeBytes
		}
		return sorted[i].Path < sorted[j].Path
	})
	if len(sorted) > topN {
		sorted = sorted[:topN]
	}
	return sorted
}

func complexityHotspots(report *model.ScanReport, topN int) []model.Hotspot {
	var hotspots []model.Hotspot
	for path, fa := range report.Analyses {
		for _, sym := range fa.Symbols {
			hotspots = append(hotspots, model.Hotspot{
				Path: path, SymbolName: sym.Name, Metric: "complexity",
				Value: float64(sym.CyclomaticComplexity),
			})
		}
	}
	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].Value != hotspots[j].Value {
			return hotspots[i].Value > hotspots[j].Value
		}
		if hotspots[i].Path != hotspots[j].Path {
			return hotspots[i].Path < hotspots[j].Path
		}
		return hotspots[i].SymbolName < hotspots[j].SymbolName
	})
	if len(hotspots) > topN {
		hotspots = hotspots[:topN]
	}
	return hotspots
}

// duplicationHotspots groups every file's duplication fingerprints by hash
// across the whole report, producing one Hotspot per file that participates
// in a cluster of 2 or more windows, with Value = cluster size.
func duplicationHotspots(report *model.ScanReport, topN int) []model.Hotspot {
	type occurrence struct {
		path      string
		startLine int
	}
	clusters := map[uint64][]occurrence{}
	for path, fa := range report.Analyses {
		for _, fp := range fa.Duplication {
			clusters[fp.Hash] = append(clusters[fp.Hash], occurrence{path: path, startLine: fp.StartLine})
		}
	}

	perFileMax := map[string]int{}
	for _, occs := range clusters {
		if len(occs) < 2 {
			continue
		}
		for _, o := range occs {
			if len(occs) > perFileMax[o.path] {
				perFileMax[o.path] = len(occs)
			}
		}
	}

	var hotspots []model.Hotspot
	for path, size := range perFileMax {
		hotspots = append(hotspots, model.Hotspot{Path: path, Metric: "duplication_cluster_size", Value: float64(size)})
	}
	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].Value != hotspots[j].Value {
			return hotspots[i].Value > hotspots[j].Value
		}
		return hotspots[i].Path < hotspots[j].Path
	})
	if len(hotspots) > topN {
		hotspots = hotspots[:topN]
	}
	return hotspots
}

func usageDetails(report *model.ScanReport) []model.FunctionUsageDetail {
	calleeNames := map[string]bool{}
	for _, fa := range report.Analyses {
		for _, c := range fa.Calls {
			calleeNames[c.CalleeName] = true
		}
	}

	var details []model.FunctionUsageDetail
	for path, fa := range report.Analyses {
		for _, sym := range fa.Symbols {
			status, confidence := lang.Classify(sym, calleeNames[sym.Name])
			details = append(details, model.FunctionUsageDetail{
				SymbolID: sym.ID(), Path: path, Name: sym.Name,
				Status: status, Confidence: confidence,
			})
		}
	}
	sort.Slice(details, func(i, j int) bool {
		if details[i].Path != details[j].Path {
			return details[i].Path < details[j].Path
		}
		return details[i].Name < details[j].Name
	})
	return details
}
