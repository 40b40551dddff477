// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package history implements the C8 history store: create_snapshot,
// list_snapshots, load_snapshot, and diff, persisting one metadata file and
// one report file per snapshot under <project>/.jupiter/snapshots/, written
// with the same write-to-temp-then-rename idiom as internal/cache.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kraklabs/jupiter/internal/model"
)

// Store is the on-disk per-project snapshot history.
type Store struct {
	dir string
}

// New creates a Store rooted at <project>/.jupiter/snapshots.
func New(snapshotsDir string) *Store {
	return &Store{dir: snapshotsDir}
}

func (s *Store) metaPath(id string) string   { return filepath.Join(s.dir, id+".meta.json") }
func (s *Store) reportPath(id string) string { return filepath.Join(s.dir, id+".report.json") }

// CreateSnapshot persists report under a new id derived from nowMillis,
// disambiguated with a numeric suffix on collision, and returns its
// metadata.
func (s *Store) CreateSnapshot(report *model.ScanReport, label string, nowMillis int64) (model.SnapshotMetadata, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return model.SnapshotMetadata{}, err
	}

	id := fmt.Sprintf("scan-%d", nowMillis)
	for attempt := 1; ; attempt++ {
		if _, err := os.Stat(s.metaPath(id)); os.IsNotExist(err) {
			break
		}
		id = fmt.Sprintf("scan-%d-%d", nowMillis, attempt)
	}

	meta := model.SnapshotMetadata{
		ID:             id,
		CreatedAt:      report.CreatedAt,
		Label:          label,
		JupiterVersion: report.JupiterVersion,
		BackendName:    "local",
		ProjectRoot:    report.ProjectRoot,
		FileCount:      len(report.Files),
		SchemaVersion:  1,
	}

	if err := atomicWriteJSON(s.reportPath(id), report); err != nil {
		return model.SnapshotMetadata{}, err
	}
	if err := atomicWriteJSON(s.metaPath(id), meta); err != nil {
		return model.SnapshotMetadata{}, err
	}
	return meta, nil
}

// ListSnapshots returns every snapshot's metadata, most recently created
// first.
func (s *Store) ListSnapshots() ([]model.SnapshotMetadata, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var metas []model.SnapshotMetadata
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".meta.json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var meta model.SnapshotMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].CreatedAt.After(metas[j].CreatedAt) })
	return metas, nil
}

// LoadSnapshot reads the full ScanReport for id.
func (s *Store) LoadSnapshot(id string) (*model.ScanReport, error) {
	data, err := os.ReadFile(s.reportPath(id))
	if err != nil {
		return nil, err
	}
	var report model.ScanReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Diff loads both snapshots and computes the structured diff of after
// relative to before.
func (s *Store) Diff(beforeID, afterID string) (model.SnapshotDiff, error) {
	before, err := s.LoadSnapshot(beforeID)
	if err != nil {
		return model.SnapshotDiff{}, err
	}
	after, err := s.LoadSnapshot(afterID)
	if err != nil {
		return model.SnapshotDiff{}, err
	}
	return DiffReports(before, after), nil
}

// DiffReports computes the structured diff of after relative to before
// without touching disk, usable directly by watch mode's in-memory
// comparisons.
func DiffReports(before, after *model.ScanReport) model.SnapshotDiff {
	beforeFiles := map[string]model.FileRecord{}
	for _, f := range before.Files {
		beforeFiles[f.Path] = f
	}
	afterFiles := map[string]model.FileRecord{}
	for _, f := range after.Files {
		afterFiles[f.Path] = f
	}

	diff := model.SnapshotDiff{}
	for path, f := range afterFiles {
		if _, ok := beforeFiles[path]; !ok {
			diff.FilesAdded = append(diff.FilesAdded, f)
		}
	}
	for path, f := range beforeFiles {
		if _, ok := afterFiles[path]; !ok {
			diff.FilesRemoved = append(diff.FilesRemoved, f)
		}
	}
	for path, afterFile := range afterFiles {
		beforeFile, ok := beforeFiles[path]
		if !ok || beforeFile.ContentHash == afterFile.ContentHash {
			continue
		}
		diff.FilesModified = append(diff.FilesModified, model.FileDelta{
			Path: path, BeforeSize: beforeFile.SizeBytes, AfterSize: afterFile.SizeBytes,
		})
	}

	sort.Slice(diff.FilesAdded, func(i, j int) bool { return diff.FilesAdded[i].Path < diff.FilesAdded[j].Path })
	sort.Slice(diff.FilesRemoved, func(i, j int) bool { return diff.FilesRemoved[i].Path < diff.FilesRemoved[j].Path })
	sort.Slice(diff.FilesModified, func(i, j int) bool { return diff.FilesModified[i].Path < diff.FilesModified[j].Path })

	beforeFuncs := map[string]bool{}
	for _, fa := range before.Analyses {
		for _, sym := range fa.Symbols {
			beforeFuncs[sym.ID()] = true
		}
	}
	afterFuncs := map[string]bool{}
	for _, fa := range after.Analyses {
		for _, sym := range fa.Symbols {
			afterFuncs[sym.ID()] = true
		}
	}
	for id := range afterFuncs {
		if !beforeFuncs[id] {
			diff.FunctionsAdded = append(diff.FunctionsAdded, id)
		}
	}
	for id := range beforeFuncs {
		if !afterFuncs[id] {
			diff.FunctionsRemoved = append(diff.FunctionsRemoved, id)
		}
	}
	sort.Strings(diff.FunctionsAdded)
	sort.Strings(diff.FunctionsRemoved)

	diff.MetricsDelta = model.MetricsDelta{
		FileCount:     len(after.Files) - len(before.Files),
		FunctionCount: len(afterFuncs) - len(beforeFuncs),
		TotalSizeDiff: totalSize(after.Files) - totalSize(before.Files),
	}
	return diff
}

func totalSize(files []model.FileRecord) int64 {
	var total int64
	for _, f := range files {
		total += f.SizeBytes
	}
	return total
}

func atomicWriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmpPath := path + ".tmp." + strconv.Itoa(os.Getpid())
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
