// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package graph implements the C6 graph builder: it turns a ScanReport into
// a DependencyGraph of file and symbol nodes connected by contains/imports/
// calls edges, with optional directory-prefix simplification and a
// max_nodes cap that iteratively drops the least-connected nodes.
package graph

import (
	"sort"
	"strings"

	"github.com/kraklabs/jupiter/internal/model"
)

func fileNodeID(path string) string   { return "file:" + path }
func symbolNodeID(id string) string   { return "symbol:" + id }

// Build constructs a DependencyGraph from report. Call resolution matches a
// callee's unqualified name against any symbol defined in the same file or
// in a file the caller's file imports; anything else stays unresolved.
func Build(report *model.ScanReport) *model.DependencyGraph {
	g := &model.DependencyGraph{}

	nameInFile := map[string]map[string]string{} // file -> unqualified name -> symbol id
	fileOfSymbol := map[string]string{}

	for path, fa := range report.Analyses {
		g.Nodes = append(g.Nodes, model.GraphNode{ID: fileNodeID(path), Kind: model.NodeFile, Path: path, Label: path})
		nameInFile[path] = map[string]string{}
		for _, sym := range fa.Symbols {
			id := sym.ID()
			g.Nodes = append(g.Nodes, model.GraphNode{ID: symbolNodeID(id), Kind: model.NodeSymbol, Path: path, Label: sym.Name})
			g.Edges = append(g.Edges, model.GraphEdge{Kind: model.EdgeContains, From: fileNodeID(path), To: symbolNodeID(id)})
			nameInFile[path][sym.Name] = id
			fileOfSymbol[id] = path
		}
	}

	importedFilesOf := map[string][]string{}
	for path, fa := range report.Analyses {
		for _, imp := range fa.Imports {
			target := resolveImportTarget(imp.Target, report.Analyses)
			if target == "" {
				g.Edges = append(g.Edges, model.GraphEdge{Kind: model.EdgeImports, From: fileNodeID(path), To: "external:" + imp.Target})
				continue
			}
			g.Edges = append(g.Edges, model.GraphEdge{Kind: model.EdgeImports, From: fileNodeID(path), To: fileNodeID(target)})
			importedFilesOf[path] = append(importedFilesOf[path], target)
		}
	}

	callerFile := map[string]string{}
	for path, fa := range report.Analyses {
		for _, sym := range fa.Symbols {
			callerFile[sym.ID()] = path
		}
	}

	for path, fa := range report.Analyses {
		for _, call := range fa.Calls {
			if call.CallerSymbolID == "" {
				continue
			}
			calleeID, resolved := resolveCallee(call.CalleeName, path, nameInFile, importedFilesOf[path])
			resolution := model.CallUnresolved
			to := "unresolved:" + call.CalleeName
			if resolved {
				resolution = model.CallResolved
				to = symbolNodeID(calleeID)
			}
			g.Edges = append(g.Edges, model.GraphEdge{
				Kind: model.EdgeCalls, From: symbolNodeID(call.CallerSymbolID), To: to, Resolution: resolution,
			})
		}
	}

	computeDegrees(g)
	return g
}

func resolveImportTarget(target string, analyses map[string]model.FileAnalysis) string {
	if _, ok := analyses[target]; ok {
		return target
	}
	for path := range analyses {
		if strings.HasSuffix(path, "/"+target) || path == target {
			return path
		}
	}
	return ""
}

func resolveCallee(name, callerPath string, nameInFile map[string]map[string]string, importedFiles []string) (string, bool) {
	if id, ok := nameInFile[callerPath][name]; ok {
		return id, true
	}
	for _, f := range importedFiles {
		if id, ok := nameInFile[f][name]; ok {
			return id, true
		}
	}
	return "", false
}

func computeDegrees(g *model.DependencyGraph) {
	degIn := map[string]int{}
	degOut := map[string]int{}
	for _, e := range g.Edges {
		degOut[e.From]++
		degIn[e.To]++
	}
	for i := range g.Nodes {
		g.Nodes[i].DegreeIn = degIn[g.Nodes[i].ID]
		g.Nodes[i].DegreeOut = degOut[g.Nodes[i].ID]
	}
}

// SimplifyOptions configures Simplify.
type SimplifyOptions struct {
	// GroupByDirDepth collapses file nodes sharing a directory prefix of
	// this many path segments into one node, summing incident edges. Zero
	// disables grouping.
	GroupByDirDepth int
	// MaxNodes iteratively drops least-connected nodes (lowest
	// degree_in+degree_out, ties broken by path descending) until the node
	// count is at or below this cap. Zero disables the cap.
	MaxNodes int
}

// Simplify applies directory-prefix grouping and a max_nodes cap to g,
// returning a new graph.
func Simplify(g *model.DependencyGraph, opts SimplifyOptions) *model.DependencyGraph {
	out := g
	if opts.GroupByDirDepth > 0 {
		out = groupByDirectory(out, opts.GroupByDirDepth)
	}
	if opts.MaxNodes > 0 {
		out = capNodes(out, opts.MaxNodes)
	}
	return out
}

func dirPrefix(path string, depth int) string {
	parts := strings.Split(path, "/")
	if len(parts) <= depth {
		return strings.Join(parts[:len(parts)-1], "/")
	}
	return strings.Join(parts[:depth], "/")
}

func groupByDirectory(g *model.DependencyGraph, depth int) *model.DependencyGraph {
	groupOf := map[string]string{} // file node id -> group node id
	groupNode := map[string]model.GraphNode{}

	for _, n := range g.Nodes {
		if n.Kind != model.NodeFile {
			continue
		}
		prefix := dirPrefix(n.Path, depth)
		groupID := "group:" + prefix
		groupOf[n.ID] = groupID
		if _, ok := groupNode[groupID]; !ok {
			groupNode[groupID] = model.GraphNode{ID: groupID, Kind: model.NodeFile, Path: prefix, Label: prefix}
		}
	}

	out := &model.DependencyGraph{}
	for _, n := range g.Nodes {
		if n.Kind == model.NodeFile {
			continue
		}
		out.Nodes = append(out.Nodes, n)
	}
	groupIDs := make([]string, 0, len(groupNode))
	for id := range groupNode {
		groupIDs = append(groupIDs, id)
	}
	sort.Strings(groupIDs)
	for _, id := range groupIDs {
		out.Nodes = append(out.Nodes, groupNode[id])
	}

	remap := func(id string) string {
		if g, ok := groupOf[id]; ok {
			return g
		}
		return id
	}
	for _, e := range g.Edges {
		from, to := remap(e.From), remap(e.To)
		if from == to {
			continue
		}
		out.Edges = append(out.Edges, model.GraphEdge{Kind: e.Kind, From: from, To: to, Resolution: e.Resolution})
	}
	computeDegrees(out)
	return out
}

func capNodes(g *model.DependencyGraph, maxNodes int) *model.DependencyGraph {
	if len(g.Nodes) <= maxNodes {
		return g
	}
	nodes := make([]model.GraphNode, len(g.Nodes))
	copy(nodes, g.Nodes)

	for len(nodes) > maxNodes {
		sort.Slice(nodes, func(i, j int) bool {
			di := nodes[i].DegreeIn + nodes[i].DegreeOut
			dj := nodes[j].DegreeIn + nodes[j].DegreeOut
			if di != dj {
				return di < dj
			}
			return nodes[i].Path > nodes[j].Path
		})
		nodes = nodes[1:]
	}

	keep := map[string]bool{}
	for _, n := range nodes {
		keep[n.ID] = true
	}
	out := &model.DependencyGraph{Nodes: nodes}
	for _, e := range g.Edges {
		if keep[e.From] && keep[e.To] {
			out.Edges = append(out.Edges, e)
		}
	}
	computeDegrees(out)
	return out
}
