// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package plugin implements the C13 plugin bridge and C14 permissions &
// signatures: manifest discovery/validation, Tarjan dependency-cycle
// detection, the five-phase discover/initialize/register/ready/shutdown
// lifecycle, hot reload, the legacy on_scan/on_analyze adapter, and an
// append-only audit log for privileged operations. Manifest directory
// discovery is grounded on internal/bootstrap's idempotent project-layout
// conventions; manifests are YAML, loaded with gopkg.in/yaml.v3.
package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/jupiter/internal/model"
)

// Services is the fixed set of core capabilities a plugin's init(services)
// call receives; the service locator is the only sanctioned path to them.
type Services struct {
	Logger       any
	Config       any
	EventBus     any
	History      any
	Graph        any
	ProjectMgr   any
	JobSubmitter any
	Runner       any
}

// Initializer is what a discovered plugin's code must implement to
// participate in the lifecycle.
type Initializer interface {
	Init(services Services) error
	Shutdown() error
}

// LegacyPlugin is the minimal surface a manifest-less plugin may expose;
// it is wrapped with a synthesized manifest (type=tool, minimal
// permissions, no contributions) and subscribed to scan/analyze events.
type LegacyPlugin interface {
	OnScan(report *model.ScanReport)
	OnAnalyze(summary model.AnalysisSummary)
}

// discoveredPlugin pairs a parsed manifest with its loaded code and runtime
// registration state.
type discoveredPlugin struct {
	dir          string
	manifest     model.PluginManifest
	registration model.PluginRegistration
	code         Initializer
	legacy       LegacyPlugin
}

// Bridge owns every discovered plugin and drives its lifecycle.
type Bridge struct {
	pluginsDir          string
	allowUnsignedLocal  bool
	developerMode       bool
	auditLogPath        string
	jobHolder           func(pluginID string) bool // reports a non-terminal job for pluginID

	plugins map[string]*discoveredPlugin
	order   []string // topological init order
}

// New creates a Bridge rooted at pluginsDir (typically <project>/plugins).
func New(pluginsDir, auditLogPath string, allowUnsignedLocal, developerMode bool, jobHolder func(string) bool) *Bridge {
	if jobHolder == nil {
		jobHolder = func(string) bool { return false }
	}
	return &Bridge{
		pluginsDir: pluginsDir, auditLogPath: auditLogPath,
		allowUnsignedLocal: allowUnsignedLocal, developerMode: developerMode,
		jobHolder: jobHolder, plugins: map[string]*discoveredPlugin{},
	}
}

// Discover enumerates manifest directories, parses and validates each
// manifest, and detects dependency cycles via Tarjan. Plugins in a cycle
// are marked error/cycle; everything else is left in the discovered state
// pending Initialize.
func (b *Bridge) Discover(trustMode string) error {
	entries, err := os.ReadDir(b.pluginsDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	seenIDs := map[string]string{} // id -> dir, to catch duplicates
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(b.pluginsDir, e.Name())
		manifestPath := filepath.Join(dir, "manifest.yaml")
		data, err := os.ReadFile(manifestPath)
		if err != nil {
			continue // no manifest here; legacy plugins are adopted separately
		}

		var m model.PluginManifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			b.registerError(e.Name(), dir, model.PluginManifest{ID: e.Name()}, "invalid manifest: "+err.Error())
			continue
		}
		if verr := validateManifest(m); verr != nil {
			b.registerError(m.ID, dir, m, verr.Error())
			continue
		}
		if prevDir, dup := seenIDs[m.ID]; dup {
			b.registerError(m.ID, dir, m, fmt.Sprintf("duplicate plugin id, already declared at %s", prevDir))
			continue
		}
		if !entrypointsExist(dir, m.Entrypoints) {
			b.registerError(m.ID, dir, m, "declared entrypoint file is missing")
			continue
		}
		if !trustAllowed(m.TrustLevel, trustMode) {
			b.registerError(m.ID, dir, m, fmt.Sprintf("trust level %q refused under mode %q", m.TrustLevel, trustMode))
			continue
		}
		if m.Signature == "" && !b.allowUnsignedLocal {
			b.registerError(m.ID, dir, m, "unsigned local plugin refused: allow_unsigned_local_plugins is false")
			continue
		}

		seenIDs[m.ID] = dir
		b.plugins[m.ID] = &discoveredPlugin{
			dir: dir, manifest: m,
			registration: model.PluginRegistration{Manifest: m, Status: model.PluginDiscovered},
		}
	}

	cycles := tarjanCycles(b.plugins)
	for _, id := range cycles {
		b.plugins[id].registration.Status = model.PluginError
		b.plugins[id].registration.ErrorReason = "cycle"
	}

	order, err := topologicalOrder(b.plugins)
	if err != nil {
		return err
	}
	b.order = order
	return nil
}

func (b *Bridge) registerError(id, dir string, m model.PluginManifest, reason string) {
	if id == "" {
		id = dir
	}
	b.plugins[id] = &discoveredPlugin{
		dir: dir, manifest: m,
		registration: model.PluginRegistration{Manifest: m, Status: model.PluginError, ErrorReason: reason},
	}
}

func validateManifest(m model.PluginManifest) error {
	if m.ID == "" {
		return fmt.Errorf("missing plugin id")
	}
	switch m.Type {
	case model.PluginCore, model.PluginSystem, model.PluginTool:
	default:
		return fmt.Errorf("invalid plugin type %q", m.Type)
	}
	for _, p := range m.Permissions {
		if !validPermissions[p] {
			return fmt.Errorf("unknown permission %q", p)
		}
	}
	return nil
}

var validPermissions = map[string]bool{
	"fs_read": true, "fs_write": true, "run_commands": true, "network_outbound": true,
	"access_license": true, "config_access": true, "emit_events": true,
}

func entrypointsExist(dir string, ep model.PluginEntrypoints) bool {
	for _, f := range []string{ep.Init, ep.Shutdown, ep.Health, ep.Metrics, ep.API, ep.CLI, ep.UI} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			return false
		}
	}
	return true
}

// trustAllowed implements the §4.13 install-policy table: strict refuses
// community trust outright; permissive and dev admit every trust level,
// community with a warning the caller is expected to surface.
func trustAllowed(trust model.TrustLevel, mode string) bool {
	if trust == "" {
		trust = model.TrustCommunity
	}
	if mode == "strict" {
		return trust != model.TrustCommunity
	}
	return true
}

// tarjanCycles returns the plugin ids that participate in a dependency
// cycle, via Tarjan's strongly-connected-components algorithm over the
// manifest dependency graph.
func tarjanCycles(plugins map[string]*discoveredPlugin) []string {
	index := 0
	indices := map[string]int{}
	lowlink := map[string]int{}
	onStack := map[string]bool{}
	var stack []string
	var cyclic []string

	var strongconnect func(id string)
	strongconnect = func(id string) {
		indices[id] = index
		lowlink[id] = index
		index++
		stack = append(stack, id)
		onStack[id] = true

		p, ok := plugins[id]
		if ok {
			for _, dep := range p.manifest.Dependencies {
				if _, exists := plugins[dep.PluginID]; !exists {
					continue
				}
				if _, visited := indices[dep.PluginID]; !visited {
					strongconnect(dep.PluginID)
					if lowlink[dep.PluginID] < lowlink[id] {
						lowlink[id] = lowlink[dep.PluginID]
					}
				} else if onStack[dep.PluginID] {
					if indices[dep.PluginID] < lowlink[id] {
						lowlink[id] = indices[dep.PluginID]
					}
				}
			}
		}

		if lowlink[id] == indices[id] {
			var component []string
			for {
				n := len(stack) - 1
				member := stack[n]
				stack = stack[:n]
				onStack[member] = false
				component = append(component, member)
				if member == id {
					break
				}
			}
			if len(component) > 1 {
				cyclic = append(cyclic, component...)
			}
		}
	}

	ids := make([]string, 0, len(plugins))
	for id := range plugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, visited := indices[id]; !visited {
			strongconnect(id)
		}
	}
	return cyclic
}

// topologicalOrder computes an initialize order via Kahn's algorithm over
// dependency edges, skipping plugins already marked error. Ties are broken
// lexicographically for determinism.
func topologicalOrder(plugins map[string]*discoveredPlugin) ([]string, error) {
	indegree := map[string]int{}
	edges := map[string][]string{} // dep -> dependents
	for id, p := range plugins {
		if p.registration.Status == model.PluginError {
			continue
		}
		if _, ok := indegree[id]; !ok {
			indegree[id] = 0
		}
		for _, dep := range p.manifest.Dependencies {
			if _, exists := plugins[dep.PluginID]; !exists || plugins[dep.PluginID].registration.Status == model.PluginError {
				if !dep.Optional {
					// Hard dependency missing or broken: this plugin cannot init either.
					plugins[id].registration.Status = model.PluginError
					plugins[id].registration.ErrorReason = fmt.Sprintf("hard dependency %q unavailable", dep.PluginID)
				}
				continue
			}
			indegree[id]++
			edges[dep.PluginID] = append(edges[dep.PluginID], id)
		}
	}

	var ready []string
	for id, deg := range indegree {
		if deg == 0 && plugins[id].registration.Status != model.PluginError {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	var order []string
	for len(ready) > 0 {
		sort.Strings(ready)
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, dependent := range edges[id] {
			indegree[dependent]--
			if indegree[dependent] == 0 && plugins[dependent].registration.Status != model.PluginError {
				ready = append(ready, dependent)
			}
		}
	}
	return order, nil
}

// Initialize runs the initialize phase in dependency order, invoking
// init(services) for each plugin. A plugin failing init is marked error and
// does not block peers unless another plugin hard-depends on it (handled by
// Discover's topological pass already having marked those as error).
func (b *Bridge) Initialize(services Services, loader func(dir string, m model.PluginManifest) (Initializer, error)) {
	for _, id := range b.order {
		p := b.plugins[id]
		if p.registration.Status == model.PluginError {
			continue
		}
		p.registration.Status = model.PluginLoading
		code, err := loader(p.dir, p.manifest)
		if err != nil {
			p.registration.Status = model.PluginError
			p.registration.ErrorReason = err.Error()
			continue
		}
		if err := code.Init(services); err != nil {
			p.registration.Status = model.PluginError
			p.registration.ErrorReason = err.Error()
			continue
		}
		p.code = code
	}
}

// Register records the CLI verbs / API route prefix a plugin contributes,
// refusing duplicates (first plugin to claim a verb or prefix wins; a later
// collision is logged as an error on that plugin without unwinding the
// first).
func (b *Bridge) Register(id string, verbs []string, apiPrefix string, panels []model.UIPanelDescriptor) error {
	p, ok := b.plugins[id]
	if !ok || p.registration.Status == model.PluginError {
		return fmt.Errorf("plugin %q is not eligible to register", id)
	}
	for _, other := range b.plugins {
		if other.manifest.ID == id || other.registration.Status != model.PluginReady {
			continue
		}
		for _, v := range verbs {
			for _, ov := range other.registration.ContributedVerbs {
				if v == ov {
					p.registration.Status = model.PluginError
					p.registration.ErrorReason = fmt.Sprintf("verb %q already claimed by %q", v, other.manifest.ID)
					return fmt.Errorf(p.registration.ErrorReason)
				}
			}
		}
		if apiPrefix != "" && apiPrefix == other.registration.HTTPRoutePrefix {
			p.registration.Status = model.PluginError
			p.registration.ErrorReason = fmt.Sprintf("api prefix %q already claimed by %q", apiPrefix, other.manifest.ID)
			return fmt.Errorf(p.registration.ErrorReason)
		}
	}
	p.registration.ContributedVerbs = verbs
	p.registration.HTTPRoutePrefix = apiPrefix
	p.registration.UIPanels = panels
	p.registration.Status = model.PluginReady
	return nil
}

// Shutdown calls shutdown() in reverse topological order and unregisters
// every contribution.
func (b *Bridge) Shutdown() {
	for i := len(b.order) - 1; i >= 0; i-- {
		p := b.plugins[b.order[i]]
		if p.code != nil {
			_ = p.code.Shutdown()
		}
		p.registration.ContributedVerbs = nil
		p.registration.HTTPRoutePrefix = ""
		p.registration.UIPanels = nil
	}
}

// Registrations returns a stable, ID-sorted snapshot of every plugin's
// registration state, for introspection endpoints.
func (b *Bridge) Registrations() []model.PluginRegistration {
	ids := make([]string, 0, len(b.plugins))
	for id := range b.plugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]model.PluginRegistration, 0, len(ids))
	for _, id := range ids {
		out = append(out, b.plugins[id].registration)
	}
	return out
}

// HotReload re-runs discover/initialize/register for a single plugin. Only
// admitted when developer_mode is true and the plugin holds no non-terminal
// job.
func (b *Bridge) HotReload(id string, services Services, loader func(dir string, m model.PluginManifest) (Initializer, error)) error {
	if !b.developerMode {
		return fmt.Errorf("hot reload requires developer_mode")
	}
	if b.jobHolder(id) {
		return fmt.Errorf("plugin %q holds a non-terminal job", id)
	}
	p, ok := b.plugins[id]
	if !ok {
		return fmt.Errorf("plugin %q is not discovered", id)
	}

	p.registration.ContributedVerbs = nil
	p.registration.HTTPRoutePrefix = ""
	p.registration.UIPanels = nil
	if p.code != nil {
		_ = p.code.Shutdown()
		p.code = nil
	}

	manifestPath := filepath.Join(p.dir, "manifest.yaml")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return err
	}
	var m model.PluginManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return err
	}
	if err := validateManifest(m); err != nil {
		return err
	}
	p.manifest = m
	p.registration = model.PluginRegistration{Manifest: m, Status: model.PluginLoading}

	code, err := loader(p.dir, m)
	if err != nil {
		p.registration.Status = model.PluginError
		p.registration.ErrorReason = err.Error()
		return err
	}
	if err := code.Init(services); err != nil {
		p.registration.Status = model.PluginError
		p.registration.ErrorReason = err.Error()
		return err
	}
	p.code = code
	p.registration.Status = model.PluginReady
	return nil
}

// AdoptLegacy wraps a manifest-less plugin exposing on_scan/on_analyze with
// a synthesized manifest (tool type, minimal permissions, no contributions)
// and marks it legacy in introspection.
func (b *Bridge) AdoptLegacy(id string, impl LegacyPlugin) {
	b.plugins[id] = &discoveredPlugin{
		legacy: impl,
		manifest: model.PluginManifest{
			ID: id, Type: model.PluginTool, Permissions: []string{},
		},
		registration: model.PluginRegistration{
			Manifest: model.PluginManifest{ID: id, Type: model.PluginTool},
			Status:   model.PluginReady, Legacy: true,
			SubscribedTopics: []string{string(model.TopicScanFinished), string(model.TopicJobCompleted)},
		},
	}
}

// DispatchScan fans report out to every adopted legacy plugin's on_scan hook.
func (b *Bridge) DispatchScan(report *model.ScanReport) {
	for _, p := range b.plugins {
		if p.legacy != nil {
			p.legacy.OnScan(report)
		}
	}
}

// DispatchAnalyze fans summary out to every adopted legacy plugin's
// on_analyze hook.
func (b *Bridge) DispatchAnalyze(summary model.AnalysisSummary) {
	for _, p := range b.plugins {
		if p.legacy != nil {
			p.legacy.OnAnalyze(summary)
		}
	}
}

// HasPermission reports whether plugin id declared permission in its
// manifest; this is the single check every service-locator call path runs
// before performing a privileged operation on a plugin's behalf.
func (b *Bridge) HasPermission(id, permission string) bool {
	p, ok := b.plugins[id]
	if !ok {
		return false
	}
	for _, perm := range p.manifest.Permissions {
		if perm == permission {
			return true
		}
	}
	return false
}

// AuditEntry is one append-only audit log line.
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Role      string    `json:"role"`
	TokenID   string    `json:"token_id"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	Result    string    `json:"result"`
}

// Audit appends one privileged-operation record to the audit log file.
func (b *Bridge) Audit(entry AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	f, err := os.OpenFile(b.auditLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s\n",
		entry.Timestamp.UTC().Format(time.RFC3339Nano), entry.Role, entry.TokenID, entry.Action, entry.Target, entry.Result)
	_, err = f.WriteString(line)
	return err
}
