// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package project implements the C15 project manager: a registry of
// projects with exactly one active at a time, and a Connector abstraction
// polymorphic over the {scan, analyze, run, graph, snapshots} capability
// set. Grounded on pkg/storage.Backend's Query/Execute/Close shape — "one
// interface, two implementations" — here expressed as local/remote
// connectors, and on internal/bootstrap's idempotent project-directory
// layout.
package project

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kraklabs/jupiter/internal/errors"
	"github.com/kraklabs/jupiter/internal/eventbus"
	"github.com/kraklabs/jupiter/internal/model"
)

// ConnectorKind enumerates how a project is reached.
type ConnectorKind string

const (
	ConnectorLocal  ConnectorKind = "local"
	ConnectorRemote ConnectorKind = "remote"
)

// Registration is one entry in the project registry.
type Registration struct {
	ID            string        `json:"id"`
	DisplayName   string        `json:"display_name"`
	RootPathOrURL string        `json:"root_path_or_url"`
	ConnectorKind ConnectorKind `json:"connector_kind"`
}

// Connector is the capability set every project, local or remote, exposes.
type Connector interface {
	Scan(ctx context.Context) (*model.ScanReport, error)
	Analyze(ctx context.Context) (model.AnalysisSummary, error)
	Run(ctx context.Context, argv []string) error
	Graph(ctx context.Context) (*model.DependencyGraph, error)
	Snapshots(ctx context.Context) ([]model.SnapshotMetadata, error)
	APIBaseURL() string
}

// Manager owns the project registry, the single active project, and
// lifecycle hooks fired on switch.
type Manager struct {
	mu         sync.Mutex
	registry   map[string]Registration
	connectors map[string]Connector
	activeID   string
	bus        *eventbus.Bus

	// Quiesce/flush/rebuild hooks invoked on active-project switch; nil
	// hooks are skipped. Kept as fields rather than an interface so the
	// project manager stays decoupled from the watcher/cache/service
	// packages it orchestrates.
	QuiesceWatchers    func(projectID string)
	FlushCacheLocks    func(projectID string) error
	RebuildServices    func(projectID string) error
	WaitNonCancellable func(projectID string)
}

// New creates an empty Manager.
func New(bus *eventbus.Bus) *Manager {
	return &Manager{registry: map[string]Registration{}, connectors: map[string]Connector{}, bus: bus}
}

// Register adds or replaces a project's registry entry and connector.
func (m *Manager) Register(reg Registration, conn Connector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[reg.ID] = reg
	m.connectors[reg.ID] = conn
}

// List returns every registered project.
func (m *Manager) List() []Registration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Registration, 0, len(m.registry))
	for _, r := range m.registry {
		out = append(out, r)
	}
	return out
}

// Active returns the active project's registration and connector.
func (m *Manager) Active() (Registration, Connector, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeID == "" {
		return Registration{}, nil, errors.NewTaxonomyNotFoundError(
			"no active project", "switch_project has not been called yet", "call switch_project with a registered project id",
		)
	}
	return m.registry[m.activeID], m.connectors[m.activeID], nil
}

// Switch makes projectID the active project, running the quiesce/flush/
// rebuild sequence and emitting CONFIG_UPDATED. It is a no-op if projectID
// is already active.
func (m *Manager) Switch(projectID string) error {
	m.mu.Lock()
	if _, ok := m.registry[projectID]; !ok {
		m.mu.Unlock()
		return errors.NewTaxonomyNotFoundError(
			fmt.Sprintf("project %q is not registered", projectID), "no matching registry entry", "register the project before switching to it",
		)
	}
	if m.activeID == projectID {
		m.mu.Unlock()
		return nil
	}
	previous := m.activeID
	m.mu.Unlock()

	if m.QuiesceWatchers != nil {
		m.QuiesceWatchers(previous)
	}
	if m.WaitNonCancellable != nil {
		m.WaitNonCancellable(previous)
	}
	if m.FlushCacheLocks != nil {
		if err := m.FlushCacheLocks(previous); err != nil {
			return err
		}
	}
	if m.RebuildServices != nil {
		if err := m.RebuildServices(projectID); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.activeID = projectID
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Publish(model.Event{Topic: model.TopicConfigUpdated, Payload: map[string]string{"active_project": projectID}, ProducedAt: time.Now()})
	}
	return nil
}

// RemoteConnector names another Jupiter instance by BaseURL. None of its
// capabilities issues an HTTP request: each returns a typed connector_error
// instead. No credentials are ever written to logs.
type RemoteConnector struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
}

func (r *RemoteConnector) httpClient() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	timeout := r.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func (r *RemoteConnector) APIBaseURL() string { return r.BaseURL }

func (r *RemoteConnector) Scan(ctx context.Context) (*model.ScanReport, error) {
	return nil, r.notImplemented("scan")
}

func (r *RemoteConnector) Analyze(ctx context.Context) (model.AnalysisSummary, error) {
	return model.AnalysisSummary{}, r.notImplemented("analyze")
}

func (r *RemoteConnector) Run(ctx context.Context, argv []string) error {
	return r.notImplemented("run")
}

func (r *RemoteConnector) Graph(ctx context.Context) (*model.DependencyGraph, error) {
	return nil, r.notImplemented("graph")
}

func (r *RemoteConnector) Snapshots(ctx context.Context) ([]model.SnapshotMetadata, error) {
	return nil, r.notImplemented("snapshots")
}

// notImplemented is the shared shape every remote capability returns until
// wired to a concrete HTTP client call; kept typed as connector_error per
// spec.md §4.14 rather than a bare error so API callers get a stable code.
func (r *RemoteConnector) notImplemented(capability string) error {
	return errors.NewConnectorError(
		fmt.Sprintf("remote %s is not available", capability),
		"remote connector capability not yet wired to "+r.BaseURL,
		"use a local connector, or configure the remote Jupiter instance's API",
		nil,
	)
}
