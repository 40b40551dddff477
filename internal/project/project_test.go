// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package project

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jupiter/internal/model"
)

type stubConnector struct{}

func (stubConnector) Scan(context.Context) (*model.ScanReport, error)            { return &model.ScanReport{}, nil }
func (stubConnector) Analyze(context.Context) (model.AnalysisSummary, error)     { return model.AnalysisSummary{}, nil }
func (stubConnector) Run(context.Context, []string) error                       { return nil }
func (stubConnector) Graph(context.Context) (*model.DependencyGraph, error)      { return &model.DependencyGraph{}, nil }
func (stubConnector) Snapshots(context.Context) ([]model.SnapshotMetadata, error) { return nil, nil }
func (stubConnector) APIBaseURL() string                                        { return "" }

func TestManager_SwitchActivatesAndFiresHooks(t *testing.T) {
	m := New(nil)
	m.Register(Registration{ID: "p1", DisplayName: "Proj 1", ConnectorKind: ConnectorLocal}, stubConnector{})

	var quiesced, rebuilt bool
	m.QuiesceWatchers = func(string) { quiesced = true }
	m.RebuildServices = func(string) error { rebuilt = true; return nil }

	require.NoError(t, m.Switch("p1"))
	reg, conn, err := m.Active()
	require.NoError(t, err)
	require.Equal(t, "p1", reg.ID)
	require.NotNil(t, conn)
	require.True(t, quiesced)
	require.True(t, rebuilt)
}

func TestManager_SwitchUnknownProjectFails(t *testing.T) {
	m := New(nil)
	require.Error(t, m.Switch("missing"))
}

func TestManager_ActiveBeforeSwitchFails(t *testing.T) {
	m := New(nil)
	_, _, err := m.Active()
	require.Error(t, err)
}

func TestRemoteConnector_UnwiredCapabilityIsConnectorError(t *testing.T) {
	r := &RemoteConnector{BaseURL: "http://example.test"}
	_, err := r.Scan(context.Background())
	require.Error(t, err)
}
