// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jupiter/internal/eventbus"
	"github.com/kraklabs/jupiter/internal/model"
)

func testFacade() *Facade {
	return &Facade{
		Authenticate: func(token string) Role {
			switch token {
			case "admin-token":
				return RoleAdmin
			case "viewer-token":
				return RoleViewer
			default:
				return RoleNone
			}
		},
		Bus: eventbus.New(),
		Scan: func(ci bool) (*model.ScanReport, error) {
			return &model.ScanReport{}, nil
		},
		Analyze: func() (model.AnalysisSummary, error) {
			return model.AnalysisSummary{}, nil
		},
		LastGraph: func() *model.DependencyGraph { return nil },
	}
}

func TestRouter_ViewerTokenRejectedOnAdminRoute(t *testing.T) {
	f := testFacade()
	srv := httptest.NewServer(f.Router())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/scan", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer viewer-token")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Contains(t, body, "error")
}

func TestRouter_AdminTokenAllowsScan(t *testing.T) {
	f := testFacade()
	srv := httptest.NewServer(f.Router())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/scan", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer admin-token")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_NoGraphSimulateRemoveReturnsNotFound(t *testing.T) {
	f := testFacade()
	srv := httptest.NewServer(f.Router())
	defer srv.Close()

	payload, _ := json.Marshal(simulateRemoveRequest{TargetType: "file", Target: "a.py"})
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/simulate/remove", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer viewer-token")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_WebSocketDeliversPublishedEvent(t *testing.T) {
	f := testFacade()
	srv := httptest.NewServer(f.Router())
	defer srv.Close()

	wsURL := "ws" + srv.URL[len("http"):] + "/ws?token=viewer-token"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	f.Bus.Publish(model.Event{Topic: model.TopicScanStarted, Payload: "hello"})

	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, string(model.TopicScanStarted), frame["type"])
	require.Equal(t, "hello", frame["payload"])
}

func TestRouter_WebSocketRejectsUnauthenticated(t *testing.T) {
	f := testFacade()
	srv := httptest.NewServer(f.Router())
	defer srv.Close()

	wsURL := "ws" + srv.URL[len("http"):] + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	if resp != nil {
		require.NotEqual(t, http.StatusSwitchingProtocols, resp.StatusCode)
	}
}
