// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package api implements the C16 API facade: gorilla/mux REST routing, a
// gorilla/websocket /ws endpoint that subscribes a socket to the event bus
// after authenticating the token in the query string, and a role check
// (admin or viewer) on every route. HTTP errors render through
// internal/errors's §6 envelope.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kraklabs/jupiter/internal/errors"
	"github.com/kraklabs/jupiter/internal/eventbus"
	"github.com/kraklabs/jupiter/internal/graph"
	"github.com/kraklabs/jupiter/internal/history"
	"github.com/kraklabs/jupiter/internal/model"
	"github.com/kraklabs/jupiter/internal/plugin"
	"github.com/kraklabs/jupiter/internal/runner"
	"github.com/kraklabs/jupiter/internal/simulator"
)

// Role is the §6 RBAC role granted to a validated token.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
	RoleNone   Role = ""
)

// TokenAuthenticator maps a bearer token to a Role; unknown tokens yield
// RoleNone.
type TokenAuthenticator func(token string) Role

// ScanFunc, AnalyzeFunc, and RunFunc adapt the facade to the rest of the
// core without importing the scanner/analyzer packages directly, keeping
// the facade's dependency surface to routing and transport concerns.
type ScanFunc func(ci bool) (*model.ScanReport, error)
type AnalyzeFunc func() (model.AnalysisSummary, error)
type RunFunc func(argv []string, withDynamic bool, env map[string]string) (runner.CommandResult, error)

// Facade wires the REST/WS surface to the core services.
type Facade struct {
	Authenticate TokenAuthenticator
	Bus          *eventbus.Bus
	History      *history.Store
	Plugins      *plugin.Bridge

	Scan     ScanFunc
	Analyze  AnalyzeFunc
	Run      RunFunc
	LastGraph func() *model.DependencyGraph

	CIThresholds struct {
		MaxComplexity       int
		MaxDuplicationRatio float64
	}

	upgrader websocket.Upgrader
}

// Router builds the gorilla/mux router for the REST routes registered below,
// each behind requireRole, plus /ws, which checks its own token. Health
// checks are not routed here.
func (f *Facade) Router() *mux.Router {
	f.upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	r := mux.NewRouter()
	r.Handle("/scan", f.requireRole(RoleAdmin, f.handleScan)).Methods(http.MethodPost)
	r.Handle("/analyze", f.requireRole(RoleViewer, f.handleAnalyze)).Methods(http.MethodGet)
	r.Handle("/run", f.requireRole(RoleAdmin, f.handleRun)).Methods(http.MethodPost)
	r.Handle("/snapshots", f.requireRole(RoleViewer, f.handleSnapshotsList)).Methods(http.MethodGet)
	r.Handle("/snapshots/diff", f.requireRole(RoleViewer, f.handleSnapshotDiff)).Methods(http.MethodGet)
	r.Handle("/snapshots/{id}", f.requireRole(RoleViewer, f.handleSnapshotLoad)).Methods(http.MethodGet)
	r.Handle("/simulate/remove", f.requireRole(RoleViewer, f.handleSimulateRemove)).Methods(http.MethodPost)
	r.Handle("/graph", f.requireRole(RoleViewer, f.handleGraph)).Methods(http.MethodGet)
	r.Handle("/ci", f.requireRole(RoleAdmin, f.handleCI)).Methods(http.MethodPost)
	r.Handle("/plugins", f.requireRole(RoleViewer, f.handlePlugins)).Methods(http.MethodGet)
	r.Handle("/metrics", f.requireRole(RoleViewer, promhttp.Handler().ServeHTTP)).Methods(http.MethodGet)
	r.HandleFunc("/ws", f.handleWebSocket)
	return r
}

func (f *Facade) requireRole(min Role, handler http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		role := RoleNone
		if f.Authenticate != nil {
			role = f.Authenticate(token)
		}
		if !roleSatisfies(role, min) {
			writeError(w, errors.NewAuthError("insufficient role for this endpoint", "token role below required minimum", "use a token with the required role"))
			return
		}
		handler(w, r)
	})
}

func roleSatisfies(have, need Role) bool {
	if need == RoleViewer {
		return have == RoleViewer || have == RoleAdmin
	}
	return have == RoleAdmin
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return r.URL.Query().Get("token")
}

func (f *Facade) handleScan(w http.ResponseWriter, r *http.Request) {
	ci := r.URL.Query().Get("ci") == "true"
	f.publish(model.TopicScanStarted, nil)
	report, err := f.Scan(ci)
	if err != nil {
		writeError(w, err)
		return
	}
	f.publish(model.TopicScanFinished, report)
	writeJSON(w, http.StatusOK, report)
}

func (f *Facade) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	summary, err := f.Analyze()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type runRequest struct {
	Argv        []string          `json:"argv"`
	WithDynamic bool              `json:"with_dynamic"`
	Env         map[string]string `json:"env"`
}

func (f *Facade) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidationError("invalid request body", err.Error(), "send {argv, with_dynamic, env} as JSON"))
		return
	}
	result, err := f.Run(req.Argv, req.WithDynamic, req.Env)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (f *Facade) handleSnapshotsList(w http.ResponseWriter, r *http.Request) {
	snaps, err := f.History.ListSnapshots()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (f *Facade) handleSnapshotLoad(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	report, err := f.History.LoadSnapshot(id)
	if err != nil {
		writeError(w, errors.NewTaxonomyNotFoundError("snapshot not found", err.Error(), "check the snapshot id"))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (f *Facade) handleSnapshotDiff(w http.ResponseWriter, r *http.Request) {
	before := r.URL.Query().Get("before")
	after := r.URL.Query().Get("after")
	diff, err := f.History.Diff(before, after)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

type simulateRemoveRequest struct {
	TargetType string `json:"target_type"`
	Target     string `json:"target"`
}

func (f *Facade) handleSimulateRemove(w http.ResponseWriter, r *http.Request) {
	var req simulateRemoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewValidationError("invalid request body", err.Error(), "send {target_type, target} as JSON"))
		return
	}
	g := f.LastGraph()
	if g == nil {
		writeError(w, errors.NewTaxonomyNotFoundError("no graph available", "no scan has been run yet", "run POST /scan first"))
		return
	}
	report := simulator.SimulateRemove(g, simulator.TargetType(req.TargetType), req.Target)
	writeJSON(w, http.StatusOK, report)
}

func (f *Facade) handleGraph(w http.ResponseWriter, r *http.Request) {
	g := f.LastGraph()
	if g == nil {
		g = &model.DependencyGraph{}
	}
	writeJSON(w, http.StatusOK, g)
}

func (f *Facade) handleCI(w http.ResponseWriter, r *http.Request) {
	summary, err := f.Analyze()
	if err != nil {
		writeError(w, err)
		return
	}
	passed := true
	for _, h := range summary.ComplexityHotspots {
		if f.CIThresholds.MaxComplexity > 0 && h.Value > float64(f.CIThresholds.MaxComplexity) {
			passed = false
			break
		}
	}
	status := http.StatusOK
	if !passed {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]any{"passed": passed, "summary": summary})
}

func (f *Facade) handlePlugins(w http.ResponseWriter, r *http.Request) {
	if f.Plugins == nil {
		writeJSON(w, http.StatusOK, []model.PluginRegistration{})
		return
	}
	writeJSON(w, http.StatusOK, f.Plugins.Registrations())
}

func (f *Facade) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	role := RoleNone
	if f.Authenticate != nil {
		role = f.Authenticate(token)
	}
	if role == RoleNone {
		writeError(w, errors.NewAuthError("missing or invalid token", "no token query parameter matched a known role", "pass ?token=<token>"))
		return
	}

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch := f.Bus.Subscribe()
	defer f.Bus.Unsubscribe(ch)

	for event := range ch {
		if err := conn.WriteJSON(map[string]any{"type": event.Topic, "payload": event.Payload}); err != nil {
			return
		}
	}
}

func (f *Facade) publish(topic model.Topic, payload any) {
	if f.Bus == nil {
		return
	}
	f.Bus.Publish(model.Event{Topic: topic, Payload: payload, ProducedAt: time.Now()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	userErr, ok := err.(*errors.UserError)
	if !ok {
		userErr = errors.NewTaxonomyInternalError("internal error", err.Error(), "check server logs", err)
	}
	envelope := userErr.ToEnvelope()
	writeJSON(w, envelope.Error.Code.HTTPStatus(), envelope)
}

// unused import guard: the graph package is not called in this file; cmd/jupiter
// builds (via graph.Build) the *model.DependencyGraph that LastGraph returns.
var _ = graph.Build
