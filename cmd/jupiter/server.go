// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/jupiter/internal/analyzer"
	"github.com/kraklabs/jupiter/internal/api"
	"github.com/kraklabs/jupiter/internal/config"
	"github.com/kraklabs/jupiter/internal/errors"
	"github.com/kraklabs/jupiter/internal/eventbus"
	"github.com/kraklabs/jupiter/internal/graph"
	"github.com/kraklabs/jupiter/internal/history"
	"github.com/kraklabs/jupiter/internal/license"
	"github.com/kraklabs/jupiter/internal/model"
	"github.com/kraklabs/jupiter/internal/plugin"
	"github.com/kraklabs/jupiter/internal/runner"
	"github.com/kraklabs/jupiter/internal/ui"
)

// cliLocalConnector adapts doScan/analyzer/graph/history (available only in
// cmd/jupiter, to keep internal/project free of a CLI dependency) into the
// project.Connector interface for the one project the server process owns.
type cliLocalConnector struct {
	root      string
	globals   GlobalFlags
	runner    *runner.Runner
	lastGraph *model.DependencyGraph
	history   *history.Store
}

func (c *cliLocalConnector) Scan(ctx context.Context) (*model.ScanReport, error) {
	cfg, err := loadProjectConfig(c.root)
	if err != nil {
		return nil, err
	}
	report, err := doScan(ctx, c.root, c.globals, cfg)
	if err != nil {
		return nil, err
	}
	c.lastGraph = graph.Build(report)
	return report, nil
}

func (c *cliLocalConnector) Analyze(ctx context.Context) (model.AnalysisSummary, error) {
	report, err := c.Scan(ctx)
	if err != nil {
		return model.AnalysisSummary{}, err
	}
	return analyzer.Analyze(report, 10), nil
}

func (c *cliLocalConnector) Run(ctx context.Context, argv []string) error {
	return errors.NewPolicyDeniedError("use POST /run for command execution", "the project connector's Run is a capability marker, not the execution path", "call POST /run on the API facade")
}

func (c *cliLocalConnector) Graph(ctx context.Context) (*model.DependencyGraph, error) {
	if c.lastGraph == nil {
		if _, err := c.Scan(ctx); err != nil {
			return nil, err
		}
	}
	return c.lastGraph, nil
}

func (c *cliLocalConnector) Snapshots(ctx context.Context) ([]model.SnapshotMetadata, error) {
	return c.history.ListSnapshots()
}

func (c *cliLocalConnector) APIBaseURL() string { return "" }

func runServer(args []string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	root, err := resolveRoot(globals)
	if err != nil {
		errors.FatalError(err, globals.JSON)
		return exitDomain
	}
	cfg, err := loadProjectConfig(root)
	if err != nil {
		errors.FatalError(err, globals.JSON)
		return exitDomain
	}
	logger := newLogger(globals)

	bus := eventbus.New()
	defer bus.Close()

	store := history.New(filepath.Join(root, ".jupiter", "snapshots"))

	r := runner.New(bus, nil, logger)
	conn := &cliLocalConnector{root: root, globals: globals, runner: r, history: store}

	auditPath := filepath.Join(root, ".jupiter", "audit.log")
	bridge := plugin.New(filepath.Join(root, ".jupiter", "plugins"), auditPath,
		cfg.Plugins.AllowUnsignedLocalPlugins || cfg.AllowUnsignedLocalPlugins, cfg.DeveloperMode, nil)
	if err := bridge.Discover(cfg.Plugins.TrustMode); err != nil {
		logger.Warn("plugin.discover.error", "error", err)
	}
	bridge.Initialize(plugin.Services{
		Logger:   logger,
		EventBus: bus,
		History:  store,
		Runner:   r,
	}, defaultLoader)

	var licenseAdapter *license.Adapter
	if cfg.License.Endpoint != "" {
		checker := license.HTTPChecker(cfg.License.Endpoint, cfg.License.LicenseKey)
		licenseAdapter = license.New(checker, time.Duration(cfg.License.PollSeconds)*time.Second, time.Duration(cfg.License.GraceSeconds)*time.Second, logger)
		licenseAdapter.Start(context.Background())
		defer licenseAdapter.Stop()
	}

	facade := &api.Facade{
		Authenticate: tokenAuthenticator(cfg),
		Bus:          bus,
		History:      store,
		Plugins:      bridge,
		Scan: func(ci bool) (*model.ScanReport, error) {
			return conn.Scan(context.Background())
		},
		Analyze: func() (model.AnalysisSummary, error) {
			return conn.Analyze(context.Background())
		},
		Run: func(argv []string, withDynamic bool, env map[string]string) (runner.CommandResult, error) {
			policy := runner.Policy{
				AllowRun:        cfg.Security.AllowRun,
				AllowedCommands: cfg.Security.AllowedCommands,
				CallerIsAdmin:   true,
				LicenseOK:       licenseAdapter == nil || licenseAdapter.Status() == license.StatusValid,
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			return r.Run(ctx, policy, argv, withDynamic, env)
		},
		LastGraph: func() *model.DependencyGraph { return conn.lastGraph },
	}
	facade.CIThresholds.MaxComplexity = cfg.CI.MaxComplexity
	facade.CIThresholds.MaxDuplicationRatio = cfg.CI.MaxDuplicationRatio

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","root":%q}`, root)
	})
	mux.Handle("/", facade.Router())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		IdleTimeout:  60 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	if !globals.Quiet {
		ui.Successf("jupiter server listening on %s", addr)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			errors.FatalError(errors.NewConnectorError("server exited unexpectedly", err.Error(), "check the configured host/port are free", err), globals.JSON)
			return exitConnector
		}
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctx)
	}
	return exitOK
}

func tokenAuthenticator(cfg config.Config) api.TokenAuthenticator {
	return func(token string) api.Role {
		if token == "" {
			return api.RoleNone
		}
		for _, t := range cfg.Security.AdminTokens {
			if t == token {
				return api.RoleAdmin
			}
		}
		for _, t := range cfg.Security.ViewerTokens {
			if t == token {
				return api.RoleViewer
			}
		}
		return api.RoleNone
	}
}
