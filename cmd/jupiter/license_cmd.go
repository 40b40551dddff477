// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kraklabs/jupiter/internal/errors"
	"github.com/kraklabs/jupiter/internal/license"
	"github.com/kraklabs/jupiter/internal/output"
	"github.com/kraklabs/jupiter/internal/ui"
)

// runLicense implements `jupiter license check` — a one-shot check against
// the configured licensing endpoint, bypassing the background adapter's
// grace period since this is an explicit, synchronous request.
func runLicense(args []string, globals GlobalFlags) int {
	if len(args) == 0 || args[0] != "check" {
		fmt.Fprintln(os.Stderr, "usage: jupiter license check")
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
	if cfg.License.Endpoint == "" {
		errors.FatalError(errors.NewConfigError("no license endpoint configured", "license.endpoint is empty", "set license.endpoint in the project config", nil), globals.JSON)
		return exitDomain
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	checker := license.HTTPChecker(cfg.License.Endpoint, cfg.License.LicenseKey)
	status, err := checker(ctx)
	if err != nil && status == license.StatusNetworkError {
		errors.FatalError(errors.NewConnectorError("could not reach license endpoint", err.Error(), "check network connectivity and license.endpoint", err), globals.JSON)
		return exitConnector
	}

	if globals.JSON {
		_ = output.JSON(map[string]string{"status": string(status)})
	} else {
		ui.Infof("license status: %s", status)
	}

	if status != license.StatusValid {
		return exitDomain
	}
	return exitOK
}
