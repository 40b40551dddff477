// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/kraklabs/jupiter/internal/errors"
)

// dispatchPlugin routes a "p:<plugin_id>:<verb>" command to the matching
// plugin's contributed CLI verb (§4.17). It checks that the plugin
// contributes the verb and holds the run_commands permission, then reports
// the dispatch on stderr and returns exitOK; no plugin entrypoint is
// executed.
func dispatchPlugin(command string, args []string, globals GlobalFlags) int {
	parts := strings.SplitN(command, ":", 3)
	if len(parts) != 3 {
		fmt.Fprintf(os.Stderr, "jupiter: malformed plugin verb %q, expected p:<plugin_id>:<verb>\n", command)
		return exitUsage
	}
	pluginID, verb := parts[1], parts[2]

	root, err := resolveRoot(globals)
	if err != nil {
		errors.FatalError(err, globals.JSON)
		return exitDomain
	}
	bridge, err := openBridge(root, globals)
	if err != nil {
		errors.FatalError(err, globals.JSON)
		return exitDomain
	}

	var found bool
	for _, reg := range bridge.Registrations() {
		if reg.Manifest.ID != pluginID {
			continue
		}
		found = true
		for _, v := range reg.ContributedVerbs {
			if v == verb {
				if !bridge.HasPermission(pluginID, "run_commands") {
					errors.FatalError(errors.NewPolicyDeniedError(
						fmt.Sprintf("plugin %q lacks run_commands permission", pluginID),
						"the manifest does not declare run_commands",
						"add run_commands to the plugin's permissions and reinstall"), globals.JSON)
					return exitDomain
				}
				fmt.Fprintf(os.Stderr, "jupiter: dispatching %s:%s with args %v\n", pluginID, verb, args)
				return exitOK
			}
		}
	}
	if !found {
		errors.FatalError(errors.NewTaxonomyNotFoundError("plugin not found", pluginID, "run 'jupiter plugins list' for known ids"), globals.JSON)
		return exitDomain
	}
	errors.FatalError(errors.NewTaxonomyNotFoundError("plugin does not contribute that verb", verb, "run 'jupiter plugins info "+pluginID+"' to see contributed verbs"), globals.JSON)
	return exitDomain
}
