// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package lang

import (
	"strings"

	"github.com/kraklabs/jupiter/internal/model"
)

// TableVersion versions the framework-decorator, known-used-pattern, and
// dynamic-registration tables below. Additions to any of them are a
// minor-version change, per §9(b).
const TableVersion = 1

// FrameworkDecorators are dotted decorator-tag renderings recognized as
// evidence a symbol is wired into a framework and therefore reachable even
// with no direct callers in the scanned source.
var FrameworkDecorators = map[string]bool{
	"router.get": true, "router.post": true, "router.put": true, "router.delete": true,
	"router.patch": true, "app.route": true, "app.get": true, "app.post": true,
	"click.command": true, "click.group": true, "pytest.fixture": true,
	"celery.task": true, "property": true, "staticmethod": true, "classmethod": true,
	"abstractmethod": true, "dataclass": true,
}

// KnownUsedPatterns are symbol-name patterns treated as conventionally
// invoked even absent a direct call site (dunders, serialization hooks).
var KnownUsedPatterns = []func(name string) bool{
	func(name string) bool { return strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") },
	func(name string) bool { return name == "to_dict" || name == "from_dict" },
	func(name string) bool { return name == "__init__" || name == "__repr__" || name == "__str__" },
	func(name string) bool { return name == "setUp" || name == "tearDown" },
	func(name string) bool { return strings.HasPrefix(name, "test_") },
}

// DynamicRegistrationCallees are callee names whose call sites register a
// symbol by literal reference rather than by a direct call, recognized by
// the primary analyzer's static scan (§4.3).
var DynamicRegistrationCallees = map[string]bool{
	"set_defaults": true, "add_command": true, "subscribe": true,
	"register": true, "add_url_rule": true, "connect": true,
}

// matchesKnownUsedPattern reports whether name matches any §3 known-used
// pattern.
func matchesKnownUsedPattern(name string) bool {
	for _, match := range KnownUsedPatterns {
		if match(name) {
			return true
		}
	}
	return false
}

// Classify applies the §3 confidence table to one symbol, given whether it
// was observed as a callee anywhere in the project's CallEdges. The first
// matching condition wins, exactly mirroring the table's row order.
func Classify(sym model.SymbolRecord, isCallee bool) (model.UsageStatus, float64) {
	if isCallee {
		return model.UsageUsed, 1.00
	}
	for _, tag := range sym.DecoratorTags {
		if FrameworkDecorators[tag] {
			return model.UsageLikelyUsed, 0.95
		}
	}
	if sym.DynamicallyRegistered {
		return model.UsageLikelyUsed, 0.90
	}
	if matchesKnownUsedPattern(sym.Name) {
		return model.UsageLikelyUsed, 0.85
	}
	private := strings.HasPrefix(sym.Name, "_")
	if private && sym.DocPresent {
		return model.UsagePossiblyUnused, 0.55
	}
	if private {
		return model.UsagePossiblyUnused, 0.65
	}
	if !private && sym.DocPresent {
		return model.UsagePossiblyUnused, 0.50
	}
	return model.UsageUnused, 0.75
}
