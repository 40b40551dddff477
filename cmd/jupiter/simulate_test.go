// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsSymbolSeparator(t *testing.T) {
	cases := []struct {
		target string
		want   bool
	}{
		{"internal/graph/graph.go", false},
		{"internal/graph/graph.go::Build", true},
		{"a::b", true},
		{"a:b", false},
		{"", false},
		{":", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, containsSymbolSeparator(c.target), "target=%q", c.target)
	}
}

func TestRunSimulate_RejectsMissingRemoveSubcommand(t *testing.T) {
	got := runSimulate([]string{}, GlobalFlags{Root: "."})
	assert.Equal(t, exitUsage, got)
}

func TestRunSimulate_RejectsUnknownSubcommand(t *testing.T) {
	got := runSimulate([]string{"add", "foo.go"}, GlobalFlags{Root: "."})
	assert.Equal(t, exitUsage, got)
}
