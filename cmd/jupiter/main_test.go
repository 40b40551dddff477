// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_UnknownCommandReturnsUsageError(t *testing.T) {
	got := run([]string{"frobnicate"})
	assert.Equal(t, exitUsage, got)
}

func TestRun_NoCommandReturnsUsageError(t *testing.T) {
	got := run([]string{})
	assert.Equal(t, exitUsage, got)
}

func TestRun_VersionFlagShortCircuits(t *testing.T) {
	got := run([]string{"--version"})
	assert.Equal(t, exitOK, got)
}

func TestRun_BadGlobalFlagReturnsUsageError(t *testing.T) {
	got := run([]string{"--not-a-real-flag"})
	assert.Equal(t, exitUsage, got)
}

func TestRun_DispatchesToRegisteredVerb(t *testing.T) {
	prev := dispatchTable["scan"]
	called := false
	dispatchTable["scan"] = func(args []string, globals GlobalFlags) int {
		called = true
		return exitOK
	}
	defer func() { dispatchTable["scan"] = prev }()

	got := run([]string{"scan"})
	assert.True(t, called)
	assert.Equal(t, exitOK, got)
}

func TestRun_MalformedPluginVerbReturnsUsageError(t *testing.T) {
	got := run([]string{"p:onlyonepart"})
	assert.Equal(t, exitUsage, got)
}
