// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jupiter/internal/eventbus"
	"github.com/kraklabs/jupiter/internal/model"
)

func basePolicy() Policy {
	return Policy{AllowRun: true, AllowedCommands: []string{"echo"}, CallerIsAdmin: true, LicenseOK: true}
}

func TestPolicy_Validate_EnforcesInOrder(t *testing.T) {
	p := Policy{}
	err := p.Validate([]string{"echo", "hi"})
	require.Error(t, err)

	p.AllowRun = true
	err = p.Validate([]string{"rm", "-rf"})
	require.Error(t, err)

	p.AllowedCommands = []string{"echo"}
	err = p.Validate([]string{"echo", "hi"})
	require.Error(t, err) // not admin yet

	p.CallerIsAdmin = true
	err = p.Validate([]string{"echo", "hi"})
	require.Error(t, err) // no license

	p.LicenseOK = true
	require.NoError(t, p.Validate([]string{"echo", "hi"}))
}

func TestRunner_RunStreamsOutputAndExitCode(t *testing.T) {
	bus := eventbus.New()
	ch := bus.Subscribe(model.TopicRunStarted, model.TopicRunFinished)
	r := New(bus, nil, nil)

	result, err := r.Run(context.Background(), basePolicy(), []string{"echo", "hello"}, false, nil)
	require.NoError(t, err)
	require.Equal(t, 0, result.ExitCode)
	require.Contains(t, result.Stdout, "hello")
	require.Nil(t, result.Trace)
	require.NotEmpty(t, ch)
}

func TestRunner_WithDynamicAttachesTrace(t *testing.T) {
	r := New(nil, NoopTracer{}, nil)
	result, err := r.Run(context.Background(), basePolicy(), []string{"echo", "hi"}, true, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Trace)
}
