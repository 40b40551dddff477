// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jupiter/internal/eventbus"
	"github.com/kraklabs/jupiter/internal/model"
)

func waitForTerminal(t *testing.T, m *Manager, jobID string) model.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := m.Get(jobID)
		require.True(t, ok)
		switch job.State {
		case model.JobCompleted, model.JobFailed, model.JobCancelled:
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job did not reach a terminal state in time")
	return model.Job{}
}

func TestManager_SubmitCompletes(t *testing.T) {
	m := NewManager(eventbus.New(), 0, 0, DefaultBreakerConfig)
	jobID, err := m.Submit(context.Background(), "plugin-a", func(ctx context.Context, progress func(int, string)) error {
		progress(50, "halfway")
		return nil
	}, 0)
	require.NoError(t, err)

	job := waitForTerminal(t, m, jobID)
	require.Equal(t, model.JobCompleted, job.State)
}

func TestManager_HandlerErrorMarksFailed(t *testing.T) {
	m := NewManager(eventbus.New(), 0, 0, DefaultBreakerConfig)
	jobID, err := m.Submit(context.Background(), "plugin-a", func(ctx context.Context, progress func(int, string)) error {
		return errors.New("boom")
	}, 0)
	require.NoError(t, err)

	job := waitForTerminal(t, m, jobID)
	require.Equal(t, model.JobFailed, job.State)
	require.Equal(t, "boom", job.FailureReason)
}

func TestManager_TimeoutMarksFailedWithReason(t *testing.T) {
	m := NewManager(eventbus.New(), 0, 0, DefaultBreakerConfig)
	jobID, err := m.Submit(context.Background(), "plugin-a", func(ctx context.Context, progress func(int, string)) error {
		<-ctx.Done()
		return ctx.Err()
	}, 20*time.Millisecond)
	require.NoError(t, err)

	job := waitForTerminal(t, m, jobID)
	require.Equal(t, model.JobFailed, job.State)
	require.Equal(t, "timeout", job.FailureReason)
}

func TestBreaker_OpensAfterFailureRatioExceeded(t *testing.T) {
	cfg := BreakerConfig{WindowSize: 10, FailureThreshold: 0.5, MinOutcomes: 4, CooldownBase: time.Hour, CooldownCap: time.Hour}
	b := newBreaker(cfg)
	for i := 0; i < 3; i++ {
		require.True(t, b.allow())
		b.recordOutcome(false)
	}
	require.True(t, b.allow())
	b.recordOutcome(false) // 4th failure of 4 outcomes -> ratio 1.0 > 0.5

	require.False(t, b.allow())
}

func TestManager_CircuitOpenRejectsSubmit(t *testing.T) {
	cfg := BreakerConfig{WindowSize: 4, FailureThreshold: 0.5, MinOutcomes: 2, CooldownBase: time.Hour, CooldownCap: time.Hour}
	m := NewManager(eventbus.New(), 0, 0, cfg)

	for i := 0; i < 2; i++ {
		jobID, err := m.Submit(context.Background(), "plugin-b", func(ctx context.Context, progress func(int, string)) error {
			return errors.New("fail")
		}, 0)
		require.NoError(t, err)
		waitForTerminal(t, m, jobID)
	}

	_, err := m.Submit(context.Background(), "plugin-b", func(ctx context.Context, progress func(int, string)) error {
		return nil
	}, 0)
	require.Error(t, err)
}
