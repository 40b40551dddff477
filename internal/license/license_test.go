// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package license

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAdapter_ValidCheckReportsValid(t *testing.T) {
	a := New(func(ctx context.Context) (Status, error) { return StatusValid, nil }, time.Hour, 0, nil)
	a.Start(context.Background())
	defer a.Stop()

	require.Eventually(t, func() bool { return a.Status() == StatusValid }, time.Second, 5*time.Millisecond)
}

func TestAdapter_GracePeriodMasksTransientNetworkError(t *testing.T) {
	calls := 0
	check := func(ctx context.Context) (Status, error) {
		calls++
		if calls == 1 {
			return StatusValid, nil
		}
		return StatusNetworkError, errors.New("dial failed")
	}
	a := New(check, time.Hour, time.Minute, nil)
	a.pollOnce(context.Background())
	require.Equal(t, StatusValid, a.Status())

	a.pollOnce(context.Background())
	require.Equal(t, StatusValid, a.Status(), "within grace period a transient network error should not flip status")
}

func TestAdapter_NoGraceFlipsImmediately(t *testing.T) {
	calls := 0
	check := func(ctx context.Context) (Status, error) {
		calls++
		if calls == 1 {
			return StatusValid, nil
		}
		return StatusInvalid, nil
	}
	a := New(check, time.Hour, 0, nil)
	a.pollOnce(context.Background())
	a.pollOnce(context.Background())
	require.Equal(t, StatusInvalid, a.Status())
}

func TestAdapter_StartDoesNotBlock(t *testing.T) {
	a := New(func(ctx context.Context) (Status, error) {
		time.Sleep(50 * time.Millisecond)
		return StatusValid, nil
	}, time.Hour, 0, nil)

	done := make(chan struct{})
	go func() {
		a.Start(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(20 * time.Millisecond):
		t.Fatal("Start blocked longer than expected")
	}
	a.Stop()
}
