// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package eventbus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jupiter/internal/model"
)

func TestBus_PublishDeliversToAllSubscribers(t *testing.T) {
	b := New()
	chA := b.Subscribe()
	chB := b.Subscribe(model.TopicScanStarted)

	b.Publish(model.Event{Topic: model.TopicScanStarted})
	require.Len(t, chA, 1)
	require.Len(t, chB, 1)

	b.Publish(model.Event{Topic: model.TopicJobFailed})
	require.Len(t, chA, 2)
	require.Len(t, chB, 1) // filtered out by topic
}

func TestBus_OverflowDropsWithoutBlocking(t *testing.T) {
	b := New()
	ch := b.Subscribe()

	for i := 0; i < SubscriberDepth+10; i++ {
		b.Publish(model.Event{Topic: model.TopicJobProgress})
	}
	require.Len(t, ch, SubscriberDepth)
	require.Equal(t, uint64(10), b.DroppedCount())
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	b := New()
	ch := b.Subscribe()
	b.Unsubscribe(ch)
	_, ok := <-ch
	require.False(t, ok)
}
