// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package eventbus implements the C11 event bus: a fixed-topic pub/sub
// fanout with one bounded, FIFO-delivered channel per subscriber. A
// subscriber that falls behind has its event dropped rather than blocking
// the publisher; drops increment the bus_overflow Prometheus counter.
package eventbus

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kraklabs/jupiter/internal/model"
)

// SubscriberDepth is the per-subscriber channel buffer size.
const SubscriberDepth = 1024

var (
	metricsOnce sync.Once
	overflow    prometheus.Counter
)

func initMetrics() {
	metricsOnce.Do(func() {
		overflow = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jupiter_bus_overflow_total",
			Help: "Events dropped because a subscriber's channel was full.",
		})
		prometheus.MustRegister(overflow)
	})
}

// subscriber is one registered consumer: Publish sends into its buffered
// channel and the consumer reads that channel directly; there is no
// per-subscriber goroutine. Events published from one goroutine arrive in
// the order they were published.
type subscriber struct {
	ch     chan model.Event
	topics map[model.Topic]bool // empty means all topics
}

// Bus fans events out to subscribers.
type Bus struct {
	mu          sync.RWMutex
	subscribers []*subscriber
	closed      bool
	dropped     atomic.Uint64
}

// New creates an empty Bus.
func New() *Bus {
	initMetrics()
	return &Bus{}
}

// Subscribe registers a new consumer and returns a receive-only channel of
// depth SubscriberDepth. An empty topics set receives every topic.
func (b *Bus) Subscribe(topics ...model.Topic) <-chan model.Event {
	sub := &subscriber{ch: make(chan model.Event, SubscriberDepth), topics: map[model.Topic]bool{}}
	for _, t := range topics {
		sub.topics[t] = true
	}
	b.mu.Lock()
	b.subscribers = append(b.subscribers, sub)
	b.mu.Unlock()
	return sub.ch
}

// Unsubscribe removes ch from delivery and closes it.
func (b *Bus) Unsubscribe(ch <-chan model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subscribers {
		if sub.ch == ch {
			close(sub.ch)
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}

// Publish delivers event to every subscriber interested in its topic. A
// subscriber whose channel is full has the event dropped for it alone; the
// event still reaches every other subscriber.
func (b *Bus) Publish(event model.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.subscribers {
		if len(sub.topics) > 0 && !sub.topics[event.Topic] {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
			overflow.Inc()
		}
	}
}

// DroppedCount returns the cumulative number of events dropped for overflow
// across every subscriber.
func (b *Bus) DroppedCount() uint64 {
	return b.dropped.Load()
}

// Close stops delivery and closes every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subscribers {
		close(sub.ch)
	}
	b.subscribers = nil
}
