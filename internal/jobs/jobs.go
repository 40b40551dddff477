// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package jobs implements the C12 job manager: submit, the
// pending/running/completed/failed/cancelled state machine, a global and
// per-plugin concurrency cap, and a per-plugin circuit breaker modeled on
// pkg/ingestion/embedding.go's RetryConfig (exponential backoff with a cap),
// generalized here into a sliding failure-ratio window instead of a single
// retry loop.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kraklabs/jupiter/internal/errors"
	"github.com/kraklabs/jupiter/internal/eventbus"
	"github.com/kraklabs/jupiter/internal/model"
)

// Handler is the work a submitted job performs. It must return promptly
// after ctx is cancelled (cooperative cancellation; the manager never kills
// a handler's goroutine).
type Handler func(ctx context.Context, progress func(pct int, message string)) error

// BreakerConfig tunes the per-plugin circuit breaker.
type BreakerConfig struct {
	WindowSize       int           // N: sliding window of terminal outcomes, default 20
	FailureThreshold float64       // p_fail, default 0.5
	MinOutcomes      int           // k, default 5
	CooldownBase     time.Duration // default 60s
	CooldownCap      time.Duration // default 10m
}

// DefaultBreakerConfig matches spec.md §4.11's defaults.
var DefaultBreakerConfig = BreakerConfig{
	WindowSize: 20, FailureThreshold: 0.5, MinOutcomes: 5,
	CooldownBase: 60 * time.Second, CooldownCap: 10 * time.Minute,
}

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// breaker is one plugin's circuit breaker.
type breaker struct {
	mu            sync.Mutex
	cfg           BreakerConfig
	outcomes      []bool // true = success
	state         breakerState
	openedAt      time.Time
	cooldown      time.Duration
	probeInFlight bool
}

func newBreaker(cfg BreakerConfig) *breaker {
	return &breaker{cfg: cfg, cooldown: cfg.CooldownBase}
}

// allow reports whether a new job may be admitted for this plugin right
// now, and if the breaker is half-open, marks a probe as in-flight.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case breakerClosed:
		return true
	case breakerOpen:
		if time.Since(b.openedAt) >= b.cooldown {
			b.state = breakerHalfOpen
			b.probeInFlight = true
			return true
		}
		return false
	case breakerHalfOpen:
		return !b.probeInFlight
	}
	return true
}

func (b *breaker) recordOutcome(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == breakerHalfOpen {
		b.probeInFlight = false
		if success {
			b.state = breakerClosed
			b.cooldown = b.cfg.CooldownBase
			b.outcomes = nil
		} else {
			b.state = breakerOpen
			b.openedAt = time.Now()
			b.cooldown *= 2
			if b.cooldown > b.cfg.CooldownCap {
				b.cooldown = b.cfg.CooldownCap
			}
		}
		return
	}

	b.outcomes = append(b.outcomes, success)
	if len(b.outcomes) > b.cfg.WindowSize {
		b.outcomes = b.outcomes[len(b.outcomes)-b.cfg.WindowSize:]
	}
	if len(b.outcomes) < b.cfg.MinOutcomes {
		return
	}
	failures := 0
	for _, s := range b.outcomes {
		if !s {
			failures++
		}
	}
	if float64(failures)/float64(len(b.outcomes)) > b.cfg.FailureThreshold {
		b.state = breakerOpen
		b.openedAt = time.Now()
	}
}

// Manager runs submitted jobs under global and per-plugin concurrency
// limits, a per-plugin circuit breaker, and a rate-limited JOB_PROGRESS
// event stream.
type Manager struct {
	bus                 *eventbus.Bus
	maxConcurrent       int
	pluginMaxConcurrent int
	breakerCfg          BreakerConfig

	mu            sync.Mutex
	jobs          map[string]*model.Job
	breakers      map[string]*breaker
	running       int
	pluginRunning map[string]int
}

// NewManager creates a Manager. Zero limits mean unbounded.
func NewManager(bus *eventbus.Bus, maxConcurrent, pluginMaxConcurrent int, breakerCfg BreakerConfig) *Manager {
	if breakerCfg.WindowSize == 0 {
		breakerCfg = DefaultBreakerConfig
	}
	return &Manager{
		bus: bus, maxConcurrent: maxConcurrent, pluginMaxConcurrent: pluginMaxConcurrent,
		breakerCfg: breakerCfg, jobs: map[string]*model.Job{}, breakers: map[string]*breaker{},
		pluginRunning: map[string]int{},
	}
}

func (m *Manager) breakerFor(pluginID string) *breaker {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.breakers[pluginID]
	if !ok {
		b = newBreaker(m.breakerCfg)
		m.breakers[pluginID] = b
	}
	return b
}

// Submit registers a job and starts it asynchronously once admitted by the
// concurrency limits and circuit breaker; it returns immediately with the
// job id.
func (m *Manager) Submit(ctx context.Context, pluginID string, handler Handler, timeout time.Duration) (string, error) {
	b := m.breakerFor(pluginID)
	if !b.allow() {
		return "", errors.NewPolicyDeniedError(
			fmt.Sprintf("circuit open for plugin %q", pluginID),
			"recent job failure ratio exceeded the breaker threshold",
			"wait for the cool-down period to elapse before retrying",
		)
	}

	jobID := uuid.NewString()
	job := &model.Job{JobID: jobID, PluginID: pluginID, State: model.JobPending}

	m.mu.Lock()
	m.jobs[jobID] = job
	m.mu.Unlock()

	go m.run(ctx, job, b, handler, timeout)
	return jobID, nil
}

func (m *Manager) run(parent context.Context, job *model.Job, b *breaker, handler Handler, timeout time.Duration) {
	m.mu.Lock()
	if (m.maxConcurrent > 0 && m.running >= m.maxConcurrent) ||
		(m.pluginMaxConcurrent > 0 && m.pluginRunning[job.PluginID] >= m.pluginMaxConcurrent) {
		// Admission deferred: spin a short backoff loop rather than blocking
		// the submitter; production scale would use a wait queue per plugin.
		m.mu.Unlock()
		for {
			time.Sleep(10 * time.Millisecond)
			m.mu.Lock()
			if (m.maxConcurrent == 0 || m.running < m.maxConcurrent) &&
				(m.pluginMaxConcurrent == 0 || m.pluginRunning[job.PluginID] < m.pluginMaxConcurrent) {
				break
			}
			m.mu.Unlock()
		}
	}
	m.running++
	m.pluginRunning[job.PluginID]++
	now := time.Now()
	job.State = model.JobRunning
	job.StartedAt = &now
	m.mu.Unlock()

	m.publish(model.TopicJobStarted, job)

	ctx := parent
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
		defer cancel()
	}

	lastProgress := time.Time{}
	progress := func(pct int, message string) {
		m.mu.Lock()
		job.Progress = pct
		job.Message = message
		m.mu.Unlock()
		if time.Since(lastProgress) < 250*time.Millisecond {
			return // 4 Hz rate limit
		}
		lastProgress = time.Now()
		m.publish(model.TopicJobProgress, job)
	}

	err := handler(ctx, progress)

	m.mu.Lock()
	m.running--
	m.pluginRunning[job.PluginID]--
	endedAt := time.Now()
	job.EndedAt = &endedAt
	success := err == nil
	switch {
	case job.CancelRequested && err != nil:
		job.State = model.JobCancelled
	case ctx.Err() == context.DeadlineExceeded:
		job.State = model.JobFailed
		job.FailureReason = "timeout"
		success = false
	case err != nil:
		job.State = model.JobFailed
		job.FailureReason = err.Error()
		success = false
	default:
		job.State = model.JobCompleted
	}
	m.mu.Unlock()

	b.recordOutcome(success)

	topic := model.TopicJobCompleted
	if job.State != model.JobCompleted {
		topic = model.TopicJobFailed
	}
	m.publish(topic, job)
}

// Cancel sets the cancellation flag on a pending or running job; the
// handler is expected to observe ctx.Done() and return cooperatively. Jupiter
// never attempts a hard kill.
func (m *Manager) Cancel(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return errors.NewTaxonomyNotFoundError(
			fmt.Sprintf("job %q not found", jobID), "no job with that id is tracked", "check the job id returned by submit",
		)
	}
	job.CancelRequested = true
	return nil
}

// Get returns the current state of job jobID.
func (m *Manager) Get(jobID string) (model.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return model.Job{}, false
	}
	return *job, true
}

func (m *Manager) publish(topic model.Topic, job *model.Job) {
	if m.bus == nil {
		return
	}
	m.mu.Lock()
	snapshot := *job
	m.mu.Unlock()
	m.bus.Publish(model.Event{Topic: topic, Payload: snapshot, ProducedAt: time.Now()})
}
