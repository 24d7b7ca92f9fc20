package ipc

import (
	"sync"
	"time"
)

// connState is the IPC Client's connectivity state, adapted from the
// teacher's provider.healthTracker (healthy/cooldown renamed
// connected/backoff per SPEC_FULL §4.B). Unlike the teacher's tracker,
// there is no terminal "dead" state: §4.B requires the client to keep
// attempting reconnects on the same backoff schedule indefinitely, since
// the compositor coming back up must always be observable.
type connState int

const (
	stateConnected connState = iota
	stateBackoff
)

// backoffConfig controls the reconnect schedule: 200ms doubling to 5s,
// per SPEC_FULL §4.B (the teacher's own tracker defaults to 1s/60s).
type backoffConfig struct {
	Initial time.Duration
	Max     time.Duration
}

func defaultBackoffConfig() backoffConfig {
	return backoffConfig{Initial: 200 * time.Millisecond, Max: 5 * time.Second}
}

// healthTracker mirrors the teacher's provider.healthTracker: it decides
// whether the client should attempt a reconnect right now, and for how
// long to wait if not.
type healthTracker struct {
	cfg backoffConfig

	mu              sync.Mutex
	state           connState
	failures        int
	currentBackoff  time.Duration
	cooldownExpires time.Time

	now func() time.Time
}

func newHealthTracker(cfg backoffConfig) *healthTracker {
	return &healthTracker{cfg: cfg, state: stateConnected, now: time.Now}
}

func (h *healthTracker) IsAvailable() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch h.state {
	case stateConnected:
		return true
	default:
		return !h.now().Before(h.cooldownExpires)
	}
}

func (h *healthTracker) RecordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = stateConnected
	h.failures = 0
	h.currentBackoff = 0
}

func (h *healthTracker) RecordFailure() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures++
	h.state = stateBackoff

	if h.currentBackoff == 0 {
		h.currentBackoff = h.cfg.Initial
	} else {
		h.currentBackoff *= 2
	}
	if h.currentBackoff > h.cfg.Max {
		h.currentBackoff = h.cfg.Max
	}
	h.cooldownExpires = h.now().Add(h.currentBackoff)
}

func (h *healthTracker) State() connState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// NextBackoff reports the current reconnect wait, for diagnostics.
func (h *healthTracker) NextBackoff() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentBackoff
}
