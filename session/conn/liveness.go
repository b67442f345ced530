package conn

import (
	"sync"
	"time"
)

// --------------------------------------------------------------------------
// Remote Liveness Monitor
// --------------------------------------------------------------------------

// LivenessMonitor probes the remote peer application while at least one
// query is waiting on a response that requires the peer to be reachable.
// It is reference counted: the probe timer runs only between the 0→1
// acquire transition and the matching release back to zero.
type LivenessMonitor struct {
	mu       sync.Mutex
	refs     int
	interval time.Duration
	stopCh   chan struct{}

	probe  func()               // sends a liveness probe query
	report func(reachable bool) // external liveness callback

	waiters []*reachableWaiter
}

// reachableWaiter is a one-shot listener armed on the peer-reachable signal.
// Once the signal fires, the grace timer starts; if the owning query is
// still pending when it elapses, fn cancels it.
type reachableWaiter struct {
	grace time.Duration
	fn    func()
	timer *time.Timer
}

// newLivenessMonitor creates a stopped monitor.
func newLivenessMonitor(interval time.Duration, probe func(), report func(bool)) *LivenessMonitor {
	return &LivenessMonitor{
		interval: interval,
		probe:    probe,
		report:   report,
	}
}

// Acquire increments the waiter count and starts the probe timer on the 0→1
// transition.
func (m *LivenessMonitor) Acquire() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refs++
	if m.refs == 1 {
		m.stopCh = make(chan struct{})
		go m.run(m.stopCh)
	}
}

// Release decrements the waiter count and stops the probe timer once it
// reaches zero. The count is clamped, it never goes negative.
func (m *LivenessMonitor) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refs--
	if m.refs <= 0 {
		m.refs = 0
		m.stopLocked()
	}
}

// Refs returns the current waiter count.
func (m *LivenessMonitor) Refs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refs
}

// Reset zeroes the waiter count, stops the probe timer and drops every
// armed canceller. Called on connection teardown.
func (m *LivenessMonitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refs = 0
	m.stopLocked()

	for _, w := range m.waiters {
		if w.timer != nil {
			w.timer.Stop()
		}
	}
	m.waiters = nil
}

// stopLocked stops the probe goroutine; the caller holds m.mu
func (m *LivenessMonitor) stopLocked() {
	if m.stopCh != nil {
		close(m.stopCh)
		m.stopCh = nil
	}
}

// run sends probes and reports "peer unreachable" until stopped
func (m *LivenessMonitor) run(stopCh chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if m.report != nil {
				m.report(false)
			}
			if m.probe != nil {
				m.probe()
			}
		}
	}
}

// --------------------------------------------------------------------------
// Peer-Reachable Signal
// --------------------------------------------------------------------------

// OnceReachable arms a one-shot canceller: once SignalReachable fires, a
// grace timer starts, and fn runs if it elapses. The returned cancel
// function tears the listener and its timer down; it must be called when the
// owning query settles by any means so no timer outlives the call.
func (m *LivenessMonitor) OnceReachable(grace time.Duration, fn func()) (cancel func()) {
	w := &reachableWaiter{grace: grace, fn: fn}

	m.mu.Lock()
	m.waiters = append(m.waiters, w)
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		for i, other := range m.waiters {
			if other == w {
				m.waiters = append(m.waiters[:i], m.waiters[i+1:]...)
				break
			}
		}
		if w.timer != nil {
			w.timer.Stop()
		}
	}
}

// SignalReachable reports that the remote peer is confirmed reachable. It
// starts the grace timer of every armed canceller that has not started yet.
func (m *LivenessMonitor) SignalReachable() {
	m.mu.Lock()
	for _, w := range m.waiters {
		if w.timer == nil {
			w.timer = time.AfterFunc(w.grace, w.fn)
		}
	}
	m.mu.Unlock()

	if m.report != nil {
		m.report(true)
	}
}
