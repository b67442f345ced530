package conn

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestMonitorRefCountIsClamped(t *testing.T) {
	m := newLivenessMonitor(time.Hour, nil, nil)

	m.Release()
	m.Release()
	if refs := m.Refs(); refs != 0 {
		t.Fatalf("got %d references, want clamp at 0", refs)
	}

	m.Acquire()
	if refs := m.Refs(); refs != 1 {
		t.Fatalf("got %d references after acquire, want 1", refs)
	}
	m.Release()
}

func TestMonitorProbesWhileHeld(t *testing.T) {
	var probes atomic.Int32
	var unreachable atomic.Int32

	m := newLivenessMonitor(20*time.Millisecond,
		func() { probes.Add(1) },
		func(reachable bool) {
			if !reachable {
				unreachable.Add(1)
			}
		})

	m.Acquire()
	time.Sleep(90 * time.Millisecond)
	m.Release()

	if n := probes.Load(); n < 2 {
		t.Errorf("got %d probes while held, want at least 2", n)
	}
	if unreachable.Load() == 0 {
		t.Error("expected unreachable reports alongside the probes")
	}

	// Released: the probe timer must be stopped
	frozen := probes.Load()
	time.Sleep(60 * time.Millisecond)
	if n := probes.Load(); n != frozen {
		t.Errorf("monitor kept probing after release: %d -> %d", frozen, n)
	}
}

func TestOnceReachableFiresAfterGrace(t *testing.T) {
	m := newLivenessMonitor(time.Hour, nil, nil)

	fired := make(chan struct{})
	m.OnceReachable(20*time.Millisecond, func() { close(fired) })

	// No signal yet: the grace timer must not even be armed
	select {
	case <-fired:
		t.Fatal("canceller fired before the reachable signal")
	case <-time.After(50 * time.Millisecond):
	}

	m.SignalReachable()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("canceller did not fire after the grace period")
	}
}

func TestOnceReachableCancel(t *testing.T) {
	m := newLivenessMonitor(time.Hour, nil, nil)

	var fired atomic.Bool
	cancel := m.OnceReachable(20*time.Millisecond, func() { fired.Store(true) })

	m.SignalReachable()
	cancel()

	time.Sleep(60 * time.Millisecond)
	if fired.Load() {
		t.Error("cancelled listener fired anyway")
	}
}

func TestSignalReachableReports(t *testing.T) {
	reached := make(chan bool, 1)
	m := newLivenessMonitor(time.Hour, nil, func(reachable bool) { reached <- reachable })

	m.SignalReachable()

	select {
	case v := <-reached:
		if !v {
			t.Error("expected a reachable=true report")
		}
	case <-time.After(time.Second):
		t.Fatal("no liveness report")
	}
}

func TestResetDropsReferencesAndTimers(t *testing.T) {
	var fired atomic.Bool

	m := newLivenessMonitor(time.Hour, nil, nil)
	m.Acquire()
	m.Acquire()
	m.OnceReachable(20*time.Millisecond, func() { fired.Store(true) })
	m.SignalReachable()

	m.Reset()

	if refs := m.Refs(); refs != 0 {
		t.Errorf("got %d references after reset, want 0", refs)
	}

	time.Sleep(60 * time.Millisecond)
	if fired.Load() {
		t.Error("armed canceller survived the reset")
	}
}
