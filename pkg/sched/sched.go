// Package sched provides the timing primitives the engine depends on:
// a cancellable delayed-callback Scheduler and a Clock. Both are small
// interfaces so components can be driven deterministically in tests with
// the Manual implementation instead of real wall-clock waits.
package sched

import (
	"sync"
	"time"
)

// Handle identifies a scheduled callback for cancellation. The zero Handle
// is never issued and is safe to cancel as a no-op.
type Handle uint64

// Scheduler schedules a callback to run once after a delay. Callbacks may
// fire on an arbitrary goroutine; callers guard their own state.
type Scheduler interface {
	// After runs fn once after d elapses. A non-positive d still defers
	// the call (cooperative yield), it never runs fn inline.
	After(d time.Duration, fn func()) Handle

	// Cancel stops a pending callback. Returns false if the callback
	// already fired, was cancelled, or was never scheduled.
	Cancel(h Handle) bool
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// Timers is the production Scheduler, backed by time.AfterFunc.
type Timers struct {
	mu     sync.Mutex
	next   Handle
	timers map[Handle]*time.Timer
}

// NewTimers creates an empty timer scheduler.
func NewTimers() *Timers {
	return &Timers{timers: make(map[Handle]*time.Timer)}
}

// After implements Scheduler.
func (t *Timers) After(d time.Duration, fn func()) Handle {
	if d < 0 {
		d = 0
	}

	t.mu.Lock()
	t.next++
	h := t.next
	t.timers[h] = time.AfterFunc(d, func() {
		t.mu.Lock()
		delete(t.timers, h)
		t.mu.Unlock()
		fn()
	})
	t.mu.Unlock()
	return h
}

// Cancel implements Scheduler.
func (t *Timers) Cancel(h Handle) bool {
	t.mu.Lock()
	timer, ok := t.timers[h]
	if ok {
		delete(t.timers, h)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	return timer.Stop()
}

// Stop cancels every pending callback. Components call this on teardown so
// no timer outlives its owner.
func (t *Timers) Stop() {
	t.mu.Lock()
	for h, timer := range t.timers {
		timer.Stop()
		delete(t.timers, h)
	}
	t.mu.Unlock()
}

// Pending returns the number of callbacks not yet fired or cancelled.
func (t *Timers) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}
