// Package debounce collapses bursts of calls into a single trailing call.
package debounce

import (
	"sync"
	"time"
)

// Timer is a scheduled callback that can be stopped before it fires.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. RealClock uses time.AfterFunc; tests use
// ManualClock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// Debouncer runs fn once after delay has elapsed without another Schedule
// call. A Schedule during the window restarts it; the trailing call is never
// dropped unless Cancel or Close is called.
type Debouncer struct {
	clock Clock
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   Timer
	gen     uint64
	pending bool
	closed  bool
}

// New creates a Debouncer. A nil clock means RealClock.
func New(clock Clock, delay time.Duration, fn func()) *Debouncer {
	if clock == nil {
		clock = RealClock
	}
	return &Debouncer{clock: clock, delay: delay, fn: fn}
}

// Schedule starts or restarts the debounce window.
func (d *Debouncer) Schedule() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}

	d.gen++
	gen := d.gen
	d.pending = true
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Cancel drops a pending call. Returns true if one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

// Flush runs a pending call immediately instead of waiting for the window.
// Returns true if a call was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if !d.cancelLocked() {
		d.mu.Unlock()
		return false
	}
	d.mu.Unlock()

	d.fn()
	return true
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Close cancels any pending call and makes later Schedule calls no-ops.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.closed = true
}

func (d *Debouncer) cancelLocked() bool {
	if !d.pending {
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	// bump the generation so a timer that already fired but has not yet taken
	// the lock becomes a no-op
	d.gen++
	d.pending = false
	return true
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.closed || gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}
