// Package debounce coalesces bursts of calls into a single delayed call.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs only the most recently triggered function once the delay has
// elapsed without another trigger. The zero value is not usable; use New.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending func()
	seq     uint64
}

// New creates a Debouncer with the given delay.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger cancels any pending call and schedules fn to run after the delay.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = fn
	d.timer = time.AfterFunc(d.delay, func() {
		d.fire(seq)
	})
}

// Flush runs the pending call immediately, if any, and reports whether one ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	fn := d.take()
	d.mu.Unlock()

	if fn == nil {
		return false
	}
	fn()
	return true
}

// Stop cancels the pending call without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.take()
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq {
		d.mu.Unlock()
		return
	}
	fn := d.take()
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// take clears the scheduled call and returns it. Callers hold mu.
func (d *Debouncer) take() func() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	fn := d.pending
	d.pending = nil
	d.seq++
	return fn
}
