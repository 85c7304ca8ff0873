// Package debounce delays a rapidly changing value until it stops changing.
package debounce

import (
	"sync"
	"time"
)

// Debouncer forwards the last pushed value to its settle function once no
// new value was pushed for the configured delay.
type Debouncer[T any] struct {
	mu         sync.Mutex
	delay      time.Duration
	onSettle   func(T)
	timer      *time.Timer
	seq        uint64
	pending    bool
	value      T
	settled    T
	hasSettled bool
	stopped    bool
}

// New returns a Debouncer calling onSettle with settled values. A
// non-positive delay settles every value synchronously within Push.
func New[T any](delay time.Duration, onSettle func(T)) *Debouncer[T] {
	return &Debouncer[T]{
		delay:    delay,
		onSettle: onSettle,
	}
}

// Push replaces the pending value and restarts the delay.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.delay <= 0 {
		d.pending = false
		d.settleLocked(v)
		d.mu.Unlock()
		d.emit(v)
		return
	}
	seq := d.seq
	d.value = v
	d.pending = true
	d.timer = time.AfterFunc(
		d.delay, func() {
			d.fire(seq)
		},
	)
	d.mu.Unlock()
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	// a push after this timer was scheduled owns the value now
	if d.stopped || !d.pending || seq != d.seq {
		d.mu.Unlock()
		return
	}
	v := d.value
	d.pending = false
	d.timer = nil
	d.settleLocked(v)
	d.mu.Unlock()
	d.emit(v)
}

func (d *Debouncer[T]) settleLocked(v T) {
	d.settled = v
	d.hasSettled = true
}

func (d *Debouncer[T]) emit(v T) {
	if d.onSettle != nil {
		d.onSettle(v)
	}
}

// Flush settles the pending value immediately. It returns false if no value
// was pending.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if d.stopped || !d.pending {
		d.mu.Unlock()
		return false
	}
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	v := d.value
	d.pending = false
	d.settleLocked(v)
	d.mu.Unlock()
	d.emit(v)
	return true
}

// Stop cancels a pending value without settling it. Values pushed after Stop
// are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = false
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a pushed value waits for the delay to elapse.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Settled returns the last settled value; false if none settled yet.
func (d *Debouncer[T]) Settled() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settled, d.hasSettled
}
