package watch

import (
	"sync"
	"time"
)

// Debouncer delays a callback until events for a key have settled.
// Trailing edge: only the last call within the interval fires.
type Debouncer struct {
	interval time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewDebouncer creates a debouncer with the given settle interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		timers:   make(map[string]*time.Timer),
	}
}

// Trigger schedules fn to run after the interval, replacing any
// pending run for the same key.
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	if timer, ok := d.timers[key]; ok {
		timer.Stop()
	}
	d.timers[key] = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		delete(d.timers, key)
		closed := d.closed
		d.mu.Unlock()
		if !closed {
			fn()
		}
	})
}

// Stop cancels all pending runs. The debouncer cannot be reused.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
}
