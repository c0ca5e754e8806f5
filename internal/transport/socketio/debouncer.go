package socketio

import (
	"sync"
	"time"
)

// RefreshDebouncer collapses bursts of library change signals (MPD
// database events, filesystem notifications) into a single refresh.
// The callback fires once the window elapses without further triggers.
type RefreshDebouncer struct {
	window   time.Duration
	callback func()

	mu      sync.Mutex
	pending bool
	timer   *time.Timer
	stopped bool
}

// NewRefreshDebouncer creates a debouncer with the given window duration.
func NewRefreshDebouncer(window time.Duration, callback func()) *RefreshDebouncer {
	return &RefreshDebouncer{
		window:   window,
		callback: callback,
	}
}

// Trigger records a change signal and restarts the window.
func (d *RefreshDebouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.pending = true

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// flush fires the callback if a trigger is pending.
func (d *RefreshDebouncer) flush() {
	d.mu.Lock()
	fire := d.pending && !d.stopped
	d.pending = false
	d.mu.Unlock()

	if fire && d.callback != nil {
		d.callback()
	}
}

// Stop prevents any further callbacks from firing.
func (d *RefreshDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = false
}
