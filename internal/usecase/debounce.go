package usecase

import (
	"sync"
	"time"
)

// Debouncer runs the most recently triggered function once the input has been
// quiet for the window. Triggering again inside the window restarts it.
type Debouncer struct {
	window time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, fn)
}

// Cancel drops the pending run, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
