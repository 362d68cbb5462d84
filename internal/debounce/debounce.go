package debounce

import (
	"sync"
	"time"
)

// Debouncer defers fn until no new Trigger has arrived for the quiet
// period; only the last call within the window runs. A dispatched call is
// never cancelled.
type Debouncer struct {
	quiet time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func New(quiet time.Duration) *Debouncer {
	return &Debouncer{quiet: quiet}
}

func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, fn)
}

// Stop drops a pending call, if any
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
