package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceWindow coalesces rapid writes to the same tenant before an
// invalidation fires. Editors and sync tools commonly emit several events
// per logical save.
const DefaultDebounceWindow = 200 * time.Millisecond

// Debouncer coalesces tenant change notifications. Repeated changes to the
// same tenant within the window collapse into one emission; the batch is
// emitted once the window elapses with no further activity.
type Debouncer struct {
	window time.Duration

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	output  chan []string
	stopped bool
}

// NewDebouncer creates a debouncer with the given window.
// A non-positive window uses the default.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{
		window:  window,
		pending: make(map[string]struct{}),
		output:  make(chan []string, 16),
	}
}

// Add records a change to a tenant and (re)schedules the flush.
func (d *Debouncer) Add(tenantID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending[tenantID] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.pending) == 0 {
		return
	}

	tenants := make([]string, 0, len(d.pending))
	for tenant := range d.pending {
		tenants = append(tenants, tenant)
	}
	d.pending = make(map[string]struct{})

	// Non-blocking send; a full channel means the consumer is wedged and
	// dropping a batch only delays an invalidation, never corrupts state.
	select {
	case d.output <- tenants:
	default:
	}
}

// Output returns the channel of coalesced tenant batches.
func (d *Debouncer) Output() <-chan []string {
	return d.output
}

// Stop stops the debouncer and closes the output channel.
// Safe to call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.output)
}
