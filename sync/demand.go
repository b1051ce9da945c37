package sync

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Acquire once the demand has been closed.
var ErrClosed = errors.New("demand closed")

// Demand counts outstanding pull requests of one session. Pulls beyond what
// the source can serve accumulate; they are never rejected.
type Demand struct {
	mu       sync.Mutex
	pending  uint64
	closed   bool
	draining bool

	// signalled when pending goes from 0 to >0 or the demand is closed
	updates chan struct{}
}

func NewDemand() *Demand {
	return &Demand{
		updates: make(chan struct{}, 1),
	}
}

// Add records n pull requests.
func (d *Demand) Add(n uint64) {
	if n == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	prev := d.pending
	d.pending += n
	if prev == 0 {
		d.notify()
	}
}

// TryAcquire consumes one request if there is one.
func (d *Demand) TryAcquire() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.pending == 0 {
		return false
	}
	d.pending--
	return true
}

// Acquire blocks until a request is available and consumes it.
func (d *Demand) Acquire(ctx context.Context) error {
	for {
		d.mu.Lock()
		if d.closed {
			d.mu.Unlock()
			return ErrClosed
		}
		if d.pending > 0 {
			d.pending--
			if d.pending > 0 {
				// hand the wake-up on to the next waiter
				d.notify()
			}
			d.mu.Unlock()
			return nil
		}
		d.mu.Unlock()

		select {
		case <-d.updates:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Drain calls emit once per outstanding request until the requests run out,
// the demand is closed or emit returns false. Requests added from inside emit
// are served by the running loop instead of a nested one, so synchronous
// sources never recurse per value.
func (d *Demand) Drain(emit func() bool) {
	d.mu.Lock()
	if d.draining {
		d.mu.Unlock()
		return
	}
	d.draining = true
	for d.pending > 0 && !d.closed {
		d.pending--
		d.mu.Unlock()
		ok := emit()
		d.mu.Lock()
		if !ok {
			break
		}
	}
	d.draining = false
	d.mu.Unlock()
}

// Close drops all outstanding requests and wakes blocked Acquire calls.
// It reports whether this call closed the demand.
func (d *Demand) Close() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.closed = true
	d.pending = 0
	close(d.updates)
	return true
}

func (d *Demand) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Demand) Pending() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Demand) notify() {
	select {
	case d.updates <- struct{}{}:
	default:
	}
}
