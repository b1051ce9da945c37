package extension

import (
	"context"
	"sync"

	"github.com/imishinist/go-callbag"
)

// Collector is a sink that accumulates every delivered value in order and
// records how the session ended. A Collector serves a single session.
type Collector[T any] struct {
	consumer *consumer[T]

	mu        sync.Mutex
	values    []T
	ended     bool
	cancelled bool
	err       error

	done chan struct{}
}

func NewCollector[T any]() *Collector[T] {
	c := &Collector[T]{
		done: make(chan struct{}),
	}
	c.consumer = newConsumer(c.append, c.end)
	return c
}

// Sink returns the sink side to pass to a source.
func (c *Collector[T]) Sink() callbag.Sink[T] {
	return c.consumer.receive
}

func (c *Collector[T]) append(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = append(c.values, v)
}

func (c *Collector[T]) end(err error) {
	c.mu.Lock()
	c.ended = true
	c.err = err
	c.mu.Unlock()
	close(c.done)
}

// Stop ends the session early from the sink side.
func (c *Collector[T]) Stop() {
	if !c.consumer.stop(nil) {
		return
	}
	c.mu.Lock()
	c.cancelled = true
	c.mu.Unlock()
	close(c.done)
}

// Values returns a copy of the values collected so far.
func (c *Collector[T]) Values() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.values...)
}

// Ended reports whether the source ended the session.
func (c *Collector[T]) Ended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ended
}

func (c *Collector[T]) Cancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

// Err returns the error the source ended with; nil for a clean end.
func (c *Collector[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Done is closed once the session has terminated in either direction.
func (c *Collector[T]) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the session terminates and returns the collected values
// and the end error.
func (c *Collector[T]) Wait(ctx context.Context) ([]T, error) {
	select {
	case <-c.done:
		return c.Values(), c.Err()
	case <-ctx.Done():
		return c.Values(), ctx.Err()
	}
}
