package extension

import (
	"context"
	"errors"
	"sync"

	"github.com/imishinist/go-callbag"
	ssync "github.com/imishinist/go-callbag/sync"
)

// NewChanSource returns a pull-aware source fed by in. Every session runs a
// goroutine that waits for a pull request before it receives the next
// element, so nothing is read from in without demand. Closing in ends the
// session cleanly; cancelling ctx ends it with the context error.
//
// Sessions of one source compete for the elements of in.
func NewChanSource[T any](ctx context.Context, in <-chan T) callbag.Source[T] {
	return func(r callbag.Request[T]) {
		if err := r.Type.Validate(); err != nil {
			callbag.Violate(callbag.RoleSource, r.Type, err)
			return
		}
		if r.Type != callbag.Start {
			callbag.Violate(callbag.RoleSource, r.Type, callbag.ErrNotStarted)
			return
		}
		sink := r.Sink
		if sink == nil {
			callbag.Violate(callbag.RoleSource, r.Type, callbag.ErrMissingSink)
			return
		}

		ctx, cancel := context.WithCancel(ctx)
		demand := ssync.NewDemand()
		sink.Start(func(r callbag.Request[T]) {
			switch r.Type {
			case callbag.Data:
				demand.Add(1)
			case callbag.End:
				demand.Close()
				cancel()
			case callbag.Start:
				callbag.Violate(callbag.RoleTalkback, r.Type, callbag.ErrDoubleStart)
			default:
				callbag.Violate(callbag.RoleTalkback, r.Type, r.Type.Validate())
			}
		})

		go func() {
			defer cancel()
			for {
				if err := demand.Acquire(ctx); err != nil {
					if !errors.Is(err, ssync.ErrClosed) && demand.Close() {
						sink.End(err)
					}
					return
				}

				select {
				case <-ctx.Done():
					if demand.Close() {
						sink.End(ctx.Err())
					}
					return
				case v, ok := <-in:
					if !ok {
						if demand.Close() {
							sink.End(nil)
						}
						return
					}
					if demand.Closed() {
						return
					}
					sink.Data(v)
				}
			}
		}()
	}
}

// ChanSink writes every value to Out and closes Out when the session ends.
// A blocked Out holds back the next pull, which is how a slow reader slows
// down a pull-aware source.
type ChanSink[T any] struct {
	Out chan T

	consumer *consumer[T]

	mu  sync.Mutex
	err error
}

func NewChanSink[T any](out chan T) *ChanSink[T] {
	cs := &ChanSink[T]{Out: out}
	cs.consumer = newConsumer(cs.send, cs.end)
	return cs
}

func (cs *ChanSink[T]) Sink() callbag.Sink[T] {
	return cs.consumer.receive
}

func (cs *ChanSink[T]) send(v T) {
	cs.Out <- v
}

func (cs *ChanSink[T]) end(err error) {
	cs.mu.Lock()
	cs.err = err
	cs.mu.Unlock()
	close(cs.Out)
}

// Err returns the error the session ended with. Valid once Out is closed.
func (cs *ChanSink[T]) Err() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.err
}
