package extension

import (
	"sync"
	"sync/atomic"

	"github.com/imishinist/go-callbag"
)

// Emitter is a push-only source: values passed to Emit go to every started
// session, and pull requests are ignored. Sessions that start after Close
// are ended right after the handshake.
//
// The session list is guarded by mu, which is released before any sink is
// called.
type Emitter[T any] struct {
	mu       sync.Mutex
	sessions map[*emitterSession[T]]struct{}
	closed   bool
	err      error
}

type emitterSession[T any] struct {
	sink    callbag.Sink[T]
	started atomic.Bool
	ended   atomic.Bool
}

func NewEmitter[T any]() *Emitter[T] {
	return &Emitter[T]{
		sessions: make(map[*emitterSession[T]]struct{}),
	}
}

// Source returns the push source side of the emitter.
func (e *Emitter[T]) Source() callbag.Source[T] {
	return func(r callbag.Request[T]) {
		if err := r.Type.Validate(); err != nil {
			callbag.Violate(callbag.RoleSource, r.Type, err)
			return
		}
		if r.Type != callbag.Start {
			callbag.Violate(callbag.RoleSource, r.Type, callbag.ErrNotStarted)
			return
		}
		if r.Sink == nil {
			callbag.Violate(callbag.RoleSource, r.Type, callbag.ErrMissingSink)
			return
		}

		s := &emitterSession[T]{sink: r.Sink}
		e.mu.Lock()
		e.sessions[s] = struct{}{}
		e.mu.Unlock()

		r.Sink.Start(func(r callbag.Request[T]) {
			switch r.Type {
			case callbag.Data:
				// push only
			case callbag.End:
				if s.ended.CompareAndSwap(false, true) {
					e.remove(s)
				}
			case callbag.Start:
				callbag.Violate(callbag.RoleTalkback, r.Type, callbag.ErrDoubleStart)
			default:
				callbag.Violate(callbag.RoleTalkback, r.Type, r.Type.Validate())
			}
		})
		s.started.Store(true)

		// Close skips sessions still in their handshake
		e.mu.Lock()
		closed, err := e.closed, e.err
		e.mu.Unlock()
		if closed && s.ended.CompareAndSwap(false, true) {
			e.remove(s)
			r.Sink.End(err)
		}
	}
}

// Emit pushes v to every started session.
func (e *Emitter[T]) Emit(v T) {
	for _, s := range e.snapshot() {
		if s.started.Load() && !s.ended.Load() {
			s.sink.Data(v)
		}
	}
}

// Close ends every session with err and ends later sessions right away.
func (e *Emitter[T]) Close(err error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.err = err
	e.mu.Unlock()

	for _, s := range e.snapshot() {
		if s.started.Load() && s.ended.CompareAndSwap(false, true) {
			e.remove(s)
			s.sink.End(err)
		}
	}
}

// Sessions returns the number of live sessions.
func (e *Emitter[T]) Sessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

func (e *Emitter[T]) snapshot() []*emitterSession[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	sessions := make([]*emitterSession[T], 0, len(e.sessions))
	for s := range e.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

func (e *Emitter[T]) remove(s *emitterSession[T]) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, s)
}
