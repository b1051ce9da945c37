package callbag

import "sync/atomic"

// Operator turns a source of T into a source of R.
type Operator[T, R any] func(Source[T]) Source[R]

// Pipe applies ops to src from left to right.
func Pipe[T any](src Source[T], ops ...Operator[T, T]) Source[T] {
	for _, op := range ops {
		src = op(src)
	}
	return src
}

// Via applies a type-changing operator. It reads better than op(src) in long
// chains.
func Via[T, R any](src Source[T], op Operator[T, R]) Source[R] {
	return op(src)
}

// Hooks customize one operator session. Only OnData is required.
type Hooks[T, R any] struct {
	// OnStart runs once the downstream sink has its talkback.
	OnStart func(l *Link[T, R])
	// OnData handles one upstream value.
	OnData func(l *Link[T, R], v T)
	// OnPull handles a downstream pull request. Defaults to l.Pull.
	OnPull func(l *Link[T, R])
	// OnEnd handles the upstream end. When nil the end is forwarded downstream
	// as is. When set the hook owns forwarding and must call l.End once it has
	// flushed whatever it buffers.
	OnEnd func(l *Link[T, R], err error)
	// OnTeardown runs exactly once when the session terminates in either direction.
	OnTeardown func()
}

// Link is one running operator session. It sits between the upstream
// talkback and the downstream sink and drops every message once terminated.
type Link[T, R any] struct {
	hooks Hooks[T, R]
	down  Sink[R]
	up    Talkback[T]

	started  atomic.Bool
	upDone   atomic.Bool
	closed   atomic.Bool
	pulled   atomic.Bool
	tornDown atomic.Bool
}

// Operate builds a source that runs a fresh Link for every downstream
// session. newHooks is called once per session so hooks can keep state in
// their closure.
func Operate[T, R any](src Source[T], newHooks func() Hooks[T, R]) Source[R] {
	return func(r Request[R]) {
		if err := r.Type.Validate(); err != nil {
			Violate(RoleSource, r.Type, err)
			return
		}
		if r.Type != Start {
			Violate(RoleSource, r.Type, ErrNotStarted)
			return
		}
		if r.Sink == nil {
			Violate(RoleSource, r.Type, ErrMissingSink)
			return
		}
		l := &Link[T, R]{hooks: newHooks(), down: r.Sink}
		src.Start(l.sink)
	}
}

// Emit delivers v downstream unless the session has terminated.
func (l *Link[T, R]) Emit(v R) {
	if l.closed.Load() {
		return
	}
	l.down.Data(v)
}

// Pull requests one value from upstream unless upstream is done.
func (l *Link[T, R]) Pull() {
	if l.closed.Load() || l.upDone.Load() {
		return
	}
	l.up.Pull()
}

// End terminates the session downstream with err. Upstream is not notified,
// so it is meant for reacting to an upstream end.
func (l *Link[T, R]) End(err error) {
	if !l.closed.CompareAndSwap(false, true) {
		return
	}
	l.teardown()
	l.down.End(err)
}

// Complete terminates the session in both directions: upstream is asked to
// stop, then downstream receives err.
func (l *Link[T, R]) Complete(err error) {
	if !l.closed.CompareAndSwap(false, true) {
		return
	}
	l.teardown()
	if l.upDone.CompareAndSwap(false, true) {
		l.up.End(nil)
	}
	l.down.End(err)
}

// Pulled reports whether downstream has issued at least one pull request,
// i.e. whether it consumes in pull mode.
func (l *Link[T, R]) Pulled() bool {
	return l.pulled.Load()
}

// Done reports whether the session has terminated.
func (l *Link[T, R]) Done() bool {
	return l.closed.Load()
}

func (l *Link[T, R]) teardown() {
	if !l.tornDown.CompareAndSwap(false, true) {
		return
	}
	if l.hooks.OnTeardown != nil {
		l.hooks.OnTeardown()
	}
}

func (l *Link[T, R]) sink(m Message[T]) {
	if err := m.Type.Validate(); err != nil {
		Violate(RoleSink, m.Type, err)
		return
	}
	if m.Type != Start && !l.started.Load() {
		Violate(RoleSink, m.Type, ErrNotStarted)
		return
	}

	switch m.Type {
	case Start:
		if m.Talkback == nil {
			Violate(RoleSink, m.Type, ErrMissingTalkback)
			return
		}
		if !l.started.CompareAndSwap(false, true) {
			Violate(RoleSink, m.Type, ErrDoubleStart)
			return
		}
		l.up = m.Talkback
		l.down.Start(l.talkback)
		if l.hooks.OnStart != nil && !l.closed.Load() {
			l.hooks.OnStart(l)
		}
	case Data:
		if l.closed.Load() || l.upDone.Load() {
			return
		}
		l.hooks.OnData(l, m.Value)
	case End:
		if !l.upDone.CompareAndSwap(false, true) || l.closed.Load() {
			return
		}
		if l.hooks.OnEnd != nil {
			l.hooks.OnEnd(l, m.Err)
			return
		}
		l.End(m.Err)
	}
}

func (l *Link[T, R]) talkback(r Request[R]) {
	if err := r.Type.Validate(); err != nil {
		Violate(RoleTalkback, r.Type, err)
		return
	}

	switch r.Type {
	case Start:
		Violate(RoleTalkback, r.Type, ErrDoubleStart)
	case Data:
		if l.closed.Load() {
			return
		}
		l.pulled.Store(true)
		if l.hooks.OnPull != nil {
			l.hooks.OnPull(l)
			return
		}
		l.Pull()
	case End:
		if !l.closed.CompareAndSwap(false, true) {
			return
		}
		l.teardown()
		if l.upDone.CompareAndSwap(false, true) {
			l.up.End(r.Err)
		}
	}
}
