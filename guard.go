package callbag

import (
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var violationsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "go_callbag_violations_total",
	Help: "The number of protocol violations detected by guards",
}, []string{"role"})

type options struct {
	log     logr.Logger
	caps    Capability
	handler func(error)
}

// Option configures a guard.
type Option func(*options)

// WithLogger sets the logger used for violations and swallowed messages.
func WithLogger(log logr.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithCapabilities declares the delivery modes of the guarded source.
// PullCapable alone turns on strict backpressure accounting.
func WithCapabilities(caps Capability) Option {
	return func(o *options) {
		o.caps = caps
	}
}

// WithViolationHandler replaces the default handler, which panics.
func WithViolationHandler(h func(error)) Option {
	return func(o *options) {
		o.handler = h
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		log:  logr.Discard(),
		caps: PushCapable | PullCapable,
		handler: func(err error) {
			panic(err)
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) violate(role Role, t Type, err error) {
	v := &ProtocolViolation{Role: role, Type: t, Err: err}
	violationsCounter.WithLabelValues(string(role)).Inc()
	o.log.Error(err, "protocol violation", "role", role, "type", t)
	o.handler(v)
}

// Guard wraps src so that every session it serves is checked by its own
// Session from both sides. Illegal messages never reach the peer.
func Guard[T any](src Source[T], opts ...Option) Source[T] {
	o := newOptions(opts)
	return func(r Request[T]) {
		if err := r.Type.Validate(); err != nil {
			o.violate(RoleSource, r.Type, err)
			return
		}
		if r.Type != Start {
			o.violate(RoleSource, r.Type, ErrNotStarted)
			return
		}
		if r.Sink == nil {
			o.violate(RoleSource, r.Type, ErrMissingSink)
			return
		}
		g := &guarded[T]{
			session: NewSession(o.caps),
			down:    r.Sink,
			opts:    o,
		}
		src.Start(g.sink)
	}
}

type guarded[T any] struct {
	session *Session
	down    Sink[T]
	up      Talkback[T]
	opts    *options
}

func (g *guarded[T]) sink(m Message[T]) {
	if err := m.Type.Validate(); err != nil {
		g.opts.violate(RoleSink, m.Type, err)
		return
	}

	switch m.Type {
	case Start:
		if m.Talkback == nil {
			g.opts.violate(RoleSink, m.Type, ErrMissingTalkback)
			return
		}
		if err := g.session.Open(); err != nil {
			g.opts.violate(RoleSink, m.Type, err)
			return
		}
		g.up = m.Talkback
		g.down.Start(g.talkback)
	case Data:
		ok, err := g.session.Deliver()
		if err != nil {
			g.opts.violate(RoleSink, m.Type, err)
			return
		}
		if !ok {
			g.swallow(RoleSink, m.Type)
			return
		}
		g.down(m)
	case End:
		ok, err := g.session.Close()
		if err != nil {
			g.opts.violate(RoleSink, m.Type, err)
			return
		}
		if !ok {
			g.swallow(RoleSink, m.Type)
			return
		}
		g.down.End(m.Err)
	}
}

func (g *guarded[T]) talkback(r Request[T]) {
	if err := r.Type.Validate(); err != nil {
		g.opts.violate(RoleTalkback, r.Type, err)
		return
	}

	switch r.Type {
	case Start:
		g.opts.violate(RoleTalkback, r.Type, ErrDoubleStart)
	case Data:
		ok, err := g.session.Request()
		if err != nil {
			g.opts.violate(RoleTalkback, r.Type, err)
			return
		}
		if !ok {
			g.swallow(RoleTalkback, r.Type)
			return
		}
		g.up.Pull()
	case End:
		ok, err := g.session.Close()
		if err != nil {
			g.opts.violate(RoleTalkback, r.Type, err)
			return
		}
		if !ok {
			g.swallow(RoleTalkback, r.Type)
			return
		}
		g.up.End(r.Err)
	}
}

func (g *guarded[T]) swallow(role Role, t Type) {
	g.opts.log.V(1).Info("message after termination dropped", "role", role, "type", t)
}
