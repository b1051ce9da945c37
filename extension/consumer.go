package extension

import (
	"sync"

	"github.com/imishinist/go-callbag"
)

// consumer is the shared body of the sinks in this package. It pulls one
// value on handshake and one more after every delivery, and fails fast on
// any message the session state machine rejects.
type consumer[T any] struct {
	session *callbag.Session

	mu       sync.Mutex
	talkback callbag.Talkback[T]

	onData func(T)
	onEnd  func(error)
}

func newConsumer[T any](onData func(T), onEnd func(error)) *consumer[T] {
	return &consumer[T]{
		session: callbag.NewSession(callbag.PushCapable | callbag.PullCapable),
		onData:  onData,
		onEnd:   onEnd,
	}
}

func (c *consumer[T]) receive(m callbag.Message[T]) {
	switch m.Type {
	case callbag.Start:
		if m.Talkback == nil {
			callbag.Violate(callbag.RoleSink, m.Type, callbag.ErrMissingTalkback)
			return
		}
		if err := c.session.Open(); err != nil {
			callbag.Violate(callbag.RoleSink, m.Type, err)
			return
		}
		c.mu.Lock()
		c.talkback = m.Talkback
		c.mu.Unlock()
		m.Talkback.Pull()
	case callbag.Data:
		ok, err := c.session.Deliver()
		if err != nil {
			callbag.Violate(callbag.RoleSink, m.Type, err)
			return
		}
		if !ok {
			return
		}
		c.onData(m.Value)
		c.pull()
	case callbag.End:
		ok, err := c.session.Close()
		if err != nil {
			callbag.Violate(callbag.RoleSink, m.Type, err)
			return
		}
		if ok && c.onEnd != nil {
			c.onEnd(m.Err)
		}
	default:
		callbag.Violate(callbag.RoleSink, m.Type, m.Type.Validate())
	}
}

func (c *consumer[T]) pull() {
	if c.session.State() != callbag.Active {
		return
	}
	c.mu.Lock()
	tb := c.talkback
	c.mu.Unlock()
	tb.Pull()
}

// stop ends the session from the sink side. It reports whether this call
// terminated the session.
func (c *consumer[T]) stop(err error) bool {
	ok, serr := c.session.Close()
	if serr != nil || !ok {
		return false
	}
	c.mu.Lock()
	tb := c.talkback
	c.mu.Unlock()
	tb.End(err)
	return true
}

// ForEach returns a sink that calls fn for every value, pulling one value at
// a time.
func ForEach[T any](fn func(T)) callbag.Sink[T] {
	return newConsumer(fn, nil).receive
}
