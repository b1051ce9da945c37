package callbag

import "sync"

// State is the lifecycle position of a session.
type State int32

const (
	Idle State = iota
	Active
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Terminated:
		return "terminated"
	default:
		return "invalid"
	}
}

// Capability describes which delivery modes a source supports.
type Capability uint8

const (
	// PushCapable sources deliver without waiting for pull requests.
	PushCapable Capability = 1 << iota
	// PullCapable sources answer pull requests.
	PullCapable
)

func (c Capability) Has(other Capability) bool {
	return c&other == other
}

// strict reports whether every delivery must be backed by a pull request.
func (c Capability) strict() bool {
	return c.Has(PullCapable) && !c.Has(PushCapable)
}

// Session is the state machine of one source/sink pair. It is single-use:
// once terminated it never becomes active again.
type Session struct {
	mu     sync.Mutex
	state  State
	strict bool
	demand uint64

	pulls      uint64
	deliveries uint64
}

// NewSession returns an idle session. With a pull-only capability set the
// session rejects deliveries that exceed outstanding pull requests.
func NewSession(caps Capability) *Session {
	return &Session{strict: caps.strict()}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Demand returns the number of pull requests not yet answered.
func (s *Session) Demand() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.demand
}

// Counts returns the pull requests and deliveries accepted so far.
func (s *Session) Counts() (pulls, deliveries uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pulls, s.deliveries
}

// Open performs the handshake. A second call fails with ErrDoubleStart and
// leaves the session untouched.
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Idle {
		return ErrDoubleStart
	}
	s.state = Active
	return nil
}

// Request records a pull request. It returns false once the session has
// terminated, in which case the request must not be forwarded.
func (s *Session) Request() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Idle:
		return false, ErrNotStarted
	case Terminated:
		return false, nil
	}
	s.demand++
	s.pulls++
	return true, nil
}

// Deliver accounts for one Data message from the source. It returns false
// once the session has terminated, in which case the value must be dropped.
func (s *Session) Deliver() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Idle:
		return false, ErrNotStarted
	case Terminated:
		return false, nil
	}
	if s.demand == 0 {
		if s.strict {
			return false, ErrOverDelivery
		}
	} else {
		s.demand--
	}
	s.deliveries++
	return true, nil
}

// Close terminates the session. Only the first call returns true; End before
// the handshake fails with ErrNotStarted.
func (s *Session) Close() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Idle:
		return false, ErrNotStarted
	case Terminated:
		return false, nil
	}
	s.state = Terminated
	s.demand = 0
	return true, nil
}
