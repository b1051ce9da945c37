package callbag

import "strconv"

// Type tags every message exchanged between a source and a sink.
type Type uint8

const (
	Start Type = 0
	Data  Type = 1
	End   Type = 2

	// maxReserved is the last ordinal kept for future message types.
	maxReserved Type = 9
)

func (t Type) String() string {
	switch t {
	case Start:
		return "start"
	case Data:
		return "data"
	case End:
		return "end"
	}
	if t <= maxReserved {
		return "reserved(" + strconv.Itoa(int(t)) + ")"
	}
	return "unknown(" + strconv.Itoa(int(t)) + ")"
}

// Validate returns nil for Start, Data and End, ErrReservedType for the
// ordinals kept for future use and ErrUnknownType for everything else.
func (t Type) Validate() error {
	switch {
	case t <= End:
		return nil
	case t <= maxReserved:
		return ErrReservedType
	default:
		return ErrUnknownType
	}
}

// Message travels from a source to its sink.
type Message[T any] struct {
	Type Type

	// Talkback is set on Start.
	Talkback Talkback[T]
	// Value is set on Data.
	Value T
	// Err is set on End. A nil Err is a clean completion.
	Err error
}

// Request travels from a sink to a source, or to the talkback of a running session.
type Request[T any] struct {
	Type Type

	// Sink is set on Start.
	Sink Sink[T]
	// Err is set on End and is the reason the sink stopped, if any.
	Err error
}

// Source produces values of type T. Calling it with Start opens a new session
// with the given sink; it accepts nothing else.
type Source[T any] func(r Request[T])

// Sink consumes values of type T.
type Sink[T any] func(m Message[T])

// Talkback is handed to a sink on Start. Through it the sink pulls values
// (Data) and stops the session (End).
type Talkback[T any] func(r Request[T])

// Start opens a session between s and sink.
func (s Source[T]) Start(sink Sink[T]) {
	s(Request[T]{Type: Start, Sink: sink})
}

// Start completes the handshake on the sink side.
func (s Sink[T]) Start(tb Talkback[T]) {
	s(Message[T]{Type: Start, Talkback: tb})
}

// Data delivers one value.
func (s Sink[T]) Data(v T) {
	s(Message[T]{Type: Data, Value: v})
}

// End terminates the session. A nil err signals clean completion.
func (s Sink[T]) End(err error) {
	s(Message[T]{Type: End, Err: err})
}

// Pull requests one more value.
func (tb Talkback[T]) Pull() {
	tb(Request[T]{Type: Data})
}

// End asks the source to stop.
func (tb Talkback[T]) End(err error) {
	tb(Request[T]{Type: End, Err: err})
}
