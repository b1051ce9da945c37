package callbag

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

var (
	ErrUnknownType     = errors.New("callbag: unknown message type")
	ErrReservedType    = errors.New("callbag: reserved message type")
	ErrDoubleStart     = errors.New("callbag: session already started")
	ErrNotStarted      = errors.New("callbag: message before handshake")
	ErrOverDelivery    = errors.New("callbag: data delivered without an outstanding pull")
	ErrMissingSink     = errors.New("callbag: start without a sink")
	ErrMissingTalkback = errors.New("callbag: start without a talkback")
)

// Role names the endpoint that received an illegal message.
type Role string

const (
	RoleSource   Role = "source"
	RoleSink     Role = "sink"
	RoleTalkback Role = "talkback"
)

// ProtocolViolation reports a message sequence outside the session state machine.
type ProtocolViolation struct {
	Role Role
	Type Type
	Err  error
}

func (v *ProtocolViolation) Error() string {
	return fmt.Sprintf("%s received %s: %v", v.Role, v.Type, v.Err)
}

func (v *ProtocolViolation) Unwrap() error {
	return v.Err
}

// Violate fails fast: it panics with a *ProtocolViolation. Endpoints without a
// configured handler use it for every illegal message.
func Violate(role Role, t Type, err error) {
	panic(&ProtocolViolation{Role: role, Type: t, Err: err})
}

// ViolationRecorder collects violations instead of panicking. Its Handle
// method can be passed to WithViolationHandler.
type ViolationRecorder struct {
	mu  sync.Mutex
	err error
}

func (r *ViolationRecorder) Handle(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = multierr.Append(r.err, err)
}

// Err returns all recorded violations combined, or nil.
func (r *ViolationRecorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *ViolationRecorder) Violations() []error {
	return multierr.Errors(r.Err())
}
