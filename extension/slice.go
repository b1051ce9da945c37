package extension

import (
	"github.com/imishinist/go-callbag"
	ssync "github.com/imishinist/go-callbag/sync"
)

// FromSlice returns a pull-aware source that delivers values in order, one
// per pull request, and ends cleanly right after the last one. Every session
// starts from the first value.
func FromSlice[T any](values []T) callbag.Source[T] {
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

		demand := ssync.NewDemand()
		i := 0
		emit := func() bool {
			if i >= len(values) {
				if demand.Close() {
					sink.End(nil)
				}
				return false
			}
			v := values[i]
			i++
			sink.Data(v)
			if i == len(values) && demand.Close() {
				sink.End(nil)
				return false
			}
			return true
		}

		sink.Start(func(r callbag.Request[T]) {
			switch r.Type {
			case callbag.Data:
				demand.Add(1)
				demand.Drain(emit)
			case callbag.End:
				demand.Close()
			case callbag.Start:
				callbag.Violate(callbag.RoleTalkback, r.Type, callbag.ErrDoubleStart)
			default:
				callbag.Violate(callbag.RoleTalkback, r.Type, r.Type.Validate())
			}
		})

		if len(values) == 0 && demand.Close() {
			sink.End(nil)
		}
	}
}
