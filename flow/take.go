package flow

import (
	"sync/atomic"

	"github.com/imishinist/go-callbag"
)

// Take forwards the first n values. Right after the n-th value it ends the
// session upstream and then completes it downstream.
func Take[T any](name string, n uint64) callbag.Operator[T, T] {
	register(name, "take")
	return func(src callbag.Source[T]) callbag.Source[T] {
		return operate(name, "take", src, func() callbag.Hooks[T, T] {
			var taken atomic.Uint64
			return callbag.Hooks[T, T]{
				OnStart: func(l *callbag.Link[T, T]) {
					if n == 0 {
						l.Complete(nil)
					}
				},
				OnPull: func(l *callbag.Link[T, T]) {
					if taken.Load() < n {
						l.Pull()
					}
				},
				OnData: func(l *callbag.Link[T, T], v T) {
					count := taken.Add(1)
					if count > n {
						return
					}
					l.Emit(v)
					if count == n {
						l.Complete(nil)
					}
				},
			}
		})
	}
}
