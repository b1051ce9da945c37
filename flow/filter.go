package flow

import "github.com/imishinist/go-callbag"

type FilterPredicate[T any] func(T) bool

// Filter discards values that don't match filterPredicate. In pull mode a
// discarded value is replaced by a new upstream pull so the downstream
// request stays answered.
func Filter[T any](name string, filterPredicate FilterPredicate[T]) callbag.Operator[T, T] {
	register(name, "filter")
	return func(src callbag.Source[T]) callbag.Source[T] {
		return operate(name, "filter", src, func() callbag.Hooks[T, T] {
			return callbag.Hooks[T, T]{
				OnData: func(l *callbag.Link[T, T], v T) {
					if filterPredicate(v) {
						l.Emit(v)
						return
					}
					if l.Pulled() {
						l.Pull()
					}
				},
			}
		})
	}
}
