package flow

import "github.com/imishinist/go-callbag"

// PassThrough forwards everything unchanged.
func PassThrough[T any](name string) callbag.Operator[T, T] {
	register(name, "pass_through")
	return func(src callbag.Source[T]) callbag.Source[T] {
		return operate(name, "pass_through", src, func() callbag.Hooks[T, T] {
			return callbag.Hooks[T, T]{
				OnData: func(l *callbag.Link[T, T], v T) {
					l.Emit(v)
				},
			}
		})
	}
}
