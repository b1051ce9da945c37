package flow

import "github.com/imishinist/go-callbag"

type MapFunction[T, R any] func(T) R

// Map applies mapFunction to every value. It forwards pulls and ends
// unchanged and holds no buffer, so it works in push and pull mode alike.
func Map[T, R any](name string, mapFunction MapFunction[T, R]) callbag.Operator[T, R] {
	register(name, "map")
	return func(src callbag.Source[T]) callbag.Source[R] {
		return operate(name, "map", src, func() callbag.Hooks[T, R] {
			return callbag.Hooks[T, R]{
				OnData: func(l *callbag.Link[T, R], v T) {
					l.Emit(mapFunction(v))
				},
			}
		})
	}
}
