package flow

import "github.com/imishinist/go-callbag"

type ReduceFunction[T any] func(T, T) T

// Reduce folds the whole stream and emits the result once upstream completes
// cleanly. An empty stream completes without a value; an upstream error is
// forwarded and the partial result discarded.
func Reduce[T any](name string, reduceFunction ReduceFunction[T]) callbag.Operator[T, T] {
	register(name, "reduce")
	return func(src callbag.Source[T]) callbag.Source[T] {
		return operate(name, "reduce", src, func() callbag.Hooks[T, T] {
			var (
				lastReduced T
				seen        bool
			)
			return callbag.Hooks[T, T]{
				OnData: func(l *callbag.Link[T, T], v T) {
					if !seen {
						lastReduced = v
						seen = true
					} else {
						lastReduced = reduceFunction(lastReduced, v)
					}
					// keep draining upstream for the single pending request
					if l.Pulled() {
						l.Pull()
					}
				},
				OnEnd: func(l *callbag.Link[T, T], err error) {
					if err == nil && seen {
						l.Emit(lastReduced)
					}
					l.End(err)
				},
			}
		})
	}
}
