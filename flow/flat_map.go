package flow

import (
	"sync"

	"github.com/imishinist/go-callbag"
)

type FlatMapFunction[T, R any] func(T) []R

// FlatMap expands every value into zero or more values. It is a buffering
// operator: in pull mode the expansion of one upstream value is queued and
// handed out one per downstream request, and a clean upstream end is
// delayed until the queue is empty. In push mode everything is delivered
// immediately. An upstream error drops the queue and ends at once.
//
// The queue is guarded by a mutex that is never held while calling a peer.
func FlatMap[T, R any](name string, flatMapFunction FlatMapFunction[T, R]) callbag.Operator[T, R] {
	register(name, "flat_map")
	return func(src callbag.Source[T]) callbag.Source[R] {
		return operate(name, "flat_map", src, func() callbag.Hooks[T, R] {
			var (
				mu       sync.Mutex
				queue    []R
				demand   uint64
				ended    bool
				flushing bool
			)

			flush := func(l *callbag.Link[T, R]) {
				mu.Lock()
				if flushing {
					mu.Unlock()
					return
				}
				flushing = true
				for len(queue) > 0 && (demand > 0 || !l.Pulled()) {
					v := queue[0]
					queue = queue[1:]
					if demand > 0 {
						demand--
					}
					mu.Unlock()
					l.Emit(v)
					mu.Lock()
				}
				flushing = false
				done := ended && len(queue) == 0
				needMore := !ended && len(queue) == 0 && demand > 0
				mu.Unlock()

				if done {
					l.End(nil)
					return
				}
				if needMore {
					l.Pull()
				}
			}

			return callbag.Hooks[T, R]{
				OnPull: func(l *callbag.Link[T, R]) {
					mu.Lock()
					demand++
					mu.Unlock()
					flush(l)
				},
				OnData: func(l *callbag.Link[T, R], v T) {
					result := flatMapFunction(v)
					mu.Lock()
					queue = append(queue, result...)
					mu.Unlock()
					flush(l)
				},
				OnEnd: func(l *callbag.Link[T, R], err error) {
					if err != nil {
						mu.Lock()
						queue = nil
						mu.Unlock()
						l.End(err)
						return
					}
					mu.Lock()
					ended = true
					mu.Unlock()
					flush(l)
				},
			}
		})
	}
}
