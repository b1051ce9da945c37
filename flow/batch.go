package flow

import "github.com/imishinist/go-callbag"

// Batch groups values into slices of maxBatchSize. It is a buffering
// operator: up to maxBatchSize-1 values are held between deliveries, and a
// partial batch is flushed when upstream completes cleanly. On an upstream
// error the partial batch is dropped.
func Batch[T any](name string, maxBatchSize uint) callbag.Operator[T, []T] {
	if maxBatchSize == 0 {
		maxBatchSize = 1
	}
	register(name, "batch")
	return func(src callbag.Source[T]) callbag.Source[[]T] {
		return operate(name, "batch", src, func() callbag.Hooks[T, []T] {
			batch := make([]T, 0, maxBatchSize)
			return callbag.Hooks[T, []T]{
				OnData: func(l *callbag.Link[T, []T], v T) {
					batch = append(batch, v)
					if len(batch) >= int(maxBatchSize) {
						full := batch
						batch = make([]T, 0, maxBatchSize)
						l.Emit(full)
						return
					}
					if l.Pulled() {
						l.Pull()
					}
				},
				OnEnd: func(l *callbag.Link[T, []T], err error) {
					if err == nil && len(batch) > 0 {
						rest := batch
						batch = nil
						l.Emit(rest)
					}
					l.End(err)
				},
			}
		})
	}
}
