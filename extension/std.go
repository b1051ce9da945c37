package extension

import (
	"fmt"

	"github.com/imishinist/go-callbag"
)

// NewStdoutSink prints every value on its own line.
func NewStdoutSink[T any]() callbag.Sink[T] {
	return ForEach(func(v T) {
		fmt.Println(v)
	})
}

// NewIgnoreSink drains a source and discards its values.
func NewIgnoreSink[T any]() callbag.Sink[T] {
	return ForEach(func(T) {})
}
