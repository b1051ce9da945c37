package callbag_test

import (
	"github.com/imishinist/go-callbag"
)

// spySource hands out a talkback that records what the sink sends upstream
// and keeps the sink so tests can drive it directly.
type spySource[T any] struct {
	starts int
	pulls  int
	ends   []error
	sink   callbag.Sink[T]
}

func (s *spySource[T]) source() callbag.Source[T] {
	return func(r callbag.Request[T]) {
		s.starts++
		s.sink = r.Sink
		r.Sink.Start(s.talkback)
	}
}

func (s *spySource[T]) talkback(r callbag.Request[T]) {
	switch r.Type {
	case callbag.Data:
		s.pulls++
	case callbag.End:
		s.ends = append(s.ends, r.Err)
	}
}

// recordingSink records every message it receives.
type recordingSink[T any] struct {
	types    []callbag.Type
	values   []T
	errs     []error
	talkback callbag.Talkback[T]
}

func (s *recordingSink[T]) sink(m callbag.Message[T]) {
	s.types = append(s.types, m.Type)
	switch m.Type {
	case callbag.Start:
		s.talkback = m.Talkback
	case callbag.Data:
		s.values = append(s.values, m.Value)
	case callbag.End:
		s.errs = append(s.errs, m.Err)
	}
}

func noopTalkback[T any](callbag.Request[T]) {}
