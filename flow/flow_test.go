package flow_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/imishinist/go-callbag"
	ext "github.com/imishinist/go-callbag/extension"
	"github.com/imishinist/go-callbag/flow"
)

func collect[T any](src callbag.Source[T]) *ext.Collector[T] {
	c := ext.NewCollector[T]()
	src.Start(c.Sink())
	return c
}

// pushSink consumes without ever pulling.
type pushSink[T any] struct {
	values []T
	ended  bool
	err    error
}

func (s *pushSink[T]) sink(m callbag.Message[T]) {
	switch m.Type {
	case callbag.Data:
		s.values = append(s.values, m.Value)
	case callbag.End:
		s.ended = true
		s.err = m.Err
	}
}

func assertMetrics(t *testing.T, name, typ string, processed int) {
	t.Helper()
	assert.Equal(t, 0.0, testutil.ToFloat64(flow.SessionsGauge.WithLabelValues(name, typ)), "live sessions")
	assert.Equal(t, float64(processed), testutil.ToFloat64(flow.ProcessedCounter.WithLabelValues(name, typ)), "processed values")
}
