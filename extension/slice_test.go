package extension_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imishinist/go-callbag"
	ext "github.com/imishinist/go-callbag/extension"
)

// messages records everything a sink receives.
type messages[T any] struct {
	types    []callbag.Type
	values   []T
	errs     []error
	talkback callbag.Talkback[T]
}

func (m *messages[T]) sink(msg callbag.Message[T]) {
	m.types = append(m.types, msg.Type)
	switch msg.Type {
	case callbag.Start:
		m.talkback = msg.Talkback
	case callbag.Data:
		m.values = append(m.values, msg.Value)
	case callbag.End:
		m.errs = append(m.errs, msg.Err)
	}
}

func TestFromSlice(t *testing.T) {
	t.Run("collect", func(t *testing.T) {
		c := ext.NewCollector[string]()
		ext.FromSlice([]string{"a", "b", "c"}).Start(c.Sink())
		assert.Equal(t, []string{"a", "b", "c"}, c.Values())
		assert.True(t, c.Ended())
		assert.NoError(t, c.Err())
	})

	t.Run("one value per pull", func(t *testing.T) {
		m := &messages[int]{}
		ext.FromSlice([]int{1, 2, 3}).Start(m.sink)
		require.NotNil(t, m.talkback)
		assert.Equal(t, []callbag.Type{callbag.Start}, m.types)

		m.talkback.Pull()
		assert.Equal(t, []int{1}, m.values)
		m.talkback.Pull()
		m.talkback.Pull()
		assert.Equal(t, []int{1, 2, 3}, m.values)
		assert.Equal(t, []error{nil}, m.errs, "ends right after the last value")

		m.talkback.Pull()
		assert.Len(t, m.types, 5, "silent after end")
	})

	t.Run("excess pulls accumulate", func(t *testing.T) {
		m := &messages[int]{}
		ext.FromSlice([]int{1, 2}).Start(m.sink)
		for i := 0; i < 10; i++ {
			m.talkback.Pull()
		}
		assert.Equal(t, []int{1, 2}, m.values)
		assert.Equal(t, []error{nil}, m.errs)
	})

	t.Run("empty", func(t *testing.T) {
		m := &messages[int]{}
		ext.FromSlice[int](nil).Start(m.sink)
		assert.Equal(t, []callbag.Type{callbag.Start, callbag.End}, m.types)
		assert.Equal(t, []error{nil}, m.errs)
	})

	t.Run("sink end stops delivery", func(t *testing.T) {
		m := &messages[int]{}
		ext.FromSlice([]int{1, 2, 3}).Start(m.sink)
		m.talkback.Pull()
		m.talkback.End(nil)
		m.talkback.Pull()
		assert.Equal(t, []int{1}, m.values)
		assert.Empty(t, m.errs)
	})

	t.Run("sessions are independent", func(t *testing.T) {
		src := ext.FromSlice([]int{1, 2, 3})
		first, second := ext.NewCollector[int](), ext.NewCollector[int]()
		src.Start(first.Sink())
		src.Start(second.Sink())
		assert.Equal(t, []int{1, 2, 3}, first.Values())
		assert.Equal(t, []int{1, 2, 3}, second.Values())
	})

	t.Run("violations", func(t *testing.T) {
		src := ext.FromSlice([]int{1})
		assert.PanicsWithError(t, "source received data: callbag: message before handshake", func() {
			src(callbag.Request[int]{Type: callbag.Data})
		})
		assert.PanicsWithError(t, "source received start: callbag: start without a sink", func() {
			src(callbag.Request[int]{Type: callbag.Start})
		})

		m := &messages[int]{}
		src.Start(m.sink)
		assert.PanicsWithError(t, "talkback received start: callbag: session already started", func() {
			m.talkback(callbag.Request[int]{Type: callbag.Start, Sink: m.sink})
		})
		assert.PanicsWithError(t, "talkback received reserved(7): callbag: reserved message type", func() {
			m.talkback(callbag.Request[int]{Type: 7})
		})
	})
}
