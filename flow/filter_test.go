package flow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	ext "github.com/imishinist/go-callbag/extension"
	"github.com/imishinist/go-callbag/flow"
)

func TestFilter(t *testing.T) {
	cases := []struct {
		name    string
		filter  func(int) bool
		inputs  []int
		expects []int
	}{
		{
			name: "filter",
			filter: func(i int) bool {
				return i%2 == 0
			},
			inputs:  []int{1, 2, 3, 4, 5, 6, 7},
			expects: []int{2, 4, 6},
		},
		{
			name: "filter none",
			filter: func(i int) bool {
				return false
			},
			inputs:  []int{1, 2, 3},
			expects: nil,
		},
		{
			name: "filter all",
			filter: func(i int) bool {
				return true
			},
			inputs:  []int{3, 2, 1},
			expects: []int{3, 2, 1},
		},
	}
	for _, cc := range cases {
		t.Run(cc.name, func(t *testing.T) {
			filter := flow.Filter[int](cc.name, cc.filter)
			c := collect(filter(ext.FromSlice(cc.inputs)))

			assert.Equal(t, cc.expects, c.Values())
			assert.True(t, c.Ended())
			assertMetrics(t, cc.name, "filter", len(cc.inputs))
		})
	}

	t.Run("filter push", func(t *testing.T) {
		emitter := ext.NewEmitter[int]()
		c := collect(flow.Filter[int]("filter_push", func(i int) bool { return i > 2 })(emitter.Source()))
		for i := 0; i < 5; i++ {
			emitter.Emit(i)
		}
		emitter.Close(nil)
		assert.Equal(t, []int{3, 4}, c.Values())
		assert.True(t, c.Ended())
	})
}
