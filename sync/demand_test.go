package sync_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/imishinist/go-callbag/sync"
)

var (
	BlockTimeout = 100 * time.Millisecond
)

func isBlocked(done chan struct{}) bool {
	select {
	case <-done:
		return false
	case <-time.After(BlockTimeout):
		return true
	}
}

func TestDemand(t *testing.T) {
	t.Run("has requests", func(t *testing.T) {
		t.Run("TryAcquire", func(t *testing.T) {
			d := sync.NewDemand()
			d.Add(2)
			assert.True(t, d.TryAcquire())
			assert.True(t, d.TryAcquire())
			assert.False(t, d.TryAcquire(), "no request should be left")
			assert.Equal(t, uint64(0), d.Pending())
		})

		t.Run("Acquire", func(t *testing.T) {
			d := sync.NewDemand()
			d.Add(3)
			done := make(chan struct{})
			go func() {
				_ = d.Acquire(context.Background())
				done <- struct{}{}
			}()
			if isBlocked(done) {
				t.Errorf("Acquire() should not be blocked when there are requests")
			}
			assert.Equal(t, uint64(2), d.Pending(), "pending should be 2")
		})

		t.Run("excess requests accumulate", func(t *testing.T) {
			d := sync.NewDemand()
			for i := 0; i < 5; i++ {
				d.Add(1)
			}
			d.Add(0)
			assert.Equal(t, uint64(5), d.Pending(), "pending should be 5")
		})
	})

	t.Run("no requests", func(t *testing.T) {
		t.Run("Acquire", func(t *testing.T) {
			d := sync.NewDemand()
			done := make(chan struct{})
			go func() {
				_ = d.Acquire(context.Background())
				done <- struct{}{}
			}()
			if !isBlocked(done) {
				t.Errorf("Acquire() should be blocked when there are no requests")
			}

			d.Add(1)
			if isBlocked(done) {
				t.Errorf("Acquire() should be released by Add()")
			}
			assert.Equal(t, uint64(0), d.Pending(), "pending should be 0")
		})

		t.Run("Acquire with many waiters", func(t *testing.T) {
			d := sync.NewDemand()
			done := make(chan struct{}, 3)
			for i := 0; i < 3; i++ {
				go func() {
					_ = d.Acquire(context.Background())
					done <- struct{}{}
				}()
			}
			d.Add(3)
			for i := 0; i < 3; i++ {
				select {
				case <-done:
				case <-time.After(time.Second):
					t.Fatalf("waiter %d was not released", i)
				}
			}
			assert.Equal(t, uint64(0), d.Pending(), "pending should be 0")
		})

		t.Run("Acquire cancelled", func(t *testing.T) {
			d := sync.NewDemand()
			ctx, cancel := context.WithCancel(context.Background())
			errCh := make(chan error, 1)
			go func() {
				errCh <- d.Acquire(ctx)
			}()
			cancel()
			select {
			case err := <-errCh:
				assert.ErrorIs(t, err, context.Canceled)
			case <-time.After(time.Second):
				t.Fatal("Acquire() should return after cancel")
			}
		})
	})

	t.Run("Close", func(t *testing.T) {
		d := sync.NewDemand()
		errCh := make(chan error, 1)
		go func() {
			errCh <- d.Acquire(context.Background())
		}()
		time.Sleep(10 * time.Millisecond)

		assert.True(t, d.Close())
		assert.False(t, d.Close(), "second Close should report false")
		select {
		case err := <-errCh:
			assert.ErrorIs(t, err, sync.ErrClosed)
		case <-time.After(time.Second):
			t.Fatal("Close() should wake Acquire()")
		}

		d.Add(4)
		assert.True(t, d.Closed())
		assert.Equal(t, uint64(0), d.Pending(), "closed demand drops requests")
		assert.False(t, d.TryAcquire())
	})

	t.Run("Drain", func(t *testing.T) {
		t.Run("one emit per request", func(t *testing.T) {
			d := sync.NewDemand()
			d.Add(3)
			var calls int
			d.Drain(func() bool {
				calls++
				return true
			})
			assert.Equal(t, 3, calls)
			assert.Equal(t, uint64(0), d.Pending())
		})

		t.Run("requests from inside emit", func(t *testing.T) {
			d := sync.NewDemand()
			d.Add(1)
			var calls, depth, maxDepth int
			var emit func() bool
			emit = func() bool {
				depth++
				if depth > maxDepth {
					maxDepth = depth
				}
				calls++
				if calls < 1000 {
					d.Add(1)
					d.Drain(emit)
				}
				depth--
				return true
			}
			d.Drain(emit)
			assert.Equal(t, 1000, calls)
			assert.Equal(t, 1, maxDepth, "nested Drain must not recurse")
		})

		t.Run("stops when emit returns false", func(t *testing.T) {
			d := sync.NewDemand()
			d.Add(5)
			var calls int
			d.Drain(func() bool {
				calls++
				return calls < 2
			})
			assert.Equal(t, 2, calls)
			assert.Equal(t, uint64(3), d.Pending())
		})

		t.Run("stops when closed", func(t *testing.T) {
			d := sync.NewDemand()
			d.Add(5)
			var calls int
			d.Drain(func() bool {
				calls++
				d.Close()
				return true
			})
			assert.Equal(t, 1, calls)
		})
	})
}
