package cluster

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	Log.SetLevel(logrus.WarnLevel)
	m.Run()
}

// startGroup forms an in-process group: one goroutine per rank, real TCP.
func startGroup(t *testing.T, size int) []*Context {
	t.Helper()

	l, err := NewListener("127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()

	ctxs := make([]*Context, size)
	var g errgroup.Group
	g.Go(func() error {
		c, err := l.Context(context.Background(), size)
		ctxs[0] = c
		return err
	})
	for r := 1; r < size; r++ {
		g.Go(func() error {
			c, err := Dial(context.Background(), addr, r, size)
			ctxs[r] = c
			return err
		})
	}
	require.NoError(t, g.Wait())

	t.Cleanup(func() {
		for _, c := range ctxs {
			c.Close()
		}
	})
	return ctxs
}

func TestAllreduceMin(t *testing.T) {
	for _, size := range []int{2, 3, 4} {
		t.Run(fmt.Sprintf("size=%d", size), func(t *testing.T) {
			ctxs := startGroup(t, size)

			results := make([]int32, size)
			var g errgroup.Group
			for r, c := range ctxs {
				g.Go(func() error {
					v, err := c.AllreduceMin(int32(10 + r*3))
					results[r] = v
					return err
				})
			}
			require.NoError(t, g.Wait())

			for r := range results {
				assert.Equal(t, int32(10), results[r], "rank %d", r)
			}
		})
	}
}

func TestAllreduceMax(t *testing.T) {
	ctxs := startGroup(t, 3)

	values := []int32{-1, 7, 2}
	results := make([]int32, len(ctxs))
	var g errgroup.Group
	for r, c := range ctxs {
		g.Go(func() error {
			v, err := c.AllreduceMax(values[r])
			results[r] = v
			return err
		})
	}
	require.NoError(t, g.Wait())

	for r := range results {
		assert.Equal(t, int32(7), results[r], "rank %d", r)
	}
}

func TestBroadcastInt32(t *testing.T) {
	for _, root := range []int{0, 1, 2} {
		t.Run(fmt.Sprintf("root=%d", root), func(t *testing.T) {
			ctxs := startGroup(t, 3)

			results := make([]int32, len(ctxs))
			var g errgroup.Group
			for r, c := range ctxs {
				g.Go(func() error {
					v := int32(-1)
					if r == root {
						v = 42
					}
					err := c.BroadcastInt32(&v, root)
					results[r] = v
					return err
				})
			}
			require.NoError(t, g.Wait())

			for r := range results {
				assert.Equal(t, int32(42), results[r], "rank %d", r)
			}
		})
	}
}

func TestBroadcastBytes(t *testing.T) {
	const root = 1
	ctxs := startGroup(t, 4)

	payload := []byte("WWWWWWWWWYYYYYYYYY")
	results := make([][]byte, len(ctxs))
	var g errgroup.Group
	for r, c := range ctxs {
		g.Go(func() error {
			buf := make([]byte, len(payload))
			if r == root {
				copy(buf, payload)
			}
			err := c.BroadcastBytes(buf, root)
			results[r] = buf
			return err
		})
	}
	require.NoError(t, g.Wait())

	for r := range results {
		assert.Equal(t, payload, results[r], "rank %d", r)
	}
}

func TestCollectivesComposeInOrder(t *testing.T) {
	// a reduce followed by a broadcast, as the solve protocol does
	ctxs := startGroup(t, 3)

	var g errgroup.Group
	for r, c := range ctxs {
		g.Go(func() error {
			min, err := c.AllreduceMin(int32(100 - r))
			if err != nil {
				return err
			}
			if min != 98 {
				return fmt.Errorf("rank %d: min = %d", r, min)
			}
			v := int32(r)
			if err := c.BroadcastInt32(&v, 2); err != nil {
				return err
			}
			if v != 2 {
				return fmt.Errorf("rank %d: broadcast = %d", r, v)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestUninitializedContext(t *testing.T) {
	var c *Context
	assert.ErrorIs(t, c.Ready(), ErrUninitializedRuntime)

	_, err := c.AllreduceMin(1)
	assert.ErrorIs(t, err, ErrUninitializedRuntime)

	ctxs := startGroup(t, 2)
	require.NoError(t, ctxs[1].Close())
	_, err = ctxs[1].AllreduceMin(1)
	assert.ErrorIs(t, err, ErrUninitializedRuntime)
}

func TestDialRejectsBadRank(t *testing.T) {
	_, err := Dial(context.Background(), "127.0.0.1:1", 0, 2)
	assert.Error(t, err)
	_, err = Dial(context.Background(), "127.0.0.1:1", 5, 2)
	assert.Error(t, err)
}
