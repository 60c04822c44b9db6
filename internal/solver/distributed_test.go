package solver

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/avaleev/rubiks-server/internal/cluster"
	"github.com/avaleev/rubiks-server/internal/cube"
)

// startGroup forms an in-process group over loopback TCP, one goroutine per
// rank standing in for one process.
func startGroup(t *testing.T, size int) []*cluster.Context {
	t.Helper()

	l, err := cluster.NewListener("127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()

	ctxs := make([]*cluster.Context, size)
	var g errgroup.Group
	g.Go(func() error {
		c, err := l.Context(context.Background(), size)
		ctxs[0] = c
		return err
	})
	for r := 1; r < size; r++ {
		g.Go(func() error {
			c, err := cluster.Dial(context.Background(), addr, r, size)
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

// solveOnAllRanks runs one Solve per rank concurrently, as a process group
// would, and returns the per-rank results.
func solveOnAllRanks(
	t *testing.T, solvers []Solver, c cube.Cube, maxDepth int,
) []Result {
	t.Helper()

	results := make([]Result, len(solvers))
	var g errgroup.Group
	for r, sv := range solvers {
		g.Go(func() error {
			res, err := sv.Solve(c, maxDepth)
			results[r] = res
			return err
		})
	}
	require.NoError(t, g.Wait())
	return results
}

func TestDistributedMatchesSequential(t *testing.T) {
	scramble := scrambledBy(t, "R", "U", "F", "D")
	const maxDepth = 8

	seq, err := NewSequential().Solve(scramble, maxDepth)
	require.NoError(t, err)
	require.Equal(t, StatusSolved, seq.Status)

	for _, size := range []int{2, 3, 4} {
		t.Run(fmt.Sprintf("size=%d", size), func(t *testing.T) {
			ctxs := startGroup(t, size)
			solvers := make([]Solver, size)
			for r := range solvers {
				solvers[r] = NewDistributed(ctxs[r])
			}

			results := solveOnAllRanks(t, solvers, scramble, maxDepth)

			// every rank returns the same outcome
			for r, res := range results {
				assert.Equal(t, StatusSolved, res.Status, "rank %d", r)
				assert.Len(t, res.Moves, len(seq.Moves), "rank %d", r)
				assert.Equal(t, results[0].Moves, res.Moves, "rank %d", r)
			}
			assertSolves(t, scramble, results[0])
		})
	}
}

func TestDistributedAlreadySolved(t *testing.T) {
	ctxs := startGroup(t, 2)
	solvers := []Solver{NewDistributed(ctxs[0]), NewDistributed(ctxs[1])}

	results := solveOnAllRanks(t, solvers, cube.Solved(), 5)
	for _, res := range results {
		assert.Equal(t, StatusSolved, res.Status)
		assert.Empty(t, res.Moves)
	}
}

func TestDistributedExhausted(t *testing.T) {
	scramble := scrambledBy(t, "R", "U", "F")
	ctxs := startGroup(t, 3)
	solvers := make([]Solver, len(ctxs))
	for r := range solvers {
		solvers[r] = NewDistributed(ctxs[r])
	}

	results := solveOnAllRanks(t, solvers, scramble, 2)
	for r, res := range results {
		assert.Equal(t, StatusExhausted, res.Status, "rank %d", r)
	}
}

func TestDistributedUninitialized(t *testing.T) {
	_, err := NewDistributed(nil).Solve(scrambledBy(t, "R"), 5)
	assert.ErrorIs(t, err, cluster.ErrUninitializedRuntime)

	ctxs := startGroup(t, 2)
	require.NoError(t, ctxs[1].Close())
	_, err = NewDistributed(ctxs[1]).Solve(scrambledBy(t, "R"), 5)
	assert.ErrorIs(t, err, cluster.ErrUninitializedRuntime)
}

func TestHybridMatchesSequential(t *testing.T) {
	scramble := scrambledBy(t, "R", "U", "F", "D")
	const maxDepth = 8

	seq, err := NewSequential().Solve(scramble, maxDepth)
	require.NoError(t, err)
	require.Equal(t, StatusSolved, seq.Status)

	ctxs := startGroup(t, 2)
	solvers := []Solver{NewHybrid(ctxs[0], 2), NewHybrid(ctxs[1], 2)}

	results := solveOnAllRanks(t, solvers, scramble, maxDepth)
	for r, res := range results {
		assert.Equal(t, StatusSolved, res.Status, "rank %d", r)
		assert.Len(t, res.Moves, len(seq.Moves), "rank %d", r)
		assert.Equal(t, results[0].Moves, res.Moves, "rank %d", r)
	}
	assertSolves(t, scramble, results[0])
}

func TestHybridUninitialized(t *testing.T) {
	_, err := NewHybrid(nil, 2).Solve(scrambledBy(t, "R"), 5)
	assert.ErrorIs(t, err, cluster.ErrUninitializedRuntime)
}

func TestMoveSymbolWireRoundTrip(t *testing.T) {
	path := []cube.Move{cube.MoveR, cube.MoveUPrime, cube.MoveF2, cube.MoveL}
	buf := make([]byte, len(path)*moveSymbolWidth)
	encodeMoves(buf, path)

	back, err := decodeMoves(buf)
	require.NoError(t, err)
	assert.Equal(t, path, back)
}
