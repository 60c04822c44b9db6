package solver

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avaleev/rubiks-server/internal/cube"
)

func TestParallelAlreadySolved(t *testing.T) {
	res, err := NewParallel(4).Solve(cube.Solved(), 5)
	require.NoError(t, err)
	assert.Equal(t, StatusSolved, res.Status)
	assert.Empty(t, res.Moves)
	assert.Zero(t, res.Nodes)
}

func TestParallelMatchesSequential(t *testing.T) {
	scramble := scrambledBy(t, "R", "U", "F", "D")
	const maxDepth = 8

	seq, err := NewSequential().Solve(scramble, maxDepth)
	require.NoError(t, err)
	require.Equal(t, StatusSolved, seq.Status)

	for _, workers := range []int{1, 2, 3, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			res, err := NewParallel(workers).Solve(scramble, maxDepth)
			require.NoError(t, err)
			assert.Equal(t, seq.Status, res.Status)
			assert.Len(t, res.Moves, len(seq.Moves))
			assertSolves(t, scramble, res)
		})
	}
}

func TestParallelExhausted(t *testing.T) {
	scramble := scrambledBy(t, "R", "U", "F")
	for _, workers := range []int{2, 4} {
		res, err := NewParallel(workers).Solve(scramble, 2)
		require.NoError(t, err)
		assert.Equal(t, StatusExhausted, res.Status, "workers=%d", workers)
	}
}

func TestParallelTimeout(t *testing.T) {
	scramble := scrambledBy(t, "R", "U", "F", "L", "D", "B", "R", "U")
	res, err := NewParallel(2, WithBudget(5*time.Millisecond)).Solve(scramble, 20)
	require.NoError(t, err)
	assert.Equal(t, StatusTimeout, res.Status)
}

func TestParallelDefaultWorkerCount(t *testing.T) {
	sv := NewParallel(0)
	assert.Greater(t, sv.workers, 0)
}

func TestParallelRunsAreReproducible(t *testing.T) {
	scramble := scrambledBy(t, "R", "U", "F", "D")

	first, err := NewParallel(3).Solve(scramble, 8)
	require.NoError(t, err)
	for range 3 {
		again, err := NewParallel(3).Solve(scramble, 8)
		require.NoError(t, err)
		assert.Equal(t, first.Status, again.Status)
		assert.Len(t, again.Moves, len(first.Moves))
	}
}
