package solver

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avaleev/rubiks-server/internal/cube"
)

func TestMain(m *testing.M) {
	Log.SetLevel(logrus.WarnLevel)
	m.Run()
}

func scrambledBy(t *testing.T, symbols ...string) cube.Cube {
	t.Helper()
	ms, err := cube.ParseMoves(symbols)
	require.NoError(t, err)
	c := cube.Solved()
	require.NoError(t, c.ApplyAll(ms))
	return c
}

// assertSolves verifies the reported path actually solves the cube.
func assertSolves(t *testing.T, c cube.Cube, res Result) {
	t.Helper()
	require.Equal(t, StatusSolved, res.Status)
	require.NoError(t, c.ApplyAll(res.Moves))
	assert.True(t, c.IsSolved())
}

func TestSequentialAlreadySolved(t *testing.T) {
	res, err := NewSequential().Solve(cube.Solved(), 5)
	require.NoError(t, err)
	assert.Equal(t, StatusSolved, res.Status)
	assert.Empty(t, res.Moves)
	assert.Zero(t, res.Nodes)
}

func TestSequentialShortScramble(t *testing.T) {
	scramble := scrambledBy(t, "R", "U")
	res, err := NewSequential().Solve(scramble, 10)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.Moves), 10)
	assert.GreaterOrEqual(t, res.Nodes, uint64(1))
	assert.GreaterOrEqual(t, res.Elapsed, time.Duration(0))
	assertSolves(t, scramble, res)
}

func TestSequentialSolvesDeeperScramble(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}
	scramble := scrambledBy(t, "R", "U", "F", "D")
	res, err := NewSequential().Solve(scramble, 8)
	require.NoError(t, err)
	assertSolves(t, scramble, res)
}

func TestSequentialExhaustedBelowSolutionLength(t *testing.T) {
	scramble := scrambledBy(t, "R", "U", "F")
	res, err := NewSequential().Solve(scramble, 2)
	require.NoError(t, err)
	assert.Equal(t, StatusExhausted, res.Status)
	assert.Empty(t, res.Moves)
}

func TestSequentialTimeout(t *testing.T) {
	scramble := scrambledBy(t, "R", "U", "F", "L", "D", "B", "R", "U")
	res, err := NewSequential(WithBudget(5 * time.Millisecond)).Solve(scramble, 20)
	require.NoError(t, err)
	assert.Equal(t, StatusTimeout, res.Status)
	assert.Empty(t, res.Moves)
	assert.GreaterOrEqual(t, res.Nodes, uint64(1))
}

func TestSequentialReportsProgress(t *testing.T) {
	var thresholds []int
	sv := NewSequential(WithProgress(func(p Progress) {
		thresholds = append(thresholds, p.Threshold)
	}))
	scramble := scrambledBy(t, "R", "U", "F")
	_, err := sv.Solve(scramble, 8)
	require.NoError(t, err)

	// thresholds never decrease across iterations
	for i := 1; i < len(thresholds); i++ {
		assert.GreaterOrEqual(t, thresholds[i], thresholds[i-1])
	}
}

func TestExpiredDeadlineUnwindsWithinPollWindow(t *testing.T) {
	s := &search{
		cube:     scrambledBy(t, "R", "U", "F", "L", "D", "B", "R", "U"),
		path:     make([]cube.Move, 0, 11),
		deadline: time.Now().Add(-time.Second),
	}
	// land the poll boundary two frames deep, with untried siblings above it
	s.nodes = pollEvery - 3

	got := s.bounded(0, 10, cube.MoveNone)
	assert.Equal(t, costInf, got)
	assert.True(t, s.timedOut)
	assert.Equal(t, uint64(pollEvery), s.nodes,
		"an expired deadline must unwind the whole pass, not just the frame that observed it")
}

func TestCancellationUnwindsWithinPollWindow(t *testing.T) {
	var (
		cancel atomic.Bool
		shared atomic.Uint64
	)
	cancel.Store(true)
	s := &search{
		cube:        scrambledBy(t, "R", "U", "F", "L", "D", "B", "R", "U"),
		path:        make([]cube.Move, 0, 11),
		sharedNodes: &shared,
		cancel:      &cancel,
	}
	s.nodes = pollEvery - 3

	got := s.bounded(0, 10, cube.MoveNone)
	assert.Equal(t, costInf, got)
	assert.False(t, s.timedOut, "cancellation is not a timeout")
	assert.Equal(t, uint64(pollEvery), s.nodes)
}

func TestBudgetOvershootStaysBounded(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}
	scramble := scrambledBy(t,
		"R", "U", "F", "L", "D", "B", "R", "U", "F", "L", "D", "B", "R", "U")
	const budget = time.Second

	start := time.Now()
	res, err := NewSequential(WithBudget(budget)).Solve(scramble, 20)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Equal(t, StatusTimeout, res.Status)
	assert.Less(t, elapsed, 2*budget,
		"expiry must unwind the in-flight pass, not finish it at the polling rate")
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "solved", StatusSolved.String())
	assert.Equal(t, "timeout", StatusTimeout.String())
	assert.Equal(t, "exhausted", StatusExhausted.String())
	assert.Equal(t, "unknown", Status(99).String())
}
