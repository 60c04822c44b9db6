package solver

import (
	"math"
	"slices"
	"sync/atomic"
	"time"

	"github.com/avaleev/rubiks-server/internal/cube"
)

const (
	// costFound is the bounded-search sentinel for "solution on the current
	// path". It doubles as the reduced "solved" marker between processes, so
	// it must stay below any real f-cost.
	costFound = -1
	// costInf marks a subtree with no branch below the bound. Capped at
	// int32 range so it survives the cluster wire unchanged.
	costInf = math.MaxInt32

	// pollEvery is the node-expansion granularity at which the deadline and
	// the cancellation flag are consulted. Cancellation is a liveness
	// guarantee, not a real-time one: a worker overshoots by at most this
	// many expansions.
	pollEvery = 1024
)

// generators is shared by every worker; it is never mutated.
var generators = cube.Generators()

// search carries one worker's private state through the recursion. The cube
// is mutated in place and undone on backtrack; nothing here is ever shared
// between workers except the two optional pointers.
type search struct {
	cube     cube.Cube
	path     []cube.Move
	nodes    uint64
	deadline time.Time
	timedOut bool
	stopped  bool

	// set only under ThreadDecomposition
	sharedNodes *atomic.Uint64
	cancel      *atomic.Bool
}

// expand accounts for one node and reports whether the search may continue.
// Once an expired deadline or the cancellation flag is observed, stopped
// stays set and every remaining frame fails fast, so the recursion unwinds
// instead of finishing the iteration at the polling rate.
func (s *search) expand() bool {
	if s.stopped {
		return false
	}
	s.nodes++
	if s.sharedNodes != nil {
		s.sharedNodes.Add(1)
	}
	if s.nodes%pollEvery == 0 {
		if s.cancel != nil && s.cancel.Load() {
			s.stopped = true
			return false
		}
		if !s.deadline.IsZero() && time.Now().After(s.deadline) {
			s.timedOut = true
			s.stopped = true
			return false
		}
	}
	return true
}

// bounded is the depth-first pass of one threshold iteration. It explores
// every move sequence with g + heuristic <= bound, skipping moves redundant
// against the immediately preceding one. It returns costFound with the
// solution left in s.path, or the minimum f-cost among pruned branches
// (costInf when no branch existed below the bound). On timeout or
// cancellation it unwinds with costInf; s.timedOut tells the two apart.
func (s *search) bounded(g, bound int, last cube.Move) int {
	if !s.expand() {
		return costInf
	}

	f := g + s.cube.Heuristic()
	if f > bound {
		return f
	}
	if s.cube.IsSolved() {
		return costFound
	}

	min := costInf
	for _, m := range generators {
		if cube.Redundant(last, m) {
			continue
		}
		s.cube.MustApply(m)
		s.path = append(s.path, m)

		t := s.bounded(g+1, bound, m)
		if t == costFound {
			return costFound
		}
		if t < min {
			min = t
		}

		s.path = s.path[:len(s.path)-1]
		s.cube.MustApply(m.Inverse())
	}
	return min
}

// Sequential is the single-worker engine: plain iterative deepening over one
// call stack.
type Sequential struct {
	opts options
}

func NewSequential(opts ...Option) *Sequential {
	return &Sequential{opts: buildOptions(opts)}
}

var _ Solver = (*Sequential)(nil)

func (sv *Sequential) Solve(c cube.Cube, maxDepth int) (Result, error) {
	start := time.Now()
	if c.IsSolved() {
		return Result{Status: StatusSolved, Elapsed: time.Since(start)}, nil
	}

	s := &search{
		cube:     c,
		path:     make([]cube.Move, 0, maxDepth+1),
		deadline: sv.opts.deadline(start),
	}

	threshold := c.Heuristic()
	for threshold <= maxDepth {
		Log.WithFields(map[string]any{
			"threshold": threshold,
			"nodes":     s.nodes,
		}).Debug("bounded search pass")

		t := s.bounded(0, threshold, cube.MoveNone)
		if t == costFound {
			return Result{
				Moves:   slices.Clone(s.path),
				Nodes:   s.nodes,
				Elapsed: time.Since(start),
				Status:  StatusSolved,
			}, nil
		}
		if s.timedOut {
			return Result{Nodes: s.nodes, Elapsed: time.Since(start), Status: StatusTimeout}, nil
		}
		if t == costInf {
			break
		}
		threshold = t
		sv.opts.progress(Progress{Threshold: threshold, Nodes: s.nodes, Elapsed: time.Since(start)})
	}

	return Result{Nodes: s.nodes, Elapsed: time.Since(start), Status: StatusExhausted}, nil
}
