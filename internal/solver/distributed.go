package solver

import (
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/avaleev/rubiks-server/internal/cluster"
	"github.com/avaleev/rubiks-server/internal/cube"
)

// Distributed fans the first level of the search tree across the ranks of a
// process group. Ranks share no memory; per iteration they agree on the
// global minimum next threshold by a reduce, and a winning rank's solution
// is elected and broadcast so every rank returns the same result. Every rank
// must call Solve with the same cube and depth.
type Distributed struct {
	cl   *cluster.Context
	opts options
}

func NewDistributed(cl *cluster.Context, opts ...Option) *Distributed {
	return &Distributed{cl: cl, opts: buildOptions(opts)}
}

var _ Solver = (*Distributed)(nil)

func (sv *Distributed) Solve(c cube.Cube, maxDepth int) (Result, error) {
	var nodes atomic.Uint64
	deadline := sv.opts.deadline(time.Now())

	explore := func(threshold int) (path []cube.Move, localMin int32, timedOut bool) {
		localMin = costInf
		for i := sv.cl.Rank(); i < len(generators); i += sv.cl.Size() {
			local := c
			local.MustApply(generators[i])
			s := &search{
				cube:     local,
				path:     append(make([]cube.Move, 0, threshold+1), generators[i]),
				deadline: deadline,
			}

			t := s.bounded(1, threshold, generators[i])
			nodes.Add(s.nodes)

			if t == costFound {
				return slices.Clone(s.path), costFound, false
			}
			if s.timedOut {
				return nil, costInf, true
			}
			if int32(t) < localMin {
				localMin = int32(t)
			}
		}
		return nil, localMin, false
	}

	return solveWithCluster(sv.cl, c, maxDepth, sv.opts, &nodes, explore)
}

// explorer runs one rank's share of a single threshold iteration and
// reports a found path (localMin == costFound), a local minimum f-cost, or
// a timeout.
type explorer func(threshold int) (path []cube.Move, localMin int32, timedOut bool)

// solveWithCluster is the threshold-escalation loop shared by the
// distributed and hybrid strategies. Per iteration every rank performs, in
// this order: its local exploration, a min-reduce of the local cost, then
// either the solution election and broadcast (when the reduced cost is the
// solved sentinel) or a max-reduce of the timeout flag. The layered timeout
// reduce keeps ranks from mistaking a group-wide timeout for exhaustion.
func solveWithCluster(
	cl *cluster.Context, c cube.Cube, maxDepth int,
	opts options, nodes *atomic.Uint64, explore explorer,
) (Result, error) {
	if err := cl.Ready(); err != nil {
		return Result{}, err
	}

	start := time.Now()
	if c.IsSolved() {
		return Result{Status: StatusSolved, Elapsed: time.Since(start)}, nil
	}

	threshold := c.Heuristic()
	for threshold <= maxDepth {
		path, localMin, timedOut := explore(threshold)

		globalMin, err := cl.AllreduceMin(localMin)
		if err != nil {
			return Result{}, err
		}

		if globalMin == costFound {
			final, err := shareSolution(cl, localMin == costFound, path)
			if err != nil {
				return Result{}, err
			}
			return Result{
				Moves:   final,
				Nodes:   nodes.Load(),
				Elapsed: time.Since(start),
				Status:  StatusSolved,
			}, nil
		}

		var flag int32
		if timedOut {
			flag = 1
		}
		groupTimedOut, err := cl.AllreduceMax(flag)
		if err != nil {
			return Result{}, err
		}
		if groupTimedOut == 1 {
			return Result{Nodes: nodes.Load(), Elapsed: time.Since(start), Status: StatusTimeout}, nil
		}

		if globalMin == costInf {
			break
		}
		threshold = int(globalMin)
		opts.progress(Progress{Threshold: threshold, Nodes: nodes.Load(), Elapsed: time.Since(start)})
	}

	return Result{Nodes: nodes.Load(), Elapsed: time.Since(start), Status: StatusExhausted}, nil
}

// shareSolution elects the winning rank (highest rank holding a solution,
// via max-reduce over rank-or-minus-one) and broadcasts its path: first the
// length, then the fixed-width move symbols.
func shareSolution(cl *cluster.Context, won bool, path []cube.Move) ([]cube.Move, error) {
	me := int32(-1)
	if won {
		me = int32(cl.Rank())
	}
	winner, err := cl.AllreduceMax(me)
	if err != nil {
		return nil, err
	}
	root := int(winner)

	var n int32
	if cl.Rank() == root {
		n = int32(len(path))
	}
	if err := cl.BroadcastInt32(&n, root); err != nil {
		return nil, err
	}

	buf := make([]byte, int(n)*moveSymbolWidth)
	if cl.Rank() == root {
		encodeMoves(buf, path)
	}
	if err := cl.BroadcastBytes(buf, root); err != nil {
		return nil, err
	}

	if cl.Rank() == root {
		return path, nil
	}
	return decodeMoves(buf)
}

// moveSymbolWidth is the wire width of one move symbol: the symbol padded
// with trailing spaces.
const moveSymbolWidth = 2

func encodeMoves(buf []byte, ms []cube.Move) {
	for i, m := range ms {
		sym := m.String()
		copy(buf[i*moveSymbolWidth:], sym)
		for j := len(sym); j < moveSymbolWidth; j++ {
			buf[i*moveSymbolWidth+j] = ' '
		}
	}
}

func decodeMoves(buf []byte) ([]cube.Move, error) {
	ms := make([]cube.Move, 0, len(buf)/moveSymbolWidth)
	for i := 0; i+moveSymbolWidth <= len(buf); i += moveSymbolWidth {
		sym := strings.TrimRight(string(buf[i:i+moveSymbolWidth]), " ")
		m, err := cube.ParseMove(sym)
		if err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	return ms, nil
}
