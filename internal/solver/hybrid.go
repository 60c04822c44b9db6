package solver

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/avaleev/rubiks-server/internal/cluster"
	"github.com/avaleev/rubiks-server/internal/cube"
)

// Hybrid composes the two decompositions: the process group splits the
// first-level branches as Distributed does, and each rank explores its
// subset with a local thread pool as Parallel does. The thread-level
// cancellation flag stays process-local; ranks still coordinate only
// through the reduce and broadcast collectives.
type Hybrid struct {
	cl      *cluster.Context
	threads int
	opts    options
}

func NewHybrid(cl *cluster.Context, threads int, opts ...Option) *Hybrid {
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	return &Hybrid{cl: cl, threads: threads, opts: buildOptions(opts)}
}

var _ Solver = (*Hybrid)(nil)

func (sv *Hybrid) Solve(c cube.Cube, maxDepth int) (Result, error) {
	if err := sv.cl.Ready(); err != nil {
		return Result{}, err
	}

	var nodes atomic.Uint64
	deadline := sv.opts.deadline(time.Now())

	var assigned []cube.Move
	for i := sv.cl.Rank(); i < len(generators); i += sv.cl.Size() {
		assigned = append(assigned, generators[i])
	}

	explore := func(threshold int) ([]cube.Move, int32, bool) {
		out := searchFirstMoves(c, assigned, threshold, sv.threads, &nodes, deadline)
		switch {
		case out.path != nil:
			return out.path, costFound, false
		case out.timedOut:
			return nil, costInf, true
		default:
			return nil, int32(out.next), false
		}
	}

	return solveWithCluster(sv.cl, c, maxDepth, sv.opts, &nodes, explore)
}
