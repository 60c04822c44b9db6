package solver

import (
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/avaleev/rubiks-server/internal/cube"
)

// Parallel fans the first level of the search tree across a fixed pool of
// worker goroutines sharing one address space. Each worker explores a
// private cube copy; the only shared mutable state is the cancellation flag,
// the minimum-next-threshold accumulator and the node counter.
type Parallel struct {
	workers int
	opts    options
}

func NewParallel(workers int, opts ...Option) *Parallel {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Parallel{workers: workers, opts: buildOptions(opts)}
}

var _ Solver = (*Parallel)(nil)

func (sv *Parallel) Solve(c cube.Cube, maxDepth int) (Result, error) {
	start := time.Now()
	if c.IsSolved() {
		return Result{Status: StatusSolved, Elapsed: time.Since(start)}, nil
	}

	var nodes atomic.Uint64
	deadline := sv.opts.deadline(start)

	threshold := c.Heuristic()
	for threshold <= maxDepth {
		out := searchFirstMoves(c, generators, threshold, sv.workers, &nodes, deadline)
		if out.path != nil {
			return Result{
				Moves:   out.path,
				Nodes:   nodes.Load(),
				Elapsed: time.Since(start),
				Status:  StatusSolved,
			}, nil
		}
		if out.timedOut {
			return Result{Nodes: nodes.Load(), Elapsed: time.Since(start), Status: StatusTimeout}, nil
		}
		if out.next == costInf {
			break
		}
		threshold = out.next
		sv.opts.progress(Progress{Threshold: threshold, Nodes: nodes.Load(), Elapsed: time.Since(start)})
	}

	return Result{Nodes: nodes.Load(), Elapsed: time.Since(start), Status: StatusExhausted}, nil
}

// iterOutcome merges one threshold iteration across all workers.
type iterOutcome struct {
	path     []cube.Move // non-nil iff a solution was found
	next     int         // minimum pruned f-cost, costInf when none
	timedOut bool
}

// searchFirstMoves explores the given first-level branches of c at one
// threshold, spread over a worker pool. The first solution found flips the
// shared cancellation flag; in-flight workers notice it at their polling
// granularity and abandon their branches. Ties between solutions reported
// before the flag is noticed break deterministically: shortest path first,
// then smallest first-move index.
func searchFirstMoves(
	c cube.Cube, first []cube.Move, threshold, workers int,
	nodes *atomic.Uint64, deadline time.Time,
) iterOutcome {
	var (
		cancel atomic.Bool

		mu        sync.Mutex
		best      []cube.Move
		bestFirst = len(first)
		out       = iterOutcome{next: costInf}
	)

	jobs := make(chan int)
	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			for i := range jobs {
				if cancel.Load() {
					continue // drain remaining branches
				}

				local := c
				local.MustApply(first[i])
				s := &search{
					cube:        local,
					path:        append(make([]cube.Move, 0, threshold+1), first[i]),
					deadline:    deadline,
					sharedNodes: nodes,
					cancel:      &cancel,
				}

				t := s.bounded(1, threshold, first[i])

				mu.Lock()
				switch {
				case t == costFound:
					if best == nil ||
						len(s.path) < len(best) ||
						(len(s.path) == len(best) && i < bestFirst) {
						best = slices.Clone(s.path)
						bestFirst = i
					}
					cancel.Store(true)
				case s.timedOut:
					out.timedOut = true
				case t < out.next:
					out.next = t
				}
				mu.Unlock()
			}
			return nil
		})
	}

	for i := range first {
		jobs <- i
	}
	close(jobs)
	_ = g.Wait() // workers never return errors

	out.path = best
	if best != nil {
		// a found solution outranks a concurrent timeout
		out.timedOut = false
	}
	return out
}
