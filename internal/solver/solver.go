// Package solver finds move sequences that return a cube to the solved
// state, using threshold-escalating depth-first search. The same engine runs
// single-threaded, fanned across a local worker pool, fanned across a
// process group, or both at once.
package solver

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/avaleev/rubiks-server/internal/cube"
)

var Log = logrus.New()

// Status is the outcome of one solve call. "No solution found yet" is an
// expected result, so outcomes travel as data rather than errors.
type Status int

const (
	// StatusSolved means Moves holds a valid solving sequence.
	StatusSolved Status = iota
	// StatusTimeout means the wall-clock budget ran out first.
	StatusTimeout
	// StatusExhausted means no solution exists within the depth limit.
	StatusExhausted
)

func (s Status) String() string {
	switch s {
	case StatusSolved:
		return "solved"
	case StatusTimeout:
		return "timeout"
	case StatusExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Result is what one solve call produces. It is immutable once returned and
// owned by the caller.
type Result struct {
	Moves   []cube.Move
	Nodes   uint64
	Elapsed time.Duration
	Status  Status
}

// Progress is a snapshot emitted after each completed threshold iteration.
type Progress struct {
	Threshold int
	Nodes     uint64
	Elapsed   time.Duration
}

// A Solver runs one search strategy. All ranks of a process group must call
// Solve with identical arguments for the distributed strategies.
type Solver interface {
	Solve(c cube.Cube, maxDepth int) (Result, error)
}

type options struct {
	budget     time.Duration
	onProgress func(Progress)
}

type Option func(*options)

// WithBudget bounds total solve wall time. The budget is polled between node
// expansions, so overshoot by one polling interval is possible. Zero means
// no limit.
func WithBudget(d time.Duration) Option {
	return func(o *options) { o.budget = d }
}

// WithProgress registers a callback invoked after each threshold iteration.
func WithProgress(fn func(Progress)) Option {
	return func(o *options) { o.onProgress = fn }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) deadline(start time.Time) time.Time {
	if o.budget <= 0 {
		return time.Time{}
	}
	return start.Add(o.budget)
}

func (o options) progress(p Progress) {
	if o.onProgress != nil {
		o.onProgress(p)
	}
}
