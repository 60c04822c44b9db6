// Command worker runs one rank of a distributed solve. Rank 0 listens for
// the other ranks, distributes the problem over the group and prints the
// result; every other rank dials rank 0 and participates in the search.
//
// A four-process hybrid solve of a stored state looks like:
//
//	worker -rank 0 -size 4 -addr :7700 -mode hybrid -state <54 labels> &
//	worker -rank 1 -size 4 -addr host0:7700 -mode hybrid &
//	worker -rank 2 -size 4 -addr host0:7700 -mode hybrid &
//	worker -rank 3 -size 4 -addr host0:7700 -mode hybrid
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/avaleev/rubiks-server/internal/cluster"
	"github.com/avaleev/rubiks-server/internal/cube"
	"github.com/avaleev/rubiks-server/internal/solver"
)

var log = logrus.New()

const (
	cmdDistributed int32 = 1
	cmdHybrid      int32 = 2
)

var (
	rank     int
	size     int
	addr     string
	mode     string
	threads  int
	maxDepth int
	state    string
	timeout  time.Duration
)

func init() {
	flag.IntVar(&rank, "rank", 0, "rank of this process within the group")
	flag.IntVar(&size, "size", 1, "total number of processes in the group")
	flag.StringVar(&addr, "addr", ":7700",
		"rank 0: address to listen on; other ranks: address of rank 0")
	flag.StringVar(&mode, "mode", "distributed", `"distributed" or "hybrid"`)
	flag.IntVar(&threads, "threads", 0,
		"threads per process in hybrid mode (0 means GOMAXPROCS)")
	flag.IntVar(&maxDepth, "max-depth", 10, "maximum solution length to consider")
	flag.StringVar(&state, "state", "",
		"54-label cube state to solve (rank 0 only; empty scrambles a fresh cube)")
	flag.DurationVar(&timeout, "timeout", 0, "wall clock budget, 0 means none")
}

func main() {
	flag.Parse()
	log.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context) error {
	cl, err := joinGroup(ctx)
	if err != nil {
		return fmt.Errorf("unable to join process group: %w", err)
	}
	defer cl.Close()
	log.Infof("rank %d of %d ready", cl.Rank(), cl.Size())

	command, c, err := shareProblem(cl)
	if err != nil {
		return fmt.Errorf("unable to share problem: %w", err)
	}

	opts := []solver.Option{}
	if timeout > 0 {
		opts = append(opts, solver.WithBudget(timeout))
	}
	if cl.Rank() == 0 {
		opts = append(opts, solver.WithProgress(func(p solver.Progress) {
			log.Debugf("threshold %d exhausted after %d nodes", p.Threshold, p.Nodes)
		}))
	}

	var sv solver.Solver
	switch command {
	case cmdDistributed:
		sv = solver.NewDistributed(cl, opts...)
	case cmdHybrid:
		sv = solver.NewHybrid(cl, threads, opts...)
	default:
		return fmt.Errorf("unknown command code %d", command)
	}

	res, err := sv.Solve(c, maxDepth)
	if err != nil {
		return err
	}

	if cl.Rank() == 0 {
		return json.NewEncoder(os.Stdout).Encode(toReport(res))
	}
	return nil
}

func joinGroup(ctx context.Context) (*cluster.Context, error) {
	if rank == 0 {
		ln, err := cluster.NewListener(addr)
		if err != nil {
			return nil, err
		}
		log.Info("waiting for ranks on ", ln.Addr())
		return ln.Context(ctx, size)
	}
	return cluster.Dial(ctx, addr, rank, size)
}

// shareProblem distributes the solve parameters from rank 0 to the group so
// that every rank calls Solve with identical arguments. The order is fixed:
// command code, maximum depth, state length, state bytes.
func shareProblem(cl *cluster.Context) (int32, cube.Cube, error) {
	var (
		command int32
		depth   int32
		c       cube.Cube
	)
	if cl.Rank() == 0 {
		switch mode {
		case "distributed":
			command = cmdDistributed
		case "hybrid":
			command = cmdHybrid
		default:
			return 0, c, fmt.Errorf("unknown mode %q", mode)
		}
		depth = int32(maxDepth)

		if state == "" {
			c = cube.Solved()
			r := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
			ms := c.Scramble(8, r)
			log.Info("scrambled with ", cube.FormatMoves(ms))
		} else {
			var err error
			if c, err = cube.Parse(state); err != nil {
				return 0, c, err
			}
		}
	}

	if err := cl.BroadcastInt32(&command, 0); err != nil {
		return 0, c, err
	}
	if err := cl.BroadcastInt32(&depth, 0); err != nil {
		return 0, c, err
	}

	buf := []byte(c.String())
	n := int32(len(buf))
	if err := cl.BroadcastInt32(&n, 0); err != nil {
		return 0, c, err
	}
	if cl.Rank() != 0 {
		buf = make([]byte, n)
	}
	if err := cl.BroadcastBytes(buf, 0); err != nil {
		return 0, c, err
	}
	if cl.Rank() != 0 {
		var err error
		if c, err = cube.Parse(string(buf)); err != nil {
			return 0, c, err
		}
	}

	maxDepth = int(depth)
	return command, c, nil
}

type report struct {
	Status         string   `json:"status"`
	Moves          []string `json:"moves"`
	MoveCount      int      `json:"move_count"`
	Nodes          uint64   `json:"nodes"`
	ElapsedSeconds float64  `json:"elapsed_seconds"`
}

func toReport(res solver.Result) report {
	return report{
		Status:         res.Status.String(),
		Moves:          cube.FormatMoves(res.Moves),
		MoveCount:      len(res.Moves),
		Nodes:          res.Nodes,
		ElapsedSeconds: res.Elapsed.Seconds(),
	}
}
