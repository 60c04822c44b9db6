package main

import (
	"time"

	"github.com/avaleev/rubiks-server/internal/cube"
	"github.com/avaleev/rubiks-server/internal/solver"
)

type SolveResponse struct {
	Status         string   `json:"status"`
	Moves          []string `json:"moves"`
	MoveCount      int      `json:"move_count"`
	Nodes          uint64   `json:"nodes"`
	ElapsedSeconds float64  `json:"elapsed_seconds"`
}

func toSolveResponse(res solver.Result) SolveResponse {
	return SolveResponse{
		Status:         res.Status.String(),
		Moves:          cube.FormatMoves(res.Moves),
		MoveCount:      len(res.Moves),
		Nodes:          res.Nodes,
		ElapsedSeconds: res.Elapsed.Seconds(),
	}
}

type ScrambleResponse struct {
	Session *CubeSession `json:"session"`
	Moves   []string     `json:"moves"`
}

// progress frames interleave with the final result frame on the watch
// socket; Type tells them apart.
type ProgressFrame struct {
	Type           string  `json:"type"` // "progress"
	Threshold      int     `json:"threshold"`
	Nodes          uint64  `json:"nodes"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

type ResultFrame struct {
	Type   string        `json:"type"` // "result"
	Result SolveResponse `json:"result"`
}

func toProgressFrame(p solver.Progress) ProgressFrame {
	return ProgressFrame{
		Type:           "progress",
		Threshold:      p.Threshold,
		Nodes:          p.Nodes,
		ElapsedSeconds: float64(p.Elapsed) / float64(time.Second),
	}
}
