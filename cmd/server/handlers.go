package main

import (
	"context"
	"errors"
	"fmt"
	"hash/maphash"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/schema"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avaleev/rubiks-server/internal/cube"
	"github.com/avaleev/rubiks-server/internal/solver"
)

var (
	dec = schema.NewDecoder()

	rndMu sync.Mutex
	rnd   = rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(),
		new(maphash.Hash).Sum64(),
	))
)

func init() {
	dec.IgnoreUnknownKeys(true)
}

func handleStatus(w http.ResponseWriter, r *http.Request) {
	if _, err := sendJSON(w, map[string]string{"status": "ok"}); err != nil {
		log.Error(err)
	}
}

// sessionFromRequest resolves the {id} path segment into a stored session
// and its cube.
func sessionFromRequest(w http.ResponseWriter, r *http.Request) (*CubeSession, cube.Cube, bool) {
	sessionId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		sendError(w, http.StatusBadRequest, "bad session id")
		return nil, cube.Cube{}, false
	}
	session, err := pg.GetSession(r.Context(), sessionId)
	if errors.Is(err, pgx.ErrNoRows) {
		sendError(w, http.StatusNotFound, "session not found")
		return nil, cube.Cube{}, false
	} else if err != nil {
		log.Error(err)
		w.WriteHeader(http.StatusInternalServerError)
		return nil, cube.Cube{}, false
	}
	c, err := cube.Parse(strings.TrimSpace(session.State))
	if err != nil {
		log.Error("stored state corrupt: ", err)
		w.WriteHeader(http.StatusInternalServerError)
		return nil, cube.Cube{}, false
	}
	return session, c, true
}

type NewCubeParams struct {
	State string `schema:"state"`
}

func handleNewCube(w http.ResponseWriter, r *http.Request) {
	var params NewCubeParams
	if err := dec.Decode(&params, r.URL.Query()); err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	c := cube.Solved()
	if params.State != "" {
		var err error
		if c, err = cube.Parse(params.State); err != nil {
			sendError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	session, err := pg.CreateSession(r.Context(), c)
	if err != nil {
		log.Error(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if _, err := sendJSON(w, session); err != nil {
		log.Error(err)
	}
}

func handleGetCube(w http.ResponseWriter, r *http.Request) {
	session, _, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	if _, err := sendJSON(w, session); err != nil {
		log.Error(err)
	}
}

type MoveParams struct {
	Moves string `schema:"moves,required"`
}

func handleMove(w http.ResponseWriter, r *http.Request) {
	var params MoveParams
	if err := dec.Decode(&params, r.URL.Query()); err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	ms, err := cube.ParseMoves(strings.Split(params.Moves, ","))
	if err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, c, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	if err := c.ApplyAll(ms); err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := pg.UpdateSession(r.Context(), session, c); err != nil {
		log.Error(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if _, err := sendJSON(w, session); err != nil {
		log.Error(err)
	}
}

type ScrambleParams struct {
	Count int `schema:"count"`
}

func handleScramble(w http.ResponseWriter, r *http.Request) {
	var params ScrambleParams
	if err := dec.Decode(&params, r.URL.Query()); err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	if params.Count <= 0 {
		params.Count = 20
	}
	if params.Count > 100 {
		params.Count = 100
	}

	session, c, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	rndMu.Lock()
	ms := c.Scramble(params.Count, rnd)
	rndMu.Unlock()

	if err := pg.UpdateSession(r.Context(), session, c); err != nil {
		log.Error(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if _, err := sendJSON(w, ScrambleResponse{Session: session, Moves: cube.FormatMoves(ms)}); err != nil {
		log.Error(err)
	}
}

func handleReset(w http.ResponseWriter, r *http.Request) {
	session, _, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	if err := pg.UpdateSession(r.Context(), session, cube.Solved()); err != nil {
		log.Error(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if _, err := sendJSON(w, session); err != nil {
		log.Error(err)
	}
}

type SolveParams struct {
	MaxDepth int     `schema:"max_depth"`
	Mode     string  `schema:"mode"`
	Workers  int     `schema:"workers"`
	Timeout  float64 `schema:"timeout"` // seconds
}

func (p *SolveParams) clamp() {
	if p.MaxDepth <= 0 {
		p.MaxDepth = config.Solve.DefaultMaxDepth
	}
	if p.MaxDepth > config.Solve.MaxMaxDepth {
		p.MaxDepth = config.Solve.MaxMaxDepth
	}
	if p.Timeout <= 0 {
		p.Timeout = config.Solve.DefaultTimeout
	}
	if p.Timeout > config.Solve.MaxTimeout {
		p.Timeout = config.Solve.MaxTimeout
	}
}

func (p SolveParams) budget() time.Duration {
	return time.Duration(p.Timeout * float64(time.Second))
}

// newSolver maps the requested mode onto a strategy. The distributed and
// hybrid strategies need a process group and are only reachable through the
// worker binary.
func newSolver(p SolveParams, extra ...solver.Option) (solver.Solver, string, error) {
	opts := append([]solver.Option{solver.WithBudget(p.budget())}, extra...)
	switch p.Mode {
	case "", "single":
		return solver.NewSequential(opts...), "single", nil
	case "threads", "threaded":
		return solver.NewParallel(p.Workers, opts...), "threads", nil
	case "distributed", "hybrid":
		return nil, "", fmt.Errorf("mode %q requires a process group; run the worker binary", p.Mode)
	default:
		return nil, "", fmt.Errorf("unknown mode %q", p.Mode)
	}
}

func handleSolve(w http.ResponseWriter, r *http.Request) {
	var params SolveParams
	if err := dec.Decode(&params, r.URL.Query()); err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	params.clamp()

	sv, mode, err := newSolver(params)
	if err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, c, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	res, err := sv.Solve(c, params.MaxDepth)
	if err != nil {
		log.Error("solve failed: ", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	saveSolveRecord(r.Context(), session.SessionId, mode, params, res)
	if _, err := sendJSON(w, toSolveResponse(res)); err != nil {
		log.Error(err)
	}
}

// saveSolveRecord persists the outcome; a storage failure is logged but does
// not fail the solve itself.
func saveSolveRecord(
	ctx context.Context, sessionId int, mode string, params SolveParams, res solver.Result,
) {
	_, err := pg.CreateSolveRecord(ctx, sessionId, mode, params.Workers, params.MaxDepth, res)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			log.Warn("solve record for missing session ", sessionId)
			return
		}
		log.Error("unable to save solve record: ", err)
	}
}

type SolveRecordsParams struct {
	Limit int `schema:"limit"`
}

func handleGetSolveRecords(w http.ResponseWriter, r *http.Request) {
	var params SolveRecordsParams
	if err := dec.Decode(&params, r.URL.Query()); err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 50
	}

	records, err := pg.ListSolveRecords(r.Context(), params.Limit)
	if err != nil {
		log.Error(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if _, err := sendJSON(w, records); err != nil {
		log.Error(err)
	}
}
