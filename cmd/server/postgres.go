package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avaleev/rubiks-server/internal/cube"
	"github.com/avaleev/rubiks-server/internal/solver"
)

type postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dbUrl string) (*postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(dbUrl)
	if err != nil {
		return nil, err
	}
	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	return &postgres{db}, nil
}

func (pg *postgres) Ping(ctx context.Context) error {
	return pg.db.Ping(ctx)
}

func (pg *postgres) Close() {
	pg.db.Close()
}

func (pg *postgres) EnsureSchema(ctx context.Context) error {
	_, err := pg.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS cube_session (
			cube_session_id	serial PRIMARY KEY
			, state			char(54) NOT NULL
			, solved		boolean NOT NULL
			, created_at	timestamptz NOT NULL DEFAULT now()
			, updated_at	timestamptz NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS solve_record (
			solve_record_id	serial PRIMARY KEY
			, cube_session_id	integer NOT NULL REFERENCES cube_session
			, mode			text NOT NULL
			, workers		integer NOT NULL
			, max_depth		integer NOT NULL
			, status		text NOT NULL
			, moves			text NOT NULL
			, move_count	integer NOT NULL
			, nodes			bigint NOT NULL
			, duration_ms	double precision NOT NULL
			, created_at	timestamptz NOT NULL DEFAULT now()
		);`)
	return err
}

type CubeSession struct {
	SessionId int       `json:"session_id"`
	State     string    `json:"state"`
	Solved    bool      `json:"solved"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (pg *postgres) CreateSession(ctx context.Context, c cube.Cube) (*CubeSession, error) {
	var (
		sessionId int
		createdAt time.Time
	)
	if err := pg.db.QueryRow(ctx, `
		INSERT INTO cube_session (state, solved)
		VALUES (@state, @solved)
		RETURNING cube_session_id, created_at;`,
		pgx.NamedArgs{
			"state":  c.String(),
			"solved": c.IsSolved(),
		}).Scan(&sessionId, &createdAt); err != nil {
		return nil, err
	}
	return &CubeSession{
		SessionId: sessionId,
		State:     c.String(),
		Solved:    c.IsSolved(),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}

func (pg *postgres) GetSession(ctx context.Context, sessionId int) (*CubeSession, error) {
	rows, err := pg.db.Query(ctx, `
		SELECT cube_session_id AS session_id, state, solved, created_at, updated_at
		FROM cube_session
		WHERE cube_session_id = $1;`,
		sessionId)
	if err != nil {
		return nil, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[CubeSession])
}

func (pg *postgres) UpdateSession(ctx context.Context, session *CubeSession, c cube.Cube) error {
	session.State = c.String()
	session.Solved = c.IsSolved()
	session.UpdatedAt = time.Now().UTC()
	_, err := pg.db.Exec(ctx, `
		UPDATE cube_session
		SET state = @state
			, solved = @solved
			, updated_at = @updated_at
		WHERE cube_session_id = @cube_session_id;`,
		pgx.NamedArgs{
			"cube_session_id": session.SessionId,
			"state":           session.State,
			"solved":          session.Solved,
			"updated_at":      session.UpdatedAt,
		})
	return err
}

type SolveRecord struct {
	SolveRecordId int       `json:"solve_record_id"`
	CubeSessionId int       `json:"session_id"`
	Mode          string    `json:"mode"`
	Workers       int       `json:"workers"`
	MaxDepth      int       `json:"max_depth"`
	Status        string    `json:"status"`
	Moves         string    `json:"moves"`
	MoveCount     int       `json:"move_count"`
	Nodes         int64     `json:"nodes"`
	DurationMs    float64   `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

func (pg *postgres) CreateSolveRecord(
	ctx context.Context, sessionId int, mode string, workers, maxDepth int, res solver.Result,
) (*SolveRecord, error) {
	moves := ""
	for i, m := range res.Moves {
		if i > 0 {
			moves += " "
		}
		moves += m.String()
	}
	var (
		recordId  int
		createdAt time.Time
	)
	if err := pg.db.QueryRow(ctx, `
		INSERT INTO solve_record (
			cube_session_id, mode, workers, max_depth,
			status, moves, move_count, nodes, duration_ms
		)
		VALUES (
			@cube_session_id, @mode, @workers, @max_depth,
			@status, @moves, @move_count, @nodes, @duration_ms
		)
		RETURNING solve_record_id, created_at;`,
		pgx.NamedArgs{
			"cube_session_id": sessionId,
			"mode":            mode,
			"workers":         workers,
			"max_depth":       maxDepth,
			"status":          res.Status.String(),
			"moves":           moves,
			"move_count":      len(res.Moves),
			"nodes":           int64(res.Nodes),
			"duration_ms":     float64(res.Elapsed) / float64(time.Millisecond),
		}).Scan(&recordId, &createdAt); err != nil {
		return nil, err
	}
	return &SolveRecord{
		SolveRecordId: recordId,
		CubeSessionId: sessionId,
		Mode:          mode,
		Workers:       workers,
		MaxDepth:      maxDepth,
		Status:        res.Status.String(),
		Moves:         moves,
		MoveCount:     len(res.Moves),
		Nodes:         int64(res.Nodes),
		DurationMs:    float64(res.Elapsed) / float64(time.Millisecond),
		CreatedAt:     createdAt,
	}, nil
}

func (pg *postgres) ListSolveRecords(ctx context.Context, limit int) ([]SolveRecord, error) {
	rows, err := pg.db.Query(ctx, `
		SELECT solve_record_id
			, cube_session_id
			, mode, workers, max_depth, status
			, moves, move_count, nodes, duration_ms, created_at
		FROM solve_record
		ORDER BY created_at DESC
		LIMIT $1;`,
		limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[SolveRecord])
}
