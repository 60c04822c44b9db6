package main

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/avaleev/rubiks-server/internal/solver"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // cors middleware handles this
	},
}

// handleWatchSolve runs a solve while streaming per-threshold progress
// frames over a websocket, then delivers the result as the final frame.
func handleWatchSolve(w http.ResponseWriter, r *http.Request) {
	var params SolveParams
	if err := dec.Decode(&params, r.URL.Query()); err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	params.clamp()

	session, c, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("unable to upgrade connection: ", err)
		return
	}
	defer conn.Close()

	// The progress callback runs on the solve goroutine, so writes to the
	// socket are already serialized.
	onProgress := solver.WithProgress(func(p solver.Progress) {
		if err := conn.WriteJSON(toProgressFrame(p)); err != nil {
			log.Error("unable to send progress frame: ", err)
		}
	})

	sv, mode, err := newSolver(params, onProgress)
	if err != nil {
		closeWith(conn, websocket.ClosePolicyViolation, err.Error())
		return
	}

	res, err := sv.Solve(c, params.MaxDepth)
	if err != nil {
		log.Error("solve failed: ", err)
		closeWith(conn, websocket.CloseInternalServerErr, "solve failed")
		return
	}

	saveSolveRecord(r.Context(), session.SessionId, mode, params, res)

	if err := conn.WriteJSON(ResultFrame{Type: "result", Result: toSolveResponse(res)}); err != nil {
		log.Error("unable to send result frame: ", err)
		return
	}
	closeWith(conn, websocket.CloseNormalClosure, "")
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		log.Error("unable to send close message: ", err)
	}
}
