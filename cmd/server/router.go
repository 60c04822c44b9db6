package main

import "net/http"

func buildHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/status", handleStatus)

	mux.HandleFunc("POST /v1/cube", handleNewCube)
	mux.HandleFunc("GET /v1/cube/{id}", handleGetCube)
	mux.HandleFunc("POST /v1/cube/{id}/move", handleMove)
	mux.HandleFunc("POST /v1/cube/{id}/scramble", handleScramble)
	mux.HandleFunc("POST /v1/cube/{id}/reset", handleReset)
	mux.HandleFunc("POST /v1/cube/{id}/solve", handleSolve)

	mux.HandleFunc("GET /v1/solves", handleGetSolveRecords)

	mux.HandleFunc("/v1/cube/{id}/watch", handleWatchSolve)

	handler := useMiddleware(mux,
		corsMiddleware,
		loggingMiddleware,
	)

	return handler
}
