package server

import "net/http"

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleInfo)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /capacity", s.handleCapacity)
	mux.HandleFunc("GET /stats", s.handleStats)

	mux.HandleFunc("POST /optimize", s.handleOptimize)
	mux.HandleFunc("POST /simulate", s.handleSimulate)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)

	mux.HandleFunc("GET /runs", s.handleRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleRun)

	return mux
}
