package experiment

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/atomic"
)

// ServerConfig contains the HTTP server parameters for the run-inspection
// API.
type ServerConfig struct {
	// ListenAddr is the address and port the HTTP server will listen on.
	ListenAddr string

	// EnablePprof enables the pprof debugging API when true.
	EnablePprof bool

	// Log is the structured logger for server operations.
	Log *slog.Logger

	// GracefulShutdownDuration is the maximum time to wait for in-flight
	// requests to complete during shutdown.
	GracefulShutdownDuration time.Duration
}

// Server exposes finished experiment runs over HTTP: liveness and readiness
// probes plus per-run reports. It is operator tooling for inspecting
// results, not part of the simulated protocol.
type Server struct {
	cfg     *ServerConfig
	isReady atomic.Bool
	log     *slog.Logger

	mu   sync.RWMutex
	runs map[string]*RunResult

	srv *http.Server
}

// NewServer creates the run-inspection server.
func NewServer(cfg *ServerConfig) *Server {
	srv := &Server{
		cfg:  cfg,
		log:  cfg.Log,
		runs: make(map[string]*RunResult),
	}
	srv.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.createRouter(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	srv.isReady.Store(true)
	return srv
}

// AddRun registers a finished run for inspection.
func (srv *Server) AddRun(result *RunResult) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.runs[result.RunID] = result
}

func (srv *Server) createRouter() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)

	mux.With(srv.httpLogger).Get("/livez", srv.handleLivenessCheck)
	mux.With(srv.httpLogger).Get("/readyz", srv.handleReadinessCheck)
	mux.With(srv.httpLogger).Get("/api/runs", srv.handleListRuns)
	mux.With(srv.httpLogger).Get("/api/runs/{run_id}", srv.handleGetRun)
	mux.With(srv.httpLogger).Get("/api/runs/{run_id}/report", srv.handleGetReport)

	if srv.cfg.EnablePprof {
		srv.log.Info("pprof API enabled")
		mux.Mount("/debug", middleware.Profiler())
	}

	return mux
}

func (srv *Server) httpLogger(next http.Handler) http.Handler {
	return httplogger.LoggingMiddlewareSlog(srv.log, next)
}

func (srv *Server) handleLivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"alive"}`))
}

func (srv *Server) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if !srv.isReady.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

func (srv *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	srv.mu.RLock()
	ids := make([]string, 0, len(srv.runs))
	for id := range srv.runs {
		ids = append(ids, id)
	}
	srv.mu.RUnlock()

	writeJSON(w, map[string][]string{"runs": ids})
}

func (srv *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	srv.mu.RLock()
	run, ok := srv.runs[chi.URLParam(r, "run_id")]
	srv.mu.RUnlock()
	if !ok {
		http.Error(w, `{"error":"run not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, run)
}

func (srv *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	srv.mu.RLock()
	run, ok := srv.runs[chi.URLParam(r, "run_id")]
	srv.mu.RUnlock()
	if !ok {
		http.Error(w, `{"error":"run not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, run.Report)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

// RunInBackground starts the HTTP server in a goroutine.
func (srv *Server) RunInBackground() {
	go func() {
		srv.log.Info("run-inspection server starting", "addr", srv.cfg.ListenAddr)
		if err := srv.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.log.Error("HTTP server failed", "err", err)
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (srv *Server) Shutdown() {
	srv.isReady.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
	defer cancel()
	if err := srv.srv.Shutdown(ctx); err != nil {
		srv.log.Error("graceful shutdown failed", "err", err)
	}
}

// Handler returns the server's HTTP handler, for tests.
func (srv *Server) Handler() http.Handler {
	return srv.srv.Handler
}
