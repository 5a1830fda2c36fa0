// Package server exposes the cron trigger over HTTP. One POST route kicks a
// run, one GET route answers health probes.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"matchbook/internal/runner"
)

// Server wraps the runner behind a minimal HTTP surface.
type Server struct {
	runner *runner.Runner
	addr   string
}

// NewServer builds the HTTP front for a runner.
func NewServer(r *runner.Runner, addr string) *Server {
	return &Server{runner: r, addr: addr}
}

// Handler returns the route mux, exported so tests can drive it directly.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/cron/match-tick", s.handleMatchTick)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux
}

// Start blocks serving HTTP until the listener fails or ctx is done.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", s.addr).Msg("HTTP server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleMatchTick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	env := s.runner.RunCron(r.Context())

	status := http.StatusOK
	if env.Status == "skipped" && env.Reason == "locked" {
		status = http.StatusConflict
	}
	writeJSON(w, status, env)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
