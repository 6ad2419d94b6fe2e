// Package agent is a minimal host agent. It serves the status part of the
// host API from local counters so a machine without the full backend can
// still be registered as a device.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Server answers /api/status, /api/services and /api/todos.
type Server struct {
	collector Collector
	log       zerolog.Logger
}

// New returns an agent reporting what collector gathers.
func New(collector Collector, log zerolog.Logger) *Server {
	return &Server{collector: collector, log: log}
}

// Handler returns the agent routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/services", emptyList)
	mux.HandleFunc("GET /api/todos", emptyList)
	return mux
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info().Str("address", addr).Msg("agent listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.collector.Collect(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("collect status")
		http.Error(w, "status unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, status)
}

func emptyList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, []struct{}{})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
