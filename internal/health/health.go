// Package health provides a simple HTTP health check endpoint.
//
// /healthz reports liveness together with the session arbitration state;
// /readyz returns 200 once the daemon accepts commands.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/nadzzz/mira/internal/session"
)

// SessionReporter exposes the current arbitration state.
type SessionReporter interface {
	Snapshot() session.Snapshot
}

// Server is a lightweight HTTP server that exposes /healthz and /readyz.
type Server struct {
	port    int
	ready   atomic.Bool
	session SessionReporter
	server  *http.Server
}

// New creates a new health check server. reporter may be nil.
func New(port int, reporter SessionReporter) *Server {
	return &Server{port: port, session: reporter}
}

// SetReady marks the daemon as ready to accept commands.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

type response struct {
	Status  string            `json:"status"`
	Session *session.Snapshot `json:"session,omitempty"`
}

func (s *Server) write(w http.ResponseWriter, withSession bool) {
	resp := response{Status: "ok"}
	code := http.StatusOK
	if !s.ready.Load() {
		resp.Status = "not_ready"
		code = http.StatusServiceUnavailable
	}
	if withSession && s.session != nil {
		snap := s.session.Snapshot()
		resp.Session = &snap
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// Handler returns the health routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		s.write(w, true)
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		s.write(w, false)
	})
	return mux
}

// ListenAndServe starts the health check HTTP server.
// It blocks until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("health server listening", "port", s.port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}
