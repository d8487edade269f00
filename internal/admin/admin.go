// Package admin serves the operational HTTP surface for long-running
// commands: health checks, Prometheus metrics, a catalog status summary
// and runtime trace snapshots.
package admin

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/shoebox/shoebox/internal/metrics"
	"github.com/shoebox/shoebox/internal/tracing"
)

// Server binds the admin endpoints to one listener. It speaks plain
// HTTP; callers are expected to bind it to loopback.
type Server struct {
	server *http.Server
	mux    *http.ServeMux
}

// New builds the admin mux. status may be nil, in which case /status
// is not registered.
func New(status http.Handler) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/debug/trace", traceHandler)
	if status != nil {
		mux.Handle("/status", status)
	}

	return &Server{mux: mux}
}

// Start begins serving on addr in the background. Bind failures are
// returned; errors after that are swallowed since shutdown is expected.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		_ = s.server.Serve(ln)
	}()

	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// traceHandler returns a runtime trace snapshot compatible with
// `go tool trace`.
func traceHandler(w http.ResponseWriter, r *http.Request) {
	if !tracing.Enabled() {
		http.Error(w, "tracing not enabled (use --enable-tracing)", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=trace.out")

	if err := tracing.Snapshot(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}
