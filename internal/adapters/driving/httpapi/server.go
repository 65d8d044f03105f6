// Package httpapi exposes ingest and question answering over HTTP.
//
// Routes:
//
//	POST /build_vectors  {"pdf_path": "..."} or {"path": "..."}
//	POST /chat           {"question": "...", "top_k": n}
//	GET  /healthz
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/custodia-labs/codetutor/internal/adapters/driving/handle"
	"github.com/custodia-labs/codetutor/internal/core/ports/driving"
	"github.com/custodia-labs/codetutor/internal/logger"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Ports aggregates the driving ports the HTTP server needs.
type Ports struct {
	// Index holds the served index handle.
	Index *handle.Holder

	// Indexes builds new indexes for /build_vectors.
	Indexes driving.IndexService

	// Answer generates answers for /chat.
	Answer driving.AnswerService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Index == nil || p.Indexes == nil || p.Answer == nil {
		return errors.New("httpapi: index holder, index service and answer service are required")
	}
	return nil
}

// Server serves the HTTP API.
type Server struct {
	ports *Ports
	mux   *http.ServeMux
}

// NewServer creates a server with its routes registered.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	s := &Server{ports: ports, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /build_vectors", s.handleBuildVectors)
	s.mux.HandleFunc("POST /chat", s.handleChat)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mux.ServeHTTP(w, r)
	logger.Debug("%s %s (%s)", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
// Write timeouts are generous because a /build_vectors call embeds a whole document.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown: %v", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
