package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"finlint/internal/logging"
)

// Server serves the scan API over HTTP.
type Server struct {
	service  *Service
	maxBody  int64
	logger   *zap.Logger
	server   *http.Server
	listener net.Listener
	wg       sync.WaitGroup
}

// New creates a server. maxBodyKB caps request bodies; 0 means 512 KB.
func New(service *Service, maxBodyKB int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = logging.L()
	}
	if maxBodyKB <= 0 {
		maxBodyKB = 512
	}
	return &Server{service: service, maxBody: int64(maxBodyKB) * 1024, logger: logger}
}

// Handler returns the routed handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerHandlers(mux)
	return mux
}

func (s *Server) registerHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/scan", s.handleScan)
	mux.HandleFunc("/health", s.handleHealth)
}

// Start listens on addr and serves in the background.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", zap.Error(err))
		}
	}()
	s.logger.Info("server started", zap.String("addr", listener.Addr().String()))
	return nil
}

// Addr is the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.wg.Wait()
	s.logger.Info("server shut down cleanly")
	return nil
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, ScanResponse{Error: "Method not allowed"})
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ScanResponse{Error: "Request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, ScanResponse{Error: "Could not read request body"})
		return
	}
	status, resp := s.service.Scan(body)
	writeJSON(w, status, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeJSON(w, http.StatusMethodNotAllowed, ScanResponse{Error: "Method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, s.service.Health())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
