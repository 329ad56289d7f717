package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/zeusync/pebble/internal/core/observability/log"
)

// HTTPServer hosts the overlay hub plus small status endpoints.
type HTTPServer struct {
	addr   string
	logger log.Log
	mux    *http.ServeMux

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewHTTPServer routes path to hub. stats, when not nil, is served as JSON
// on /stats.
func NewHTTPServer(addr, path string, hub *Hub, stats func() any, logger log.Log) *HTTPServer {
	if logger == nil {
		logger = log.NewNop()
	}
	if path == "" {
		path = "/overlay"
	}

	s := &HTTPServer{
		addr:   addr,
		logger: logger.With(log.String("component", "http")),
		mux:    http.NewServeMux(),
	}
	s.mux.Handle(path, hub)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if stats != nil {
		s.mux.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(stats()); err != nil {
				s.logger.Warn("encode stats", log.Error(err))
			}
		})
	}
	return s
}

func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start listens on the configured address and serves in the background.
func (s *HTTPServer) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return ErrServerAlreadyRunning
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}

	s.listener = ln
	s.server = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv := s.server
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server failed", log.Error(err))
		}
	}()
	s.logger.Info("listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, useful when listening on port 0.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.server, s.listener = nil, nil
	s.mu.Unlock()

	if srv == nil {
		return ErrServerNotRunning
	}
	return srv.Shutdown(ctx)
}
