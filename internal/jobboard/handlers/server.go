// Package handlers exposes the job board's core operations over
// HTTP/JSON. It is a thin boundary: request decoding, principal
// resolution, error-to-status mapping. All rules live in the controller.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gartstein/jobboard/internal/jobboard/auth"
	"go.uber.org/zap"
)

// Server wraps the HTTP server with graceful start/stop.
type Server struct {
	httpServer   *http.Server
	logger       *zap.Logger
	httpEndpoint string
}

// NewServer constructs a Server listening on the given port. The handler
// is wrapped with the auth middleware so every request downstream
// carries a resolved Principal and mutating requests have passed the
// anti-forgery check.
func NewServer(httpPort int, handler http.Handler, jwtSecret string, logger *zap.Logger) *Server {
	endpoint := fmt.Sprintf(":%d", httpPort)
	return &Server{
		httpServer: &http.Server{
			Addr:    endpoint,
			Handler: auth.HTTPMiddleware(handler, jwtSecret),
		},
		logger:       logger,
		httpEndpoint: endpoint,
	}
}

// Start runs the HTTP server, returning on the first serve error.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("endpoint", s.httpEndpoint))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP serve error: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	s.logger.Info("Server stopped")
}
