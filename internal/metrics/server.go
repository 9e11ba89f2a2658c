package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Server exposes the Prometheus scrape endpoint. It runs alongside
// long-lived operations such as reencryption sweeps, which would otherwise
// finish without their metrics ever being reachable.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a metrics HTTP server serving the provider's handler
// at /metrics.
func NewServer(port int, logger *slog.Logger, provider *Provider) *Server {
	mux := http.NewServeMux()
	if provider != nil {
		mux.Handle("/metrics", provider.Handler())
	}

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the metrics HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting metrics server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down metrics server")
	return s.server.Shutdown(ctx)
}
