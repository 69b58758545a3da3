package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/detour-app/detour-backend/internal/config"
	"github.com/detour-app/detour-backend/internal/infrastructure/logger"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

// Server serves the API until its context ends
type Server struct {
	httpServer *http.Server
	env        string
	logger     zerolog.Logger
}

func NewServer(cfg *config.ServerConfig, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:           fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:        handler,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			MaxHeaderBytes: 1 << 20,
		},
		env:    cfg.Env,
		logger: logger.Component("http"),
	}
}

// Run listens until ctx is done, then drains in-flight requests.
// It returns an error when the listener or the drain fails.
func (s *Server) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Str("env", s.env).Msg("Starting server")
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info().Msg("Server stopped")
	return nil
}
