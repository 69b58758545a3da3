package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/detour-app/detour-backend/internal/config"
	"github.com/detour-app/detour-backend/internal/infrastructure/container"
	"github.com/detour-app/detour-backend/internal/infrastructure/logger"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Setup(cfg.Server.Env, cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize dependency injection container
	app, err := container.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	workers, cancelWorkers := context.WithCancel(context.Background())
	app.Start(workers)

	// Blocks until a shutdown signal arrives or the listener fails
	if err := app.Server.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Server error")
	}

	cancelWorkers()
	if err := app.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing application")
		os.Exit(1)
	}

	log.Info().Msg("Server exited properly")
}
