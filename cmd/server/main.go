// Package main is the entry point for the smartwealth query service.
// It answers structured dataset intents (profiles, scores, earnings, vendors)
// from a SQL warehouse or from in-memory dataset snapshots.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/smartwealth/internal/config"
	"github.com/aristath/smartwealth/internal/di"
	"github.com/aristath/smartwealth/internal/scheduler"
	"github.com/aristath/smartwealth/internal/server"
	"github.com/aristath/smartwealth/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting smartwealth")

	sched := scheduler.New(log)

	// Databases, dataset sources, cache store, engine services and jobs
	container, jobs, err := di.Wire(context.Background(), cfg, sched, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:            log,
		Port:           cfg.Port,
		DevMode:        cfg.DevMode,
		DataDir:        cfg.DataDir,
		AllowedOrigins: cfg.FrontendOrigins,
		Container:      container,
		Jobs:           jobs.All(),
	})

	sched.Start()
	log.Info().Msg("Scheduler started")

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	sched.Stop()
	log.Info().Msg("Scheduler stopped")

	log.Info().Msg("Server stopped")
}
