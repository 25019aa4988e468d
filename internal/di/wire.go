package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/smartwealth/internal/config"
	"github.com/aristath/smartwealth/internal/scheduler"
)

// Wire initializes all dependencies and returns a fully configured container
// This is the main entry point for dependency injection
// Order of operations:
// 1. Initialize databases
// 2. Initialize services (registry, cache, loaders, executor)
// 3. Prime the cache from persisted snapshots
// 4. Register jobs
func Wire(ctx context.Context, cfg *config.Config, sched *scheduler.Scheduler, log zerolog.Logger) (*Container, *JobInstances, error) {
	container, err := InitializeDatabases(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := InitializeServices(ctx, container, cfg, log); err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if cfg.PrimeOnStart {
		if err := container.Cache.Prime(ctx); err != nil {
			// Priming is best effort: the first request reloads from the source.
			log.Warn().Err(err).Msg("Failed to prime cache from persisted snapshots")
		}
	}

	jobs, err := RegisterJobs(sched, container, cfg, log)
	if err != nil {
		container.Close()
		return nil, nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")

	return container, jobs, nil
}
