package di

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/smartwealth/internal/config"
	"github.com/aristath/smartwealth/internal/database"
)

// InitializeDatabases opens the local state database, applies its schema
// and connects to the warehouse when one is configured
func InitializeDatabases(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// state.db - persisted dataset snapshots, rebuilt from the warehouse if lost
	stateDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "state.db"),
		Profile: database.ProfileCache,
		Name:    "state",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize state database: %w", err)
	}
	if err := stateDB.Migrate(); err != nil {
		stateDB.Close()
		return nil, fmt.Errorf("failed to apply schema to %s: %w", stateDB.Name(), err)
	}
	container.StateDB = stateDB
	log.Debug().
		Str("path", stateDB.Path()).
		Str("profile", string(stateDB.Profile())).
		Msg("State database ready")

	if cfg.Warehouse.DSN == "" {
		log.Warn().Msg("WAREHOUSE_DSN not set, warehouse-backed datasets are unavailable")
		return container, nil
	}

	driver, err := database.ParseDriver(cfg.Warehouse.Driver)
	if err != nil {
		stateDB.Close()
		return nil, err
	}
	warehouse, err := database.OpenWarehouse(ctx, database.WarehouseConfig{
		Driver:       driver,
		DSN:          cfg.Warehouse.DSN,
		MaxOpenConns: cfg.Warehouse.MaxOpenConns,
	})
	if err != nil {
		stateDB.Close()
		return nil, fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	container.Warehouse = warehouse

	log.Info().Str("driver", string(driver)).Msg("Databases initialized")
	return container, nil
}
