package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/smartwealth/internal/config"
	"github.com/aristath/smartwealth/internal/metrics"
	"github.com/aristath/smartwealth/internal/modules/answer"
	"github.com/aristath/smartwealth/internal/modules/cachestore"
	"github.com/aristath/smartwealth/internal/modules/datasets"
	"github.com/aristath/smartwealth/internal/modules/plan"
	"github.com/aristath/smartwealth/internal/modules/query"
	"github.com/aristath/smartwealth/internal/modules/schema"
	"github.com/aristath/smartwealth/internal/modules/snapshots"
)

// InitializeServices builds the schema registry, cache store, executor and
// HTTP-facing services, and binds a loader to every configured dataset
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	registry, err := schema.NewDefaultRegistry(cfg.Tables())
	if err != nil {
		return fmt.Errorf("failed to build schema registry: %w", err)
	}
	container.Registry = registry
	container.Metrics = metrics.New()

	container.SnapshotRepo = snapshots.NewRepository(container.StateDB)
	container.Cache = cachestore.New(log,
		cachestore.WithPersister(container.SnapshotRepo),
		cachestore.WithMetrics(container.Metrics),
	)

	dialect := query.DialectSQLite
	src := datasets.Sources{Bucket: cfg.S3.Bucket, Prefix: cfg.S3.Prefix}
	var warehouse query.Warehouse
	if container.Warehouse != nil {
		dialect = query.DialectFor(string(container.Warehouse.Driver()))
		src.Warehouse = datasets.NewWarehouseSource(container.Warehouse, dialect, log)
		warehouse = container.Warehouse
	}
	if cfg.S3.Enabled() {
		client, err := NewS3Client(ctx, cfg.S3)
		if err != nil {
			return err
		}
		container.S3Client = client
		src.S3 = client
	}

	settings, err := cfg.DatasetSettings()
	if err != nil {
		return err
	}
	if err := datasets.Register(container.Cache, registry, src, settings); err != nil {
		return fmt.Errorf("failed to register dataset loaders: %w", err)
	}

	container.Compiler = plan.NewCompiler(registry)
	container.Executor = query.NewExecutor(warehouse, dialect, container.Cache, container.Metrics, log)
	container.DatasetService = datasets.NewService(container.Cache, registry, log)
	container.AnswerService = answer.NewService(container.Compiler, container.Executor, nil, container.Metrics, log)

	log.Info().
		Strs("datasets", container.Cache.Datasets()).
		Str("dialect", string(dialect)).
		Bool("s3", container.S3Client != nil).
		Msg("Services initialized")
	return nil
}
