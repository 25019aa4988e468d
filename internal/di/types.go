// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/aristath/smartwealth/internal/database"
	"github.com/aristath/smartwealth/internal/metrics"
	"github.com/aristath/smartwealth/internal/modules/answer"
	"github.com/aristath/smartwealth/internal/modules/cachestore"
	"github.com/aristath/smartwealth/internal/modules/datasets"
	"github.com/aristath/smartwealth/internal/modules/plan"
	"github.com/aristath/smartwealth/internal/modules/query"
	"github.com/aristath/smartwealth/internal/modules/schema"
	"github.com/aristath/smartwealth/internal/modules/snapshots"
	"github.com/aristath/smartwealth/internal/scheduler"
)

// Container holds all dependencies for the application.
// It is created by Wire and passed to the server for access to services.
type Container struct {
	// Databases
	StateDB   *database.DB        // local snapshot persistence (modernc sqlite)
	Warehouse *database.Warehouse // nil when WAREHOUSE_DSN is unset

	// Clients
	S3Client *s3.Client // nil unless SNAPSHOT_S3_BUCKET is set

	// Repositories
	SnapshotRepo *snapshots.Repository

	// Engine
	Metrics  *metrics.Metrics
	Registry *schema.Registry
	Cache    *cachestore.Store
	Compiler *plan.Compiler
	Executor *query.Executor

	// Services
	DatasetService *datasets.Service
	AnswerService  *answer.Service
}

// JobInstances holds the scheduled jobs so they can be triggered manually
type JobInstances struct {
	CacheWarm       *scheduler.CacheWarmJob
	SnapshotCleanup *snapshots.CleanupJob
	WALCheckpoints  *scheduler.CheckWALCheckpointsJob
}

// Close releases every connection the container owns
func (c *Container) Close() error {
	var firstErr error
	if c.Warehouse != nil {
		if err := c.Warehouse.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.StateDB != nil {
		if err := c.StateDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
