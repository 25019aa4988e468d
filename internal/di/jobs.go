package di

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/smartwealth/internal/config"
	"github.com/aristath/smartwealth/internal/modules/snapshots"
	"github.com/aristath/smartwealth/internal/scheduler"
)

const (
	cacheWarmTimeout        = 5 * time.Minute
	snapshotCleanupSchedule = "0 30 3 * * *" // 03:30 daily
	walCheckpointSchedule   = "0 0 * * * *"  // hourly
)

// RegisterJobs creates the background jobs and adds them to the scheduler
func RegisterJobs(sched *scheduler.Scheduler, container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	jobs := &JobInstances{
		CacheWarm:       scheduler.NewCacheWarmJob(container.Cache, cacheWarmTimeout, log),
		SnapshotCleanup: snapshots.NewCleanupJob(container.SnapshotRepo, cfg.SnapshotRetention, log),
		WALCheckpoints:  scheduler.NewCheckWALCheckpointsJob(log, container.StateDB),
	}

	if err := sched.AddJob(cfg.CacheWarmSchedule, jobs.CacheWarm); err != nil {
		return nil, fmt.Errorf("failed to register %s job: %w", jobs.CacheWarm.Name(), err)
	}
	if err := sched.AddJob(snapshotCleanupSchedule, jobs.SnapshotCleanup); err != nil {
		return nil, fmt.Errorf("failed to register %s job: %w", jobs.SnapshotCleanup.Name(), err)
	}
	if err := sched.AddJob(walCheckpointSchedule, jobs.WALCheckpoints); err != nil {
		return nil, fmt.Errorf("failed to register %s job: %w", jobs.WALCheckpoints.Name(), err)
	}

	return jobs, nil
}

// All returns every job, for manual triggering
func (j *JobInstances) All() []scheduler.Job {
	return []scheduler.Job{j.CacheWarm, j.SnapshotCleanup, j.WALCheckpoints}
}
