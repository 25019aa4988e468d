package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/smartwealth/internal/database"
)

// walFrameWarnThreshold is the WAL size, in frames, above which a truncating checkpoint is forced
const walFrameWarnThreshold = 1000

// CheckWALCheckpointsJob keeps the WAL of the local databases from growing unbounded.
// Snapshot writes are bursty, so the WAL is inspected passively and truncated
// only when it has grown past walFrameWarnThreshold.
type CheckWALCheckpointsJob struct {
	log       zerolog.Logger
	databases []*database.DB
	timeout   time.Duration
}

// NewCheckWALCheckpointsJob creates a new CheckWALCheckpointsJob. Nil databases are ignored.
func NewCheckWALCheckpointsJob(log zerolog.Logger, databases ...*database.DB) *CheckWALCheckpointsJob {
	dbs := make([]*database.DB, 0, len(databases))
	for _, db := range databases {
		if db != nil {
			dbs = append(dbs, db)
		}
	}
	return &CheckWALCheckpointsJob{
		log:       log.With().Str("job", "check_wal_checkpoints").Logger(),
		databases: dbs,
		timeout:   30 * time.Second,
	}
}

// Name returns the job name
func (j *CheckWALCheckpointsJob) Name() string {
	return "check_wal_checkpoints"
}

// Run checks each database and truncates oversized WAL files
func (j *CheckWALCheckpointsJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	checkedCount := 0
	for _, db := range j.databases {
		if err := db.QuickCheck(ctx); err != nil {
			return fmt.Errorf("database %s unreachable: %w", db.Name(), err)
		}

		// PRAGMA wal_checkpoint returns: busy, log, checkpointed
		var busy, frames, checkpointed int
		err := db.QueryRowContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed)
		if err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to check WAL checkpoint")
			continue
		}

		if frames > walFrameWarnThreshold {
			j.log.Warn().
				Str("database", db.Name()).
				Int("wal_frames", frames).
				Int("checkpointed", checkpointed).
				Msg("WAL file is large, forcing checkpoint")
			if err := db.WALCheckpoint(ctx); err != nil {
				return err
			}
		} else {
			j.log.Debug().
				Str("database", db.Name()).
				Int("wal_frames", frames).
				Msg("WAL checkpoint status OK")
		}

		checkedCount++
	}

	j.log.Info().Int("checked", checkedCount).Msg("WAL checkpoint check completed")
	return nil
}
