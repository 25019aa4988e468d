package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/smartwealth/internal/modules/snapshots"
	testhelpers "github.com/aristath/smartwealth/internal/testing"
)

func TestCheckWALCheckpointsJob_Name(t *testing.T) {
	job := NewCheckWALCheckpointsJob(zerolog.Nop())
	assert.Equal(t, "check_wal_checkpoints", job.Name())
}

func TestCheckWALCheckpointsJob_Run_NoDatabases(t *testing.T) {
	job := NewCheckWALCheckpointsJob(zerolog.Nop(), nil)
	assert.NoError(t, job.Run())
}

func TestCheckWALCheckpointsJob_Run_StateDatabase(t *testing.T) {
	db := testhelpers.NewTestDB(t, "state")
	repo := snapshots.NewRepository(db)
	require.NoError(t, repo.SaveSnapshot(context.Background(), "vendors", testhelpers.VendorRows(), time.Now(), time.Hour))

	job := NewCheckWALCheckpointsJob(zerolog.Nop(), db)
	assert.NoError(t, job.Run())

	_, _, found, err := repo.LoadSnapshot(context.Background(), "vendors")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCheckWALCheckpointsJob_Run_ClosedDatabase(t *testing.T) {
	db := testhelpers.NewTestDB(t, "state")
	require.NoError(t, db.Close())

	job := NewCheckWALCheckpointsJob(zerolog.Nop(), db)
	assert.Error(t, job.Run())
}
