package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/smartwealth/internal/modules/cachestore"
)

// CacheWarmer is the cache surface the warm job needs
type CacheWarmer interface {
	Datasets() []string
	Load(ctx context.Context, dataset string, force bool) (*cachestore.Snapshot, error)
}

// CacheWarmJob reloads stale dataset snapshots ahead of user requests
type CacheWarmJob struct {
	cache   CacheWarmer
	timeout time.Duration
	log     zerolog.Logger
}

// NewCacheWarmJob creates a cache warm job. Each run is bounded by timeout.
func NewCacheWarmJob(cache CacheWarmer, timeout time.Duration, log zerolog.Logger) *CacheWarmJob {
	return &CacheWarmJob{
		cache:   cache,
		timeout: timeout,
		log:     log.With().Str("job", "cache_warm").Logger(),
	}
}

// Run loads every dataset; fresh snapshots are left alone. A failing
// dataset does not stop the others.
func (j *CacheWarmJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	var errs []error
	warmed := 0
	for _, dataset := range j.cache.Datasets() {
		snap, err := j.cache.Load(ctx, dataset, false)
		if err != nil {
			j.log.Warn().Err(err).Str("dataset", dataset).Msg("Failed to warm dataset")
			errs = append(errs, fmt.Errorf("%s: %w", dataset, err))
			continue
		}
		warmed++
		j.log.Debug().
			Str("dataset", dataset).
			Int("rows", snap.Len()).
			Time("fetched_at", snap.FetchedAt()).
			Msg("Dataset warm")
	}

	j.log.Info().Int("warmed", warmed).Int("failed", len(errs)).Msg("Cache warm completed")
	return errors.Join(errs...)
}

// Name returns the job name for scheduling and logging
func (j *CacheWarmJob) Name() string {
	return "cache_warm"
}
