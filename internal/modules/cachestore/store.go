// Package cachestore owns the per-dataset TTL snapshots behind cache-mode execution.
package cachestore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/aristath/smartwealth/internal/domain"
	"github.com/aristath/smartwealth/internal/metrics"
)

// Loader fetches every row of a dataset from its source
type Loader func(ctx context.Context) ([]domain.Row, error)

// Persister keeps the last good snapshot of each dataset across restarts
type Persister interface {
	SaveSnapshot(ctx context.Context, dataset string, rows []domain.Row, fetchedAt time.Time, ttl time.Duration) error
	LoadSnapshot(ctx context.Context, dataset string) (rows []domain.Row, fetchedAt time.Time, found bool, err error)
}

type entry struct {
	loader  Loader
	ttl     time.Duration
	current atomic.Pointer[Snapshot]
}

// Store holds one snapshot per registered dataset.
// Snapshots are swapped atomically; concurrent reloads of a dataset are
// coalesced into a single loader call.
type Store struct {
	mu        sync.RWMutex
	entries   map[string]*entry
	group     singleflight.Group
	persister Persister
	metrics   *metrics.Metrics
	now       func() time.Time
	log       zerolog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithPersister saves every successful reload and enables Prime
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store
func New(log zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
		log:     log.With().Str("component", "cachestore").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register binds a loader and TTL to a dataset key
func (s *Store) Register(dataset string, loader Loader, ttl time.Duration) error {
	if loader == nil {
		return &domain.ConfigError{Field: dataset + ".loader", Reason: "must not be nil"}
	}
	if ttl <= 0 {
		return &domain.ConfigError{Field: dataset + ".ttl", Reason: fmt.Sprintf("must be positive, got %s", ttl)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[dataset]; exists {
		return &domain.ConfigError{Field: dataset, Reason: "dataset already registered"}
	}
	s.entries[dataset] = &entry{loader: loader, ttl: ttl}
	return nil
}

func (s *Store) entry(dataset string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[dataset]
	return e, ok
}

// Datasets returns the registered keys, sorted
func (s *Store) Datasets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load returns the dataset's snapshot, reloading it when stale or forced.
// A failed reload returns a FetchError and keeps the previous snapshot.
func (s *Store) Load(ctx context.Context, dataset string, force bool) (*Snapshot, error) {
	e, ok := s.entry(dataset)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownDataset, dataset)
	}

	if !force {
		if snap := e.current.Load(); !snap.IsStale(s.now()) {
			s.metrics.CacheHit(dataset)
			return snap, nil
		}
	}

	// The shared reload outlives any single caller's cancellation.
	ch := s.group.DoChan(dataset, func() (interface{}, error) {
		return s.reload(context.WithoutCancel(ctx), dataset, e)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	case <-ctx.Done():
		return nil, domain.NewFetchError(dataset, domain.ModeCache, ctx.Err())
	}
}

func (s *Store) reload(ctx context.Context, dataset string, e *entry) (*Snapshot, error) {
	start := s.now()
	rows, err := e.loader(ctx)
	took := s.now().Sub(start)
	if err != nil {
		s.metrics.CacheReload(dataset, took, 0, err)
		s.log.Warn().
			Err(err).
			Str("dataset", dataset).
			Bool("has_previous", e.current.Load() != nil).
			Msg("Dataset reload failed, keeping previous snapshot")
		return nil, domain.NewFetchError(dataset, domain.ModeCache, err)
	}

	snap := &Snapshot{
		dataset:   dataset,
		rows:      rows,
		fetchedAt: s.now(),
		ttl:       e.ttl,
	}
	e.current.Store(snap)
	s.metrics.CacheReload(dataset, took, len(rows), nil)

	s.log.Info().
		Str("dataset", dataset).
		Int("rows", len(rows)).
		Dur("took", took).
		Msg("Dataset reloaded")

	if s.persister != nil {
		if err := s.persister.SaveSnapshot(ctx, dataset, rows, snap.fetchedAt, e.ttl); err != nil {
			s.log.Warn().Err(err).Str("dataset", dataset).Msg("Failed to persist snapshot")
		}
	}
	return snap, nil
}

// Snapshot returns the current snapshot without triggering a reload.
// Stale snapshots are returned as-is.
func (s *Store) Snapshot(dataset string) (*Snapshot, bool) {
	e, ok := s.entry(dataset)
	if !ok {
		return nil, false
	}
	snap := e.current.Load()
	return snap, snap != nil
}

// Prime seeds empty entries from persisted snapshots, keeping their
// original fetch time. Stale data is better than no data after a restart.
func (s *Store) Prime(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	for _, dataset := range s.Datasets() {
		e, _ := s.entry(dataset)
		if e.current.Load() != nil {
			continue
		}
		rows, fetchedAt, found, err := s.persister.LoadSnapshot(ctx, dataset)
		if err != nil {
			return fmt.Errorf("failed to load persisted snapshot for %s: %w", dataset, err)
		}
		if !found {
			continue
		}
		snap := &Snapshot{dataset: dataset, rows: rows, fetchedAt: fetchedAt, ttl: e.ttl}
		// Lose to any reload that finished in the meantime.
		if e.current.CompareAndSwap(nil, snap) {
			s.metrics.SnapshotRows(dataset, len(rows))
			s.log.Info().
				Str("dataset", dataset).
				Int("rows", len(rows)).
				Time("fetched_at", fetchedAt).
				Bool("stale", snap.IsStale(s.now())).
				Msg("Primed dataset from persisted snapshot")
		}
	}
	return nil
}

// Status describes a dataset's cache entry
type Status struct {
	Dataset    string     `json:"dataset"`
	Loaded     bool       `json:"loaded"`
	Rows       int        `json:"rows"`
	FetchedAt  *time.Time `json:"fetched_at,omitempty"`
	AgeSeconds float64    `json:"age_seconds"`
	TTLSeconds float64    `json:"ttl_seconds"`
	Stale      bool       `json:"stale"`
}

// Status reports every registered dataset, sorted by key
func (s *Store) Status() []Status {
	now := s.now()
	var out []Status
	for _, dataset := range s.Datasets() {
		e, _ := s.entry(dataset)
		st := Status{Dataset: dataset, TTLSeconds: e.ttl.Seconds(), Stale: true}
		if snap := e.current.Load(); snap != nil {
			fetchedAt := snap.FetchedAt()
			st.Loaded = true
			st.Rows = snap.Len()
			st.FetchedAt = &fetchedAt
			st.AgeSeconds = snap.Age(now).Seconds()
			st.Stale = snap.IsStale(now)
		}
		out = append(out, st)
	}
	return out
}
