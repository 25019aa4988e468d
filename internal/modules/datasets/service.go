package datasets

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/smartwealth/internal/domain"
	"github.com/aristath/smartwealth/internal/modules/cachestore"
	"github.com/aristath/smartwealth/internal/modules/schema"
)

// Listing is a set of rows together with the snapshot time they came from
type Listing struct {
	Count    int          `json:"count"`
	Items    []domain.Row `json:"items"`
	CachedAt *time.Time   `json:"cached_at"`
}

// Window is an earnings listing bounded by ISO dates
type Window struct {
	From string `json:"from"`
	To   string `json:"to"`
	Listing
}

// Service serves catalog, snapshot and derived views over cached datasets
type Service struct {
	store    *cachestore.Store
	registry *schema.Registry
	log      zerolog.Logger

	mu        sync.Mutex
	index     NameIndex
	indexFrom *cachestore.Snapshot
}

// NewService creates a new dataset service
func NewService(store *cachestore.Store, registry *schema.Registry, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		registry: registry,
		log:      log.With().Str("service", "datasets").Logger(),
	}
}

// Catalog describes every registered schema
func (s *Service) Catalog() []schema.Descriptor {
	all := s.registry.All()
	out := make([]schema.Descriptor, len(all))
	for i, sc := range all {
		out[i] = sc.Describe()
	}
	return out
}

// Describe returns one schema's descriptor
func (s *Service) Describe(dataset string) (schema.Descriptor, bool) {
	sc, ok := s.registry.Get(dataset)
	if !ok {
		return schema.Descriptor{}, false
	}
	return sc.Describe(), true
}

// Snapshot loads a dataset, forcing a reload when refresh is set
func (s *Service) Snapshot(ctx context.Context, dataset string, refresh bool) (*cachestore.Snapshot, error) {
	return s.store.Load(ctx, dataset, refresh)
}

// Rows lists every row of a dataset's snapshot
func (s *Service) Rows(ctx context.Context, dataset string, refresh bool) (*Listing, error) {
	snap, err := s.store.Load(ctx, dataset, refresh)
	if err != nil {
		return nil, err
	}
	return listing(snap.Rows(), snap), nil
}

// Status reports the cache state of every dataset
func (s *Service) Status() []cachestore.Status {
	return s.store.Status()
}

// EarningsWindow lists earnings events between from and to inclusive
func (s *Service) EarningsWindow(ctx context.Context, from, to time.Time, refresh bool) (*Window, error) {
	snap, err := s.store.Load(ctx, domain.DatasetEarnings, refresh)
	if err != nil {
		return nil, err
	}
	w := &Window{From: from.Format(domain.DateLayout), To: to.Format(domain.DateLayout)}
	w.Listing = *listing(EarningsWindow(snap.Rows(), w.From, w.To), snap)
	return w, nil
}

// VendorCompanies returns the deduplicated vendor network directory
func (s *Service) VendorCompanies(ctx context.Context) ([]Company, error) {
	snap, err := s.store.Load(ctx, domain.DatasetVendors, false)
	if err != nil {
		return nil, err
	}
	return VendorCompanies(snap.Rows()), nil
}

// RankedScores lists scores ordered by overall score, optionally within a sector
func (s *Service) RankedScores(ctx context.Context, sector string, refresh bool) (*Listing, error) {
	snap, err := s.store.Load(ctx, domain.DatasetScores, refresh)
	if err != nil {
		return nil, err
	}
	return listing(RankedScores(snap.Rows(), sector), snap), nil
}

// SearchProfiles finds profiles by symbol, name or sector substring
func (s *Service) SearchProfiles(ctx context.Context, q string, refresh bool) (*Listing, error) {
	snap, err := s.store.Load(ctx, domain.DatasetProfiles, refresh)
	if err != nil {
		return nil, err
	}
	return listing(SearchProfiles(snap.Rows(), q), snap), nil
}

// ResolveProfile maps a free-text company name to candidate tickers.
// The name index is rebuilt whenever the profiles snapshot changes.
func (s *Service) ResolveProfile(ctx context.Context, name string) ([]string, error) {
	snap, err := s.store.Load(ctx, domain.DatasetProfiles, false)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.indexFrom != snap {
		s.index = BuildNameIndex(snap.Rows())
		s.indexFrom = snap
		s.log.Debug().Int("tokens", len(s.index)).Msg("Rebuilt profile name index")
	}
	index := s.index
	s.mu.Unlock()

	return index.Resolve(name), nil
}

func listing(rows []domain.Row, snap *cachestore.Snapshot) *Listing {
	l := &Listing{Count: len(rows), Items: rows}
	if at := snap.FetchedAt(); !at.IsZero() {
		l.CachedAt = &at
	}
	return l
}
