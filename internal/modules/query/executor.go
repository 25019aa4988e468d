package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/smartwealth/internal/domain"
	"github.com/aristath/smartwealth/internal/metrics"
	"github.com/aristath/smartwealth/internal/modules/cachestore"
	"github.com/aristath/smartwealth/internal/modules/plan"
)

// Warehouse runs parameterized statements and returns column names plus rows
type Warehouse interface {
	Query(ctx context.Context, query string, args ...interface{}) ([]string, []domain.Row, error)
}

// SnapshotSource provides cached dataset snapshots
type SnapshotSource interface {
	Load(ctx context.Context, dataset string, force bool) (*cachestore.Snapshot, error)
}

var (
	errNoWarehouse = errors.New("no warehouse configured")
	errNoCache     = errors.New("no cache store configured")
)

// Result is the outcome of executing a plan
type Result struct {
	Dataset   string               `json:"dataset"`
	Mode      domain.ExecutionMode `json:"mode"`
	Rows      []domain.Row         `json:"rows"`
	Statement *Statement           `json:"statement,omitempty"`
	FetchedAt time.Time            `json:"fetched_at"`
}

// Executor dispatches plans to SQL or cache execution by schema mode
type Executor struct {
	warehouse Warehouse
	dialect   Dialect
	cache     SnapshotSource
	metrics   *metrics.Metrics
	now       func() time.Time
	log       zerolog.Logger
}

// NewExecutor creates an executor. warehouse may be nil when every
// dataset runs in cache mode.
func NewExecutor(warehouse Warehouse, dialect Dialect, cache SnapshotSource, m *metrics.Metrics, log zerolog.Logger) *Executor {
	return &Executor{
		warehouse: warehouse,
		dialect:   dialect,
		cache:     cache,
		metrics:   m,
		now:       time.Now,
		log:       log.With().Str("component", "query_executor").Logger(),
	}
}

// Execute runs the plan in its schema's execution mode
func (e *Executor) Execute(ctx context.Context, p *plan.Plan) (*Result, error) {
	if p.Schema().Mode() == domain.ModeCache {
		return e.RunCache(ctx, p)
	}
	return e.RunSQL(ctx, p)
}

// RunSQL executes the plan as a parameterized statement against the warehouse
func (e *Executor) RunSQL(ctx context.Context, p *plan.Plan) (*Result, error) {
	start := e.now()
	stmt := Build(p, e.dialect)

	if e.warehouse == nil {
		err := domain.NewFetchError(p.Dataset(), domain.ModeSQL, errNoWarehouse)
		e.metrics.Query(p.Dataset(), string(domain.ModeSQL), 0, err)
		return nil, err
	}

	_, rows, err := e.warehouse.Query(ctx, stmt.SQL, stmt.Args...)
	took := time.Since(start)
	e.metrics.Query(p.Dataset(), string(domain.ModeSQL), took, err)
	if err != nil {
		e.log.Error().
			Err(err).
			Str("dataset", p.Dataset()).
			Str("sql", stmt.SQL).
			Msg("Warehouse query failed")
		return nil, domain.NewFetchError(p.Dataset(), domain.ModeSQL, fmt.Errorf("query warehouse: %w", err))
	}

	cols := p.FinalColumns()
	out := make([]domain.Row, len(rows))
	for i, row := range rows {
		out[i] = Normalize(p.Schema(), row.Project(cols))
	}

	e.log.Debug().
		Str("dataset", p.Dataset()).
		Int("rows", len(out)).
		Dur("took", took).
		Msg("Executed SQL plan")

	return &Result{
		Dataset:   p.Dataset(),
		Mode:      domain.ModeSQL,
		Rows:      out,
		Statement: &stmt,
		FetchedAt: e.now(),
	}, nil
}

// RunCache evaluates the plan over the dataset's cached snapshot
func (e *Executor) RunCache(ctx context.Context, p *plan.Plan) (*Result, error) {
	start := time.Now()
	if e.cache == nil {
		err := domain.NewFetchError(p.Dataset(), domain.ModeCache, errNoCache)
		e.metrics.Query(p.Dataset(), string(domain.ModeCache), 0, err)
		return nil, err
	}

	snap, err := e.cache.Load(ctx, p.Dataset(), false)
	if err != nil {
		e.metrics.Query(p.Dataset(), string(domain.ModeCache), time.Since(start), err)
		return nil, domain.NewFetchError(p.Dataset(), domain.ModeCache, err)
	}

	rows := Evaluate(p, snap.Rows(), e.dialect)
	took := time.Since(start)
	e.metrics.Query(p.Dataset(), string(domain.ModeCache), took, nil)

	e.log.Debug().
		Str("dataset", p.Dataset()).
		Int("snapshot_rows", snap.Len()).
		Int("rows", len(rows)).
		Dur("took", took).
		Msg("Executed cache plan")

	return &Result{
		Dataset:   p.Dataset(),
		Mode:      domain.ModeCache,
		Rows:      rows,
		FetchedAt: snap.FetchedAt(),
	}, nil
}
