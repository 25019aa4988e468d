// Package answer turns raw intents into executed, display-ready responses.
package answer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/smartwealth/internal/domain"
	"github.com/aristath/smartwealth/internal/metrics"
	"github.com/aristath/smartwealth/internal/modules/plan"
	"github.com/aristath/smartwealth/internal/modules/projection"
	"github.com/aristath/smartwealth/internal/modules/query"
)

const maxFollowups = 3

// PlanExecutor runs compiled plans
type PlanExecutor interface {
	Execute(ctx context.Context, p *plan.Plan) (*query.Result, error)
}

// Enhancer produces a narrative for a plan while its rows are being fetched
type Enhancer interface {
	Enhance(ctx context.Context, p *plan.Plan) (string, error)
}

// Response is the full answer to one intent
type Response struct {
	ID        string               `json:"id"`
	Plan      *plan.Plan           `json:"plan"`
	Drops     []plan.Drop          `json:"drops"`
	Rows      []domain.Row         `json:"rows"`
	Table     *projection.Table    `json:"table,omitempty"`
	Chart     *projection.Chart    `json:"chart,omitempty"`
	SQL       string               `json:"sql,omitempty"`
	Mode      domain.ExecutionMode `json:"mode,omitempty"`
	FetchedAt *time.Time           `json:"fetched_at,omitempty"`
	Summary   string               `json:"summary,omitempty"`
	Followups []string             `json:"followups"`
	ElapsedMs int64                `json:"elapsed_ms"`
}

// Service compiles, executes and projects intents
type Service struct {
	compiler *plan.Compiler
	executor PlanExecutor
	enhancer Enhancer
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewService creates an answer service. enhancer may be nil.
func NewService(compiler *plan.Compiler, executor PlanExecutor, enhancer Enhancer, m *metrics.Metrics, log zerolog.Logger) *Service {
	return &Service{
		compiler: compiler,
		executor: executor,
		enhancer: enhancer,
		metrics:  m,
		log:      log.With().Str("service", "answer").Logger(),
	}
}

// Answer compiles raw into a plan, fetches its rows and builds the table
// and chart payloads. Fetch failures are returned as is; there is no
// partial response.
func (s *Service) Answer(ctx context.Context, raw plan.RawIntent) (*Response, error) {
	start := time.Now()

	p := s.compiler.Compile(raw)
	drops := p.Drops()
	for _, d := range drops {
		s.metrics.ValidationDrop(string(d.Kind))
		s.log.Debug().Str("dataset", p.Dataset()).Str("drop", d.String()).Msg("Intent input dropped")
	}

	var (
		result  *query.Result
		summary string
	)

	g, gctx := errgroup.WithContext(ctx)
	if p.Intent() != plan.IntentChitchat {
		g.Go(func() error {
			res, err := s.executor.Execute(gctx, p)
			if err != nil {
				return err
			}
			result = res
			return nil
		})
	}
	if s.enhancer != nil {
		g.Go(func() error {
			text, err := s.enhancer.Enhance(gctx, p)
			if err != nil {
				s.log.Warn().Err(err).Str("dataset", p.Dataset()).Msg("Enhancer failed, answering without summary")
				return nil
			}
			summary = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("answer %s: %w", p.Dataset(), err)
	}

	resp := &Response{
		ID:        uuid.New().String(),
		Plan:      p,
		Drops:     drops,
		Rows:      []domain.Row{},
		Summary:   summary,
		Followups: Followups(p),
	}
	if result != nil {
		resp.Rows = result.Rows
		resp.Mode = result.Mode
		if result.Statement != nil {
			resp.SQL = result.Statement.Display()
		}
		if !result.FetchedAt.IsZero() {
			at := result.FetchedAt
			resp.FetchedAt = &at
		}
		resp.Table = projection.BuildTable(p, result.Rows)
		resp.Chart = projection.BuildChart(p, result.Rows)
	}
	resp.ElapsedMs = time.Since(start).Milliseconds()

	s.log.Info().
		Str("id", resp.ID).
		Str("dataset", p.Dataset()).
		Str("intent", string(p.Intent())).
		Int("rows", len(resp.Rows)).
		Int("drops", len(drops)).
		Int64("elapsed_ms", resp.ElapsedMs).
		Msg("Answered intent")

	return resp, nil
}

// Followups suggests next questions for a plan, at most three
func Followups(p *plan.Plan) []string {
	var out []string
	tickers := p.Tickers()

	switch p.Dataset() {
	case domain.DatasetProfiles:
		if len(tickers) > 0 {
			out = append(out, fmt.Sprintf("Show me more details about %s", tickers[0]))
		}
		out = append(out, "Show me top companies by market cap", "Compare these companies")
	case domain.DatasetScores:
		out = append(out, "Show me the top 10 companies by score", "What are the lowest scoring companies?")
	case domain.DatasetEarnings:
		out = append(out, "Show me upcoming earnings this week", "What companies are reporting today?")
	case domain.DatasetVendors:
		out = append(out, "Show me the largest vendor relationships", "What companies have the most suppliers?")
	}

	for i, ticker := range tickers {
		if i == 2 {
			break
		}
		out = append(out, fmt.Sprintf("Show me %s fundamentals", ticker))
	}

	if len(out) > maxFollowups {
		out = out[:maxFollowups]
	}
	if out == nil {
		out = []string{}
	}
	return out
}
