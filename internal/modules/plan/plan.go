// Package plan compiles loosely-typed intents into validated, schema-bound query plans.
package plan

import (
	"encoding/json"

	"github.com/aristath/smartwealth/internal/modules/schema"
)

// Intent is the kind of question a plan answers
type Intent string

const (
	IntentLookup   Intent = "lookup"
	IntentCompare  Intent = "compare"
	IntentList     Intent = "list"
	IntentChitchat Intent = "chitchat"
)

// Operator is a filter comparison operator
type Operator string

const (
	OpEq         Operator = "eq"
	OpNeq        Operator = "neq"
	OpGt         Operator = "gt"
	OpLt         Operator = "lt"
	OpGte        Operator = "gte"
	OpLte        Operator = "lte"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "starts_with"
)

// IsPattern reports whether the operator matches by substring
func (o Operator) IsPattern() bool {
	return o == OpContains || o == OpStartsWith
}

// Plan bounds
const (
	MaxTickers   = 8
	MaxMetrics   = 6
	MaxFilters   = 4
	MinLimit     = 1
	MaxLimit     = 10
	DefaultLimit = 5
	maxTickerLen = 6
)

// Filter is a validated predicate.
// Value is a float64 for numeric columns and a string otherwise; date
// values are ISO dates.
type Filter struct {
	Column   string      `json:"column"`
	Operator Operator    `json:"operator"`
	Value    interface{} `json:"value"`
}

// Plan is a validated query description bound to exactly one schema.
// Plans are only produced by Compiler.Compile and are immutable.
type Plan struct {
	schema     *schema.Schema
	intent     Intent
	tickers    []string
	metrics    []string
	include    []string
	filters    []Filter
	sort       *schema.Sort
	limit      int
	needsChart bool
	needsTable bool
	drops      []Drop
}

func (p *Plan) Schema() *schema.Schema { return p.schema }
func (p *Plan) Dataset() string        { return p.schema.Key() }
func (p *Plan) Intent() Intent         { return p.intent }
func (p *Plan) Limit() int             { return p.limit }
func (p *Plan) NeedsChart() bool       { return p.needsChart }
func (p *Plan) NeedsTable() bool       { return p.needsTable }
func (p *Plan) Tickers() []string      { return append([]string{}, p.tickers...) }
func (p *Plan) Metrics() []string      { return append([]string{}, p.metrics...) }
func (p *Plan) Include() []string      { return append([]string{}, p.include...) }
func (p *Plan) Filters() []Filter      { return append([]Filter{}, p.filters...) }
func (p *Plan) Drops() []Drop          { return append([]Drop{}, p.drops...) }

// Sort returns the explicitly requested ordering, if any
func (p *Plan) Sort() (schema.Sort, bool) {
	if p.sort == nil {
		return schema.Sort{}, false
	}
	return *p.sort, true
}

// FinalColumns returns base columns, then include, then metrics, deduplicated
// and truncated to the schema's column budget.
func (p *Plan) FinalColumns() []string {
	budget := p.schema.MaxColumns()
	cols := make([]string, 0, budget)
	seen := make(map[string]struct{}, budget)
	add := func(list []string) {
		for _, col := range list {
			if len(cols) >= budget {
				return
			}
			if _, ok := seen[col]; ok || !p.schema.Allows(col) {
				continue
			}
			seen[col] = struct{}{}
			cols = append(cols, col)
		}
	}
	add(p.schema.BaseColumns())
	add(p.include)
	add(p.metrics)
	return cols
}

// NumericMetrics returns the metrics classified numeric, currency or percent
func (p *Plan) NumericMetrics() []string {
	var out []string
	for _, m := range p.metrics {
		if p.schema.IsNumeric(m) {
			out = append(out, m)
		}
	}
	return out
}

// EffectiveSort resolves ordering with the precedence explicit sort, then
// the first numeric metric descending for comparisons, then the dataset
// default. Both execution modes use this.
func (p *Plan) EffectiveSort() (schema.Sort, bool) {
	if p.sort != nil {
		return *p.sort, true
	}
	if p.intent == IntentCompare {
		if numeric := p.NumericMetrics(); len(numeric) > 0 {
			return schema.Sort{Column: numeric[0], Direction: schema.Desc}, true
		}
	}
	return p.schema.DefaultSort()
}

// ToIntent renders the plan back into raw intent form.
// Compiling the result yields an identical plan.
func (p *Plan) ToIntent() map[string]interface{} {
	out := map[string]interface{}{
		"dataset":     p.Dataset(),
		"intent":      string(p.intent),
		"tickers":     p.Tickers(),
		"metrics":     p.Metrics(),
		"include":     p.Include(),
		"limit":       p.limit,
		"needs_chart": p.needsChart,
		"needs_table": p.needsTable,
	}
	filters := make([]interface{}, 0, len(p.filters))
	for _, f := range p.filters {
		filters = append(filters, map[string]interface{}{
			"column":   f.Column,
			"operator": string(f.Operator),
			"value":    f.Value,
		})
	}
	out["filters"] = filters
	if p.sort != nil {
		out["sort"] = map[string]interface{}{
			"column":    p.sort.Column,
			"direction": string(p.sort.Direction),
		}
	}
	return out
}

type planJSON struct {
	Dataset      string       `json:"dataset"`
	Intent       Intent       `json:"intent"`
	Tickers      []string     `json:"tickers"`
	Metrics      []string     `json:"metrics"`
	Include      []string     `json:"include"`
	Filters      []Filter     `json:"filters"`
	Sort         *schema.Sort `json:"sort,omitempty"`
	Limit        int          `json:"limit"`
	NeedsChart   bool         `json:"needs_chart"`
	NeedsTable   bool         `json:"needs_table"`
	FinalColumns []string     `json:"final_columns"`
}

// MarshalJSON serialises the sanitized plan
func (p *Plan) MarshalJSON() ([]byte, error) {
	return json.Marshal(planJSON{
		Dataset:      p.Dataset(),
		Intent:       p.intent,
		Tickers:      p.Tickers(),
		Metrics:      p.Metrics(),
		Include:      p.Include(),
		Filters:      p.Filters(),
		Sort:         p.sort,
		Limit:        p.limit,
		NeedsChart:   p.needsChart,
		NeedsTable:   p.needsTable,
		FinalColumns: p.FinalColumns(),
	})
}
