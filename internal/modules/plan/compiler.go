package plan

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/aristath/smartwealth/internal/domain"
	"github.com/aristath/smartwealth/internal/modules/schema"
)

// RawIntent is an untrusted intent object. Any field may be missing,
// mistyped or invalid.
type RawIntent map[string]interface{}

var nonAlphanumeric = regexp.MustCompile(`[^A-Z0-9]`)

// Words that look like tickers but come from the surrounding question
var symbolStopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		THE AND OR BUT IN ON AT TO FOR OF WITH BY FROM UP ABOUT INTO THROUGH
		DURING BEFORE AFTER ABOVE BELOW BETWEEN AMONG UNDER OVER AGAINST
		WITHOUT WITHIN SHOW ME LIST GET FIND SEARCH LOOK SEE VIEW DISPLAY
		COMPARE ANALYZE ANALYSIS DATA INFORMATION DETAILS RESULTS COMPANIES
		STOCKS SHARES EQUITY MARKET FINANCIAL REVENUE PROFIT EARNINGS GROWTH
		VALUE PRICE VOLUME RETURN YIELD`) {
		symbolStopwords[w] = struct{}{}
	}
}

var operatorAliases = map[string]Operator{
	"eq": OpEq, "=": OpEq, "==": OpEq,
	"neq": OpNeq, "!=": OpNeq, "<>": OpNeq,
	"gt": OpGt, ">": OpGt,
	"lt": OpLt, "<": OpLt,
	"gte": OpGte, ">=": OpGte,
	"lte": OpLte, "<=": OpLte,
	"contains":    OpContains,
	"starts_with": OpStartsWith,
}

// Compiler turns raw intents into plans. It holds no mutable state and is
// safe for concurrent use.
type Compiler struct {
	registry *schema.Registry
}

// NewCompiler creates a compiler bound to a schema registry
func NewCompiler(registry *schema.Registry) *Compiler {
	return &Compiler{registry: registry}
}

// Compile sanitizes a raw intent into a plan. It never fails: invalid input
// is omitted or replaced by defaults and recorded in Plan.Drops.
func (c *Compiler) Compile(raw RawIntent) *Plan {
	b := &builder{}

	s := c.resolveDataset(raw, b)
	p := &Plan{schema: s}

	p.intent = b.intent(raw["intent"])
	p.tickers = b.tickers(raw["tickers"])
	downgraded := false
	if p.intent == IntentCompare && len(p.tickers) < 2 {
		b.drop(DropIntent, string(IntentCompare), "compare needs at least two tickers")
		p.intent = IntentLookup
		downgraded = true
	}

	metricCap := MaxMetrics
	if s.MaxColumns() < metricCap {
		metricCap = s.MaxColumns()
	}
	p.metrics = b.columns(s, raw["metrics"], metricCap, DropMetric)
	p.include = b.columns(s, raw["include"], s.MaxColumns(), DropInclude)
	if len(p.metrics) == 0 && p.intent != IntentChitchat {
		p.metrics = truncate(s.DefaultMetrics(), metricCap)
	}

	p.limit = b.limit(raw["limit"])
	p.filters = b.filters(s, raw["filters"])
	p.sort = b.sort(s, raw["sort"])

	p.needsTable = b.flag(raw, "needs_table", true)
	p.needsChart = b.flag(raw, "needs_chart", false)
	if downgraded {
		p.needsChart = false
	}

	p.drops = b.drops
	return p
}

func (c *Compiler) resolveDataset(raw RawIntent, b *builder) *schema.Schema {
	for _, key := range []string{"dataset", "data_source", "table"} {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		name, err := cast.ToStringE(v)
		if err != nil || strings.TrimSpace(name) == "" {
			continue
		}
		if s, ok := c.registry.Get(name); ok {
			return s
		}
		b.drop(DropDataset, name, fmt.Sprintf("unknown dataset, using %s", domain.DefaultDataset))
		break
	}
	return c.registry.Lookup(domain.DefaultDataset)
}

type builder struct {
	drops []Drop
}

func (b *builder) drop(kind DropKind, value, reason string) {
	b.drops = append(b.drops, Drop{Kind: kind, Value: value, Reason: reason})
}

func (b *builder) intent(v interface{}) Intent {
	if v == nil {
		return IntentLookup
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		b.drop(DropIntent, fmt.Sprint(v), "not a string")
		return IntentLookup
	}
	switch name := Intent(strings.ToLower(strings.TrimSpace(s))); name {
	case IntentLookup, IntentCompare, IntentList, IntentChitchat:
		return name
	case "unknown":
		return IntentChitchat
	case "":
		return IntentLookup
	default:
		b.drop(DropIntent, s, "unknown intent, using lookup")
		return IntentLookup
	}
}

// stringList accepts a single string or a list of scalars
func (b *builder) stringList(v interface{}, kind DropKind) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return []string{t}
	case []string:
		return t
	}
	items, err := cast.ToSliceE(v)
	if err != nil {
		b.drop(kind, fmt.Sprint(v), "not a list")
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		s, err := cast.ToStringE(item)
		if err != nil {
			b.drop(kind, fmt.Sprint(item), "not a scalar")
			continue
		}
		out = append(out, s)
	}
	return out
}

func (b *builder) tickers(v interface{}) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, raw := range b.stringList(v, DropTicker) {
		ticker := nonAlphanumeric.ReplaceAllString(strings.ToUpper(raw), "")
		switch {
		case ticker == "":
			b.drop(DropTicker, raw, "no alphanumeric characters")
			continue
		case len(ticker) > maxTickerLen:
			b.drop(DropTicker, raw, "too long")
			continue
		}
		if _, stop := symbolStopwords[ticker]; stop {
			b.drop(DropTicker, raw, "stopword")
			continue
		}
		if _, dup := seen[ticker]; dup {
			continue
		}
		if len(out) >= MaxTickers {
			b.drop(DropTicker, raw, "ticker cap reached")
			continue
		}
		seen[ticker] = struct{}{}
		out = append(out, ticker)
	}
	return out
}

func (b *builder) columns(s *schema.Schema, v interface{}, limit int, kind DropKind) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, raw := range b.stringList(v, kind) {
		col, ok := s.ResolveColumn(raw)
		if !ok {
			if strings.TrimSpace(raw) != "" {
				b.drop(kind, raw, "unknown column")
			}
			continue
		}
		if _, dup := seen[col]; dup {
			continue
		}
		if len(out) >= limit {
			b.drop(kind, raw, "column cap reached")
			continue
		}
		seen[col] = struct{}{}
		out = append(out, col)
	}
	return out
}

func (b *builder) limit(v interface{}) int {
	if v == nil {
		return DefaultLimit
	}
	if _, isBool := v.(bool); isBool {
		b.drop(DropLimit, fmt.Sprint(v), "not a number")
		return DefaultLimit
	}
	f, ok := domain.Float(v)
	if !ok {
		b.drop(DropLimit, fmt.Sprint(v), "not a number")
		return DefaultLimit
	}
	n := math.Trunc(f)
	switch {
	case n < MinLimit:
		return MinLimit
	case n > MaxLimit:
		return MaxLimit
	}
	return int(n)
}

func (b *builder) filters(s *schema.Schema, v interface{}) []Filter {
	var rawFilters []interface{}
	switch t := v.(type) {
	case nil:
		return []Filter{}
	case map[string]interface{}:
		rawFilters = []interface{}{t}
	default:
		items, err := cast.ToSliceE(v)
		if err != nil {
			b.drop(DropFilter, fmt.Sprint(v), "not a list")
			return []Filter{}
		}
		rawFilters = items
	}

	out := []Filter{}
	for _, item := range rawFilters {
		m, err := cast.ToStringMapE(item)
		if err != nil {
			b.drop(DropFilter, fmt.Sprint(item), "not an object")
			continue
		}
		f, ok := b.filter(s, m)
		if !ok {
			continue
		}
		if len(out) >= MaxFilters {
			b.drop(DropFilter, f.Column, "filter cap reached")
			continue
		}
		out = append(out, f)
	}
	return out
}

func (b *builder) filter(s *schema.Schema, m map[string]interface{}) (Filter, bool) {
	rawCol, _ := cast.ToStringE(m["column"])
	col, ok := s.ResolveColumn(rawCol)
	if !ok {
		b.drop(DropFilter, rawCol, "unknown column")
		return Filter{}, false
	}

	op := OpEq
	if rawOp, err := cast.ToStringE(m["operator"]); err == nil {
		if known, ok := operatorAliases[strings.ToLower(strings.TrimSpace(rawOp))]; ok {
			op = known
		}
	}
	if op.IsPattern() && !s.IsText(col) {
		b.drop(DropFilter, col, fmt.Sprintf("%s requires a text column", op))
		return Filter{}, false
	}

	value, ok := CoerceValue(s, col, m["value"])
	if !ok {
		b.drop(DropFilter, col, fmt.Sprintf("value %v does not fit a %s column", m["value"], s.Kind(col)))
		return Filter{}, false
	}
	return Filter{Column: col, Operator: op, Value: value}, true
}

// CoerceValue converts a filter value for col: numeric kinds need a finite
// float, dates need a parseable date rendered as YYYY-MM-DD, and anything
// else is stringified. Both execution modes compare against this value.
func CoerceValue(s *schema.Schema, col string, v interface{}) (interface{}, bool) {
	if v == nil {
		return nil, false
	}
	switch {
	case s.IsNumeric(col):
		if _, isBool := v.(bool); isBool {
			return nil, false
		}
		f, ok := domain.Float(v)
		if !ok {
			return nil, false
		}
		return f, true
	case s.IsDate(col):
		return coerceDate(v)
	default:
		str, err := cast.ToStringE(v)
		if err != nil {
			return nil, false
		}
		return str, true
	}
}

func coerceDate(v interface{}) (interface{}, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.Format(domain.DateLayout), true
	case string:
		trimmed := strings.TrimSpace(t)
		if trimmed == "" {
			return nil, false
		}
		parsed, err := cast.ToTimeE(trimmed)
		if err != nil {
			return nil, false
		}
		return parsed.Format(domain.DateLayout), true
	default:
		return nil, false
	}
}

func (b *builder) sort(s *schema.Schema, v interface{}) *schema.Sort {
	if v == nil {
		return nil
	}
	var rawCol, rawDir string
	switch t := v.(type) {
	case string:
		rawCol = t
	default:
		m, err := cast.ToStringMapE(v)
		if err != nil {
			b.drop(DropSort, fmt.Sprint(v), "not an object")
			return nil
		}
		rawCol, _ = cast.ToStringE(m["column"])
		rawDir, _ = cast.ToStringE(m["direction"])
	}
	col, ok := s.ResolveColumn(rawCol)
	if !ok {
		b.drop(DropSort, rawCol, "unknown column")
		return nil
	}
	dir := schema.Desc
	if strings.EqualFold(strings.TrimSpace(rawDir), string(schema.Asc)) {
		dir = schema.Asc
	}
	return &schema.Sort{Column: col, Direction: dir}
}

// flag honours real bools and bool-parseable strings only
func (b *builder) flag(raw RawIntent, key string, def bool) bool {
	v, ok := raw[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return parsed
		}
	}
	b.drop(DropFlag, fmt.Sprintf("%s=%v", key, v), "not a boolean")
	return def
}

func truncate(cols []string, n int) []string {
	if len(cols) > n {
		return cols[:n]
	}
	return cols
}
