package query

import (
	"sort"
	"strings"

	"github.com/aristath/smartwealth/internal/domain"
	"github.com/aristath/smartwealth/internal/modules/plan"
	"github.com/aristath/smartwealth/internal/modules/schema"
)

// Evaluate applies a plan to in-memory rows with the same predicates,
// ordering and limit as the SQL statement Build produces for dialect d,
// including its case folding. The input slice is not modified; returned
// rows are projected to the plan's final columns.
func Evaluate(p *plan.Plan, rows []domain.Row, d Dialect) []domain.Row {
	s := p.Schema()
	matched := make([]domain.Row, 0, len(rows))

	tickers := make(map[string]struct{})
	if s.TickerColumn() != "" {
		for _, t := range p.Tickers() {
			tickers[t] = struct{}{}
		}
	}
	filters := p.Filters()

	for _, row := range rows {
		if len(tickers) > 0 {
			text, ok := domain.Text(row[s.TickerColumn()])
			if !ok {
				continue
			}
			if _, hit := tickers[text]; !hit {
				continue
			}
		}
		keep := true
		for _, f := range filters {
			if !matches(s, d, f, row[f.Column]) {
				keep = false
				break
			}
		}
		if keep {
			matched = append(matched, row)
		}
	}

	if order, ok := p.EffectiveSort(); ok {
		sortRows(s, order, matched)
	}

	if len(matched) > p.Limit() {
		matched = matched[:p.Limit()]
	}

	cols := p.FinalColumns()
	out := make([]domain.Row, len(matched))
	for i, row := range matched {
		out[i] = Normalize(s, row.Project(cols))
	}
	return out
}

// matches reports whether a single value satisfies a filter. Missing
// values never match, mirroring SQL NULL comparison.
func matches(s *schema.Schema, d Dialect, f plan.Filter, v interface{}) bool {
	if f.Operator.IsPattern() {
		text, ok := domain.Text(v)
		if !ok {
			return false
		}
		text = d.foldLower(text)
		needle := d.foldLower(filterText(f))
		if f.Operator == plan.OpStartsWith {
			return strings.HasPrefix(text, needle)
		}
		return strings.Contains(text, needle)
	}

	if s.IsNumeric(f.Column) {
		got, ok := domain.Float(v)
		if !ok {
			return false
		}
		want, _ := f.Value.(float64)
		return compare(f.Operator, cmpFloat(got, want))
	}

	text, ok := domain.Text(v)
	if !ok {
		return false
	}
	want := filterText(f)
	if !s.IsDate(f.Column) {
		text = d.foldUpper(text)
		want = d.foldUpper(want)
	}
	return compare(f.Operator, strings.Compare(text, want))
}

func compare(op plan.Operator, c int) bool {
	switch op {
	case plan.OpEq:
		return c == 0
	case plan.OpNeq:
		return c != 0
	case plan.OpGt:
		return c > 0
	case plan.OpLt:
		return c < 0
	case plan.OpGte:
		return c >= 0
	case plan.OpLte:
		return c <= 0
	}
	return false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// sortKey extracts a comparable key; ok is false for missing values
type sortKey struct {
	num  float64
	text string
	ok   bool
}

func keyOf(s *schema.Schema, col string, v interface{}) sortKey {
	if s.IsNumeric(col) {
		f, ok := domain.Float(v)
		return sortKey{num: f, ok: ok}
	}
	text, ok := domain.Text(v)
	return sortKey{text: text, ok: ok}
}

// sortRows orders rows stably. Missing values come first ascending and
// last descending.
func sortRows(s *schema.Schema, order schema.Sort, rows []domain.Row) {
	numeric := s.IsNumeric(order.Column)
	keys := make([]sortKey, len(rows))
	for i, row := range rows {
		keys[i] = keyOf(s, order.Column, row[order.Column])
	}
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if !ka.ok || !kb.ok {
			if ka.ok == kb.ok {
				return false
			}
			// missing sorts low
			if order.Direction == schema.Asc {
				return !ka.ok
			}
			return !kb.ok
		}
		var c int
		if numeric {
			c = cmpFloat(ka.num, kb.num)
		} else {
			c = strings.Compare(ka.text, kb.text)
		}
		if order.Direction == schema.Asc {
			return c < 0
		}
		return c > 0
	})

	sorted := make([]domain.Row, len(rows))
	for i, j := range idx {
		sorted[i] = rows[j]
	}
	copy(rows, sorted)
}
