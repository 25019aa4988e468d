package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aristath/smartwealth/internal/modules/plan"
)

var comparators = map[plan.Operator]string{
	plan.OpEq:  "=",
	plan.OpNeq: "<>",
	plan.OpGt:  ">",
	plan.OpLt:  "<",
	plan.OpGte: ">=",
	plan.OpLte: "<=",
}

const likeEscape = "!"

// Statement is a parameterized SQL statement. Every user-supplied value
// travels in Args; identifiers come from the schema only.
type Statement struct {
	SQL     string        `json:"sql"`
	Args    []interface{} `json:"args"`
	Dialect Dialect       `json:"dialect"`
}

type statementBuilder struct {
	dialect Dialect
	args    []interface{}
}

func (b *statementBuilder) bind(v interface{}) string {
	b.args = append(b.args, v)
	return b.dialect.placeholder(len(b.args))
}

// Build renders the SQL statement for a plan
func Build(p *plan.Plan, d Dialect) Statement {
	s := p.Schema()
	b := &statementBuilder{dialect: d}

	cols := p.FinalColumns()
	selected := make([]string, len(cols))
	for i, col := range cols {
		selected[i] = d.Ident(col)
	}

	var where []string
	if tickers := p.Tickers(); len(tickers) > 0 && s.TickerColumn() != "" {
		marks := make([]string, len(tickers))
		for i, t := range tickers {
			marks[i] = b.bind(t)
		}
		where = append(where, fmt.Sprintf("%s IN (%s)", d.Ident(s.TickerColumn()), strings.Join(marks, ", ")))
	}

	for _, f := range p.Filters() {
		col := d.Ident(f.Column)
		switch {
		case f.Operator.IsPattern():
			where = append(where, fmt.Sprintf("LOWER(%s) LIKE %s ESCAPE '%s'", col, b.bind(likePattern(f, d)), likeEscape))
		case s.IsNumeric(f.Column):
			where = append(where, fmt.Sprintf("%s %s %s", d.numeric(col), comparators[f.Operator], b.bind(f.Value)))
		case s.IsDate(f.Column):
			where = append(where, fmt.Sprintf("%s %s %s", col, comparators[f.Operator], b.bind(f.Value)))
		default:
			where = append(where, fmt.Sprintf("UPPER(%s) %s %s", col, comparators[f.Operator], b.bind(d.foldUpper(filterText(f)))))
		}
	}

	var sql strings.Builder
	sql.WriteString("SELECT ")
	sql.WriteString(strings.Join(selected, ", "))
	sql.WriteString(" FROM ")
	sql.WriteString(d.Table(s.Table()))
	if len(where) > 0 {
		sql.WriteString(" WHERE ")
		sql.WriteString(strings.Join(where, " AND "))
	}
	if sort, ok := p.EffectiveSort(); ok {
		sql.WriteString(" ORDER BY ")
		sql.WriteString(d.orderBy(sort, s.IsNumeric(sort.Column)))
	}
	sql.WriteString(" LIMIT ")
	sql.WriteString(strconv.Itoa(p.Limit()))

	return Statement{SQL: sql.String(), Args: b.args, Dialect: d}
}

func filterText(f plan.Filter) string {
	text, _ := f.Value.(string)
	return text
}

func likePattern(f plan.Filter, d Dialect) string {
	escaped := strings.NewReplacer(
		likeEscape, likeEscape+likeEscape,
		"%", likeEscape+"%",
		"_", likeEscape+"_",
	).Replace(d.foldLower(filterText(f)))
	if f.Operator == plan.OpStartsWith {
		return escaped + "%"
	}
	return "%" + escaped + "%"
}

// Display renders the statement with its arguments inlined as literals.
// The result is for auditing only and is never executed.
func (st Statement) Display() string {
	var out strings.Builder
	sql := st.SQL
	next := 0
	inQuote := false
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			out.WriteByte(c)
		case inQuote:
			out.WriteByte(c)
		case c == '?' && st.Dialect != DialectPostgres:
			out.WriteString(st.literal(next))
			next++
		case c == '$' && st.Dialect == DialectPostgres && i+1 < len(sql) && isDigit(sql[i+1]):
			j := i + 1
			for j < len(sql) && isDigit(sql[j]) {
				j++
			}
			n, _ := strconv.Atoi(sql[i+1 : j])
			out.WriteString(st.literal(n - 1))
			i = j - 1
		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (st Statement) literal(i int) string {
	if i < 0 || i >= len(st.Args) {
		return "?"
	}
	switch v := st.Args[i].(type) {
	case nil:
		return "NULL"
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(v), "'", "''") + "'"
	}
}
