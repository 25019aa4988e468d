package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/smartwealth/internal/modules/plan"
	"github.com/aristath/smartwealth/internal/modules/schema"
)

func newTestCompiler(t *testing.T) *plan.Compiler {
	t.Helper()
	reg, err := schema.NewDefaultRegistry(nil)
	require.NoError(t, err)
	return plan.NewCompiler(reg)
}

func comparePlan(t *testing.T) *plan.Plan {
	t.Helper()
	return newTestCompiler(t).Compile(plan.RawIntent{
		"intent":  "compare",
		"tickers": []interface{}{"aapl", "msft"},
		"metrics": []interface{}{"share price"},
		"include": []interface{}{"52 week range"},
		"filters": []interface{}{
			map[string]interface{}{"column": "sector", "operator": "contains", "value": "Tech_50%"},
			map[string]interface{}{"column": "price", "operator": ">", "value": "100"},
			map[string]interface{}{"column": "country", "operator": "eq", "value": "us"},
		},
		"limit": 3,
	})
}

func TestBuild_ProfilesScenario(t *testing.T) {
	p := newTestCompiler(t).Compile(plan.RawIntent{
		"tickers": []interface{}{"meta"},
		"metrics": []interface{}{"market cap"},
	})

	stmt := Build(p, DialectSQLite)

	assert.Equal(t, "SELECT symbol, companyName, marketCap FROM nyse_profiles WHERE symbol IN (?) LIMIT 5", stmt.SQL)
	assert.Equal(t, []interface{}{"META"}, stmt.Args)
	assert.Equal(t, "SELECT symbol, companyName, marketCap FROM nyse_profiles WHERE symbol IN ('META') LIMIT 5", stmt.Display())
}

func TestBuild_PredicatesAndCompareSort(t *testing.T) {
	stmt := Build(comparePlan(t), DialectSQLite)

	assert.Equal(t,
		`SELECT symbol, companyName, "range", price FROM nyse_profiles`+
			` WHERE symbol IN (?, ?) AND LOWER(sector) LIKE ? ESCAPE '!' AND CAST(price AS REAL) > ? AND UPPER(country) = ?`+
			` ORDER BY CAST(price AS REAL) DESC LIMIT 3`,
		stmt.SQL)
	assert.Equal(t, []interface{}{"AAPL", "MSFT", "%tech!_50!%%", 100.0, "US"}, stmt.Args)
	assert.Equal(t,
		`SELECT symbol, companyName, "range", price FROM nyse_profiles`+
			` WHERE symbol IN ('AAPL', 'MSFT') AND LOWER(sector) LIKE '%tech!_50!%%' ESCAPE '!' AND CAST(price AS REAL) > 100 AND UPPER(country) = 'US'`+
			` ORDER BY CAST(price AS REAL) DESC LIMIT 3`,
		stmt.Display())
}

func TestBuild_Postgres(t *testing.T) {
	stmt := Build(comparePlan(t), DialectPostgres)

	assert.Equal(t,
		`SELECT "symbol", "companyName", "range", "price" FROM "nyse_profiles"`+
			` WHERE "symbol" IN ($1, $2) AND LOWER("sector") LIKE $3 ESCAPE '!' AND "price" > $4 AND UPPER("country") = $5`+
			` ORDER BY "price" DESC NULLS LAST LIMIT 3`,
		stmt.SQL)
	assert.Len(t, stmt.Args, 5)
	assert.Contains(t, stmt.Display(), `"symbol" IN ('AAPL', 'MSFT')`)
	assert.Contains(t, stmt.Display(), `"price" > 100 AND UPPER("country") = 'US'`)
}

func TestBuild_MySQL(t *testing.T) {
	stmt := Build(comparePlan(t), DialectMySQL)

	assert.Contains(t, stmt.SQL, "SELECT symbol, companyName, `range`, price FROM nyse_profiles")
	assert.Contains(t, stmt.SQL, "symbol IN (?, ?)")
}

func TestBuild_DefaultSorts(t *testing.T) {
	c := newTestCompiler(t)

	testCases := []struct {
		dataset string
		dialect Dialect
		want    string
	}{
		{"scores", DialectSQLite, " ORDER BY CAST(overall_score AS REAL) DESC LIMIT 5"},
		{"earnings", DialectSQLite, " ORDER BY event_date ASC LIMIT 5"},
		{"earnings", DialectPostgres, ` ORDER BY "event_date" ASC NULLS FIRST LIMIT 5`},
		{"vendors", DialectMySQL, " ORDER BY relationship_strength DESC LIMIT 5"},
	}

	for _, tc := range testCases {
		t.Run(tc.dataset+"/"+string(tc.dialect), func(t *testing.T) {
			stmt := Build(c.Compile(plan.RawIntent{"dataset": tc.dataset}), tc.dialect)
			assert.Contains(t, stmt.SQL, tc.want)
		})
	}

	stmt := Build(c.Compile(plan.RawIntent{}), DialectSQLite)
	assert.NotContains(t, stmt.SQL, "ORDER BY")
}

func TestBuild_ExplicitSortWins(t *testing.T) {
	p := newTestCompiler(t).Compile(plan.RawIntent{
		"dataset": "scores",
		"intent":  "compare",
		"tickers": []interface{}{"AAPL", "MSFT"},
		"metrics": []interface{}{"overall score"},
		"sort":    map[string]interface{}{"column": "rank", "direction": "asc"},
	})

	assert.Contains(t, Build(p, DialectSQLite).SQL, " ORDER BY CAST(rank_overall AS REAL) ASC LIMIT 5")
}

func TestDisplay_EscapesQuotes(t *testing.T) {
	p := newTestCompiler(t).Compile(plan.RawIntent{
		"filters": []interface{}{
			map[string]interface{}{"column": "companyName", "operator": "eq", "value": "O'Reilly"},
		},
	})

	stmt := Build(p, DialectSQLite)
	assert.Equal(t, []interface{}{"O'REILLY"}, stmt.Args)
	assert.Contains(t, stmt.Display(), `UPPER(companyName) = 'O''REILLY'`)
	assert.NotContains(t, stmt.SQL, "REILLY")
}

func TestDisplay_Literals(t *testing.T) {
	stmt := Statement{
		SQL:     "SELECT a FROM t WHERE a = ? AND b = ? AND c = ? AND d LIKE ? ESCAPE '?' AND e = ?",
		Args:    []interface{}{nil, true, int64(7), "x%", 1.5},
		Dialect: DialectSQLite,
	}

	assert.Equal(t, "SELECT a FROM t WHERE a = NULL AND b = TRUE AND c = 7 AND d LIKE 'x%' ESCAPE '?' AND e = 1.5", stmt.Display())
}

func TestBuild_FoldsLikeTheDialect(t *testing.T) {
	p := newTestCompiler(t).Compile(plan.RawIntent{
		"dataset": "vendors",
		"filters": []interface{}{
			map[string]interface{}{"column": "region", "operator": "eq", "value": "émea"},
			map[string]interface{}{"column": "counterparty_name", "operator": "contains", "value": "ÉCOLE"},
		},
	})

	assert.Equal(t, []interface{}{"éMEA", "%École%"}, Build(p, DialectSQLite).Args)
	assert.Equal(t, []interface{}{"ÉMEA", "%école%"}, Build(p, DialectPostgres).Args)
}

func TestDialectFor(t *testing.T) {
	assert.Equal(t, DialectPostgres, DialectFor("postgres"))
	assert.Equal(t, DialectPostgres, DialectFor("pgx"))
	assert.Equal(t, DialectMySQL, DialectFor("MySQL"))
	assert.Equal(t, DialectSQLite, DialectFor("sqlite"))
	assert.Equal(t, DialectSQLite, DialectFor(""))
}
