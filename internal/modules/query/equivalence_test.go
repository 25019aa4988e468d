package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/smartwealth/internal/database"
	"github.com/aristath/smartwealth/internal/domain"
	"github.com/aristath/smartwealth/internal/modules/plan"
)

const vendorsDDL = `CREATE TABLE vendor_customer_network (
	company TEXT, ticker TEXT, relation_type TEXT, counterparty_name TEXT,
	counterparty_type TEXT, tier TEXT, category TEXT, component_or_product TEXT,
	region TEXT, relationship_strength REAL, est_contract_value_usd_m REAL,
	start_year INTEGER, notes TEXT, is_dummy INTEGER
)`

const earningsDDL = `CREATE TABLE earnings_calendar_new (
	symbol TEXT, company_name TEXT, event_date TEXT, time_hint TEXT,
	period TEXT, epsEstimated REAL
)`

var (
	vendorColumns = []string{"company", "ticker", "relation_type", "counterparty_name", "counterparty_type",
		"region", "relationship_strength", "est_contract_value_usd_m", "start_year"}
	earningsColumns = []string{"symbol", "company_name", "event_date", "time_hint", "period", "epsEstimated"}
)

func setupWarehouse(t *testing.T, ddl, table string, cols []string, rows []domain.Row) *database.Warehouse {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	_, err = conn.Exec(ddl)
	require.NoError(t, err)

	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), marks)
	for _, r := range rows {
		args := make([]interface{}, len(cols))
		for i, c := range cols {
			args[i] = r[c]
		}
		_, err := conn.Exec(insert, args...)
		require.NoError(t, err)
	}
	return database.NewWarehouse(conn, database.DriverSQLite)
}

func assertModesAgree(t *testing.T, exec *Executor, rows []domain.Row, plans []*plan.Plan) {
	t.Helper()
	for i, p := range plans {
		t.Run(fmt.Sprintf("%s_%d", p.Dataset(), i), func(t *testing.T) {
			viaSQL, err := exec.RunSQL(context.Background(), p)
			require.NoError(t, err)
			viaCache := Evaluate(p, rows, DialectSQLite)

			assert.Equal(t, viaCache, viaSQL.Rows, "sql: %s", viaSQL.Statement.Display())
		})
	}
}

// Both execution modes must return the same rows in the same order.
func TestModeEquivalence(t *testing.T) {
	rows := append(vendorRows(),
		domain.Row{"company": "Airbus", "ticker": "EADSY", "relation_type": "customer", "counterparty_name": "Société Air", "counterparty_type": "airline", "region": "émea", "relationship_strength": 0.4, "est_contract_value_usd_m": 800, "start_year": "2008"},
	)
	exec := NewExecutor(setupWarehouse(t, vendorsDDL, "vendor_customer_network", vendorColumns, rows), DialectSQLite, nil, nil, zerolog.Nop())

	intents := []plan.RawIntent{
		{},
		{"tickers": []interface{}{"AAPL", "NVDA"}},
		{"tickers": "msft", "metrics": []interface{}{"start_year"}},
		{"intent": "compare", "tickers": []interface{}{"AAPL", "MSFT"}, "metrics": []interface{}{"contract value", "relationship strength"}},
		{"sort": map[string]interface{}{"column": "start_year", "direction": "asc"}, "limit": 10},
		{"sort": map[string]interface{}{"column": "est_contract_value_usd_m", "direction": "asc"}, "limit": 10},
		{"sort": "est_contract_value_usd_m", "limit": 10},
		{"filters": []interface{}{map[string]interface{}{"column": "counterparty_name", "operator": "contains", "value": "n_e"}}},
		{"filters": []interface{}{map[string]interface{}{"column": "counterparty_name", "operator": "contains", "value": "%"}}},
		{"filters": []interface{}{map[string]interface{}{"column": "counterparty_name", "operator": "starts_with", "value": "ts"}}},
		{"filters": []interface{}{map[string]interface{}{"column": "relationship_strength", "operator": "gte", "value": "0.5"}}},
		{"filters": []interface{}{map[string]interface{}{"column": "est_contract_value_usd_m", "operator": "neq", "value": 300}}},
		{"filters": []interface{}{map[string]interface{}{"column": "region", "operator": "eq", "value": "na"}}, "sort": "start_year"},
		{"filters": []interface{}{map[string]interface{}{"column": "counterparty_name", "operator": "gt", "value": "m"}}, "sort": "start_year"},
		{"filters": []interface{}{
			map[string]interface{}{"column": "relation_type", "operator": "neq", "value": "customer"},
			map[string]interface{}{"column": "start_year", "operator": "lt", "value": 2015},
		}, "limit": 1},
		{"filters": []interface{}{map[string]interface{}{"column": "region", "operator": "eq", "value": "ÉMEA"}}},
		{"filters": []interface{}{map[string]interface{}{"column": "region", "operator": "eq", "value": "éMea"}}},
		{"filters": []interface{}{map[string]interface{}{"column": "region", "operator": "neq", "value": "ÉMEA"}}, "limit": 10},
		{"filters": []interface{}{map[string]interface{}{"column": "counterparty_name", "operator": "contains", "value": "SOCIÉTÉ"}}},
		{"filters": []interface{}{map[string]interface{}{"column": "counterparty_name", "operator": "starts_with", "value": "soci"}}},
		{"sort": map[string]interface{}{"column": "counterparty_name", "direction": "asc"}, "limit": 10},
		{"sort": map[string]interface{}{"column": "region", "direction": "desc"}, "limit": 10},
	}

	plans := make([]*plan.Plan, len(intents))
	for i, raw := range intents {
		plans[i] = vendorPlan(t, raw)
	}
	assertModesAgree(t, exec, rows, plans)
}

// Numbers held in a TEXT column still compare and sort numerically.
func TestModeEquivalence_TextAffinityNumbers(t *testing.T) {
	rows := append(vendorRows(),
		domain.Row{"company": "Boeing", "ticker": "BA", "relation_type": "supplier", "counterparty_name": "Spirit", "counterparty_type": "aerostructures", "region": "NA", "relationship_strength": 0.6, "est_contract_value_usd_m": 950, "start_year": "998"},
	)
	ddl := strings.Replace(vendorsDDL, "start_year INTEGER", "start_year TEXT", 1)
	exec := NewExecutor(setupWarehouse(t, ddl, "vendor_customer_network", vendorColumns, rows), DialectSQLite, nil, nil, zerolog.Nop())

	intents := []plan.RawIntent{
		{"filters": []interface{}{map[string]interface{}{"column": "start_year", "operator": "lt", "value": 2005}}, "limit": 10},
		{"filters": []interface{}{map[string]interface{}{"column": "start_year", "operator": "gte", "value": "2012"}}, "limit": 10},
		{"sort": map[string]interface{}{"column": "start_year", "direction": "asc"}, "limit": 10},
		{"sort": "start_year", "limit": 3},
	}

	plans := make([]*plan.Plan, len(intents))
	for i, raw := range intents {
		plans[i] = vendorPlan(t, raw)
	}
	assertModesAgree(t, exec, rows, plans)

	viaCache := Evaluate(plans[0], rows, DialectSQLite)
	assert.Equal(t, []interface{}{"Intel", "Spirit"}, counterparties(viaCache))
}

func TestModeEquivalence_Earnings(t *testing.T) {
	rows := []domain.Row{
		{"symbol": "AAPL", "company_name": "Apple", "event_date": "2025-04-30", "time_hint": "amc", "period": "Q2", "epsEstimated": 1.62},
		{"symbol": "MSFT", "company_name": "Microsoft", "event_date": "2025-04-24", "time_hint": "amc", "period": "Q3", "epsEstimated": 3.21},
		{"symbol": "META", "company_name": nil, "event_date": "2025-04-30", "time_hint": "amc", "period": "Q1", "epsEstimated": 5.2},
		{"symbol": "NVDA", "company_name": "Nvidia", "event_date": nil, "time_hint": nil, "period": "Q1", "epsEstimated": nil},
		{"symbol": "AMZN", "company_name": "Amazon", "event_date": "2025-05-01", "time_hint": "bmo", "period": "Q1", "epsEstimated": 1.36},
		{"symbol": "ASML", "company_name": "ASML Holding", "event_date": "2025-04-16", "time_hint": "bmo", "period": "Q1", "epsEstimated": 5.8},
	}
	exec := NewExecutor(setupWarehouse(t, earningsDDL, "earnings_calendar_new", earningsColumns, rows), DialectSQLite, nil, nil, zerolog.Nop())

	dateFilter := func(op, value string) map[string]interface{} {
		return map[string]interface{}{"column": "earnings date", "operator": op, "value": value}
	}
	intents := []plan.RawIntent{
		{"limit": 10},
		{"filters": []interface{}{dateFilter("gt", "2025-04-24")}, "limit": 10},
		{"filters": []interface{}{dateFilter("lte", "2025-04-30")}, "limit": 10},
		{"filters": []interface{}{dateFilter("gt", "2025-04-16"), dateFilter("lte", "2025-04-30T00:00:00Z")}, "limit": 10},
		{"sort": map[string]interface{}{"column": "event_date", "direction": "asc"}, "limit": 10},
		{"sort": map[string]interface{}{"column": "event_date", "direction": "desc"}, "limit": 3},
		{"sort": map[string]interface{}{"column": "company", "direction": "asc"}, "limit": 10},
		{"sort": map[string]interface{}{"column": "company", "direction": "desc"}, "limit": 10},
		{"tickers": []interface{}{"AAPL", "META", "NVDA"}, "sort": "company_name"},
	}

	c := newTestCompiler(t)
	plans := make([]*plan.Plan, len(intents))
	for i, raw := range intents {
		raw["dataset"] = "earnings"
		plans[i] = c.Compile(raw)
	}
	require.Len(t, plans[3].Filters(), 2)
	assertModesAgree(t, exec, rows, plans)
}
