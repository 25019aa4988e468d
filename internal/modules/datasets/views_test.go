package datasets

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/smartwealth/internal/domain"
)

func symbols(rows []domain.Row) []interface{} {
	out := make([]interface{}, len(rows))
	for i, r := range rows {
		out[i] = r["symbol"]
	}
	return out
}

func TestEarningsWindow(t *testing.T) {
	rows := []domain.Row{
		{"symbol": "MSFT", "event_date": "2025-04-24"},
		{"symbol": "AAPL", "event_date": "2025-04-30"},
		{"symbol": "AMZN", "event_date": "2025-04-30"},
		{"symbol": "META", "event_date": "2025-05-10"},
		{"symbol": "OLD", "event_date": "2025-01-01"},
		{"symbol": "BAD", "event_date": nil},
	}

	got := EarningsWindow(rows, "2025-04-24", "2025-04-30")
	assert.Equal(t, []interface{}{"MSFT", "AAPL", "AMZN"}, symbols(got))

	assert.Empty(t, EarningsWindow(rows, "2026-01-01", "2026-02-01"))
}

func TestVendorCompanies(t *testing.T) {
	rows := []domain.Row{
		{"company": "Apple ", "ticker": "aapl"},
		{"company": "Apple", "ticker": "AAPL"},
		{"company": "Microsoft", "ticker": "MSFT"},
		{"company": "Apple", "ticker": "APLE"},
		{"company": nil, "ticker": "ZZZ"},
	}

	assert.Equal(t, []Company{
		{Company: "", Ticker: "ZZZ", Count: 1},
		{Company: "Apple", Ticker: "AAPL", Count: 2},
		{Company: "Apple", Ticker: "APLE", Count: 1},
		{Company: "Microsoft", Ticker: "MSFT", Count: 1},
	}, VendorCompanies(rows))
}

func TestRankedScores(t *testing.T) {
	rows := []domain.Row{
		{"symbol": "LOW", "sector": "Technology", "overall_score": 40.0},
		{"symbol": "NONE", "sector": "Technology", "overall_score": nil},
		{"symbol": "HIGH", "sector": "technology ", "overall_score": 90.0},
		{"symbol": "BANK", "sector": "Financials", "overall_score": 70.0},
	}

	assert.Equal(t, []interface{}{"HIGH", "LOW", "NONE"}, symbols(RankedScores(rows, "Technology")))
	assert.Equal(t, []interface{}{"HIGH", "BANK", "LOW", "NONE"}, symbols(RankedScores(rows, "  ")))
}

func TestSearchProfiles(t *testing.T) {
	rows := []domain.Row{
		{"symbol": "AAPL", "companyName": "Apple Inc.", "sector": "Technology"},
		{"symbol": "JPM", "companyName": "JPMorgan Chase", "sector": "Financial Services"},
		{"symbol": "XOM", "companyName": "Exxon Mobil", "sector": "Energy"},
	}

	assert.Equal(t, []interface{}{"AAPL"}, symbols(SearchProfiles(rows, "APPLE")))
	assert.Equal(t, []interface{}{"JPM"}, symbols(SearchProfiles(rows, "financial")))
	assert.Equal(t, []interface{}{"XOM"}, symbols(SearchProfiles(rows, "xo")))
	assert.Len(t, SearchProfiles(rows, ""), 3)
	assert.Empty(t, SearchProfiles(rows, "zzz"))
}

func TestNameIndex(t *testing.T) {
	index := BuildNameIndex([]domain.Row{
		{"symbol": "AAPL", "companyName": "Apple Inc."},
		{"symbol": "APLE", "companyName": "Apple Hospitality REIT, Inc."},
		{"symbol": "MSFT", "companyName": "Microsoft Corporation"},
		{"symbol": nil, "companyName": nil},
	})

	assert.Equal(t, []string{"APLE", "AAPL"}, index.Resolve("apple hospitality"))
	assert.Equal(t, []string{"AAPL", "APLE"}, index.Resolve("Apple"))
	assert.Equal(t, []string{"MSFT"}, index.Resolve("msft"))
	assert.Equal(t, []string{"AAPL", "APLE", "MSFT"}, index.Resolve("inc. corporation apple"))
	assert.Empty(t, index.Resolve("!!!"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "inc", Slugify("Inc."))
	assert.Equal(t, "att", Slugify("AT&T"))
	assert.Equal(t, "", Slugify("--"))
}
