package testing

import (
	"context"

	"github.com/aristath/smartwealth/internal/domain"
	"github.com/aristath/smartwealth/internal/modules/cachestore"
)

// ProfileRows returns normalized company profile rows
func ProfileRows() []domain.Row {
	return []domain.Row{
		{"symbol": "AAPL", "companyName": "Apple Inc.", "sector": "Technology", "marketCap": 3.1e12, "price": 212.4},
		{"symbol": "MSFT", "companyName": "Microsoft Corporation", "sector": "Technology", "marketCap": 2.9e12, "price": 401.2},
		{"symbol": "JPM", "companyName": "JPMorgan Chase & Co.", "sector": "Financial Services", "marketCap": 5.6e11, "price": 198.7},
	}
}

// ScoreRows returns normalized score rows
func ScoreRows() []domain.Row {
	return []domain.Row{
		{"symbol": "AAPL", "overall_score": 81.5, "as_of": "2025-03-01"},
		{"symbol": "MSFT", "overall_score": 77.0, "as_of": "2025-03-01"},
		{"symbol": "JPM", "overall_score": 64.2, "as_of": "2025-03-01"},
	}
}

// EarningsRows returns normalized earnings calendar rows
func EarningsRows() []domain.Row {
	return []domain.Row{
		{"symbol": "AAPL", "event_date": "2025-04-30", "epsEstimated": 1.62},
		{"symbol": "MSFT", "event_date": "2025-04-24", "epsEstimated": 3.21},
	}
}

// VendorRows returns normalized vendor network rows
func VendorRows() []domain.Row {
	return []domain.Row{
		{"company": "Apple", "ticker": "AAPL", "counterparty_name": "TSMC", "counterparty_type": "supplier", "relationship_strength": 0.9},
		{"company": "Apple", "ticker": "AAPL", "counterparty_name": "Foxconn", "counterparty_type": "supplier", "relationship_strength": 0.8},
		{"company": "Microsoft", "ticker": "MSFT", "counterparty_name": "Nvidia", "counterparty_type": "supplier", "relationship_strength": 0.7},
	}
}

// StaticLoader returns a loader that always yields rows
func StaticLoader(rows []domain.Row) cachestore.Loader {
	return func(ctx context.Context) ([]domain.Row, error) { return rows, nil }
}

// FailingLoader returns a loader that always fails with err
func FailingLoader(err error) cachestore.Loader {
	return func(ctx context.Context) ([]domain.Row, error) { return nil, err }
}
