package datasets

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/aristath/smartwealth/internal/domain"
)

// Candidate source columns for earnings rows, in priority order
var (
	DateCandidates   = []string{"event_date", "earnings_date", "report_date", "calendar_date", "date"}
	TimeCandidates   = []string{"time", "session", "when", "period"}
	NameCandidates   = []string{"company_name", "name", "company"}
	SymbolCandidates = []string{"symbol", "ticker", "Symbol", "SYMBOL"}
)

// eventDateKey carries the detected date column through warehouse queries
const eventDateKey = "_event_date"

// Normalizer converts raw source rows into the shape a dataset's schema expects
type Normalizer func(rows []domain.Row) []domain.Row

// NormalizerFor returns the normaliser for a dataset
func NormalizerFor(dataset string) Normalizer {
	switch dataset {
	case domain.DatasetEarnings:
		return normalizeEach(NormalizeEarningsRow)
	case domain.DatasetScores:
		return normalizeEach(normalizeScoresRow)
	case domain.DatasetVendors:
		return normalizeEach(normalizeVendorRow)
	default:
		return normalizeEach(func(row domain.Row) (domain.Row, bool) {
			return nativeRow(row), true
		})
	}
}

func normalizeEach(fn func(domain.Row) (domain.Row, bool)) Normalizer {
	return func(rows []domain.Row) []domain.Row {
		out := make([]domain.Row, 0, len(rows))
		for _, row := range rows {
			if norm, ok := fn(row); ok {
				out = append(out, norm)
			}
		}
		return out
	}
}

// toNative converts driver values into plain JSON-friendly values
func toNative(v interface{}) interface{} {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(domain.DateLayout)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.Format(domain.DateLayout)
	case float32:
		return float64(t)
	default:
		return v
	}
}

func nativeRow(row domain.Row) domain.Row {
	out := make(domain.Row, len(row))
	for k, v := range row {
		out[k] = toNative(v)
	}
	return out
}

// ToISODate parses a date-like value into YYYY-MM-DD
func ToISODate(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case time.Time:
		return t.Format(domain.DateLayout), true
	case []byte:
		return ToISODate(string(t))
	case string:
		trimmed := strings.TrimSpace(t)
		if trimmed == "" {
			return "", false
		}
		parsed, err := cast.ToTimeE(trimmed)
		if err != nil {
			return "", false
		}
		return parsed.Format(domain.DateLayout), true
	default:
		return "", false
	}
}

// firstKey returns the first candidate holding a non-empty value
func firstKey(row domain.Row, candidates []string) (interface{}, bool) {
	for _, key := range candidates {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && s == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// NormalizeEarningsRow resolves the event date, session hint, company name
// and upper-case symbol of a raw earnings row. Rows without a parseable
// date are rejected.
func NormalizeEarningsRow(raw domain.Row) (domain.Row, bool) {
	row := nativeRow(raw)

	dateValue, ok := row[eventDateKey]
	if !ok || dateValue == nil {
		for _, candidate := range DateCandidates {
			if v, present := row[candidate]; present {
				dateValue = v
				break
			}
		}
	}
	delete(row, eventDateKey)

	iso, ok := ToISODate(dateValue)
	if !ok {
		return nil, false
	}
	row["event_date"] = iso

	if hint, ok := firstKey(row, TimeCandidates); ok {
		row["time_hint"] = hint
	} else {
		row["time_hint"] = nil
	}

	company := ""
	if v, ok := firstKey(row, NameCandidates); ok {
		company, _ = domain.Text(v)
	}
	row["company_name"] = company

	symbol := ""
	if v, ok := firstKey(row, SymbolCandidates); ok {
		symbol, _ = domain.Text(v)
	}
	row["symbol"] = strings.ToUpper(strings.TrimSpace(symbol))

	return row, true
}

func normalizeScoresRow(raw domain.Row) (domain.Row, bool) {
	row := nativeRow(raw)
	if asOf, ok := row["as_of"].(string); ok {
		if iso, ok := ToISODate(asOf); ok {
			row["as_of"] = iso
		}
	}
	return row, true
}

func normalizeVendorRow(raw domain.Row) (domain.Row, bool) {
	row := nativeRow(raw)
	if year, ok := row["start_year"].(string); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(year)); err == nil {
			row["start_year"] = n
		}
	}
	return row, true
}
