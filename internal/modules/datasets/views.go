package datasets

import (
	"sort"
	"strings"
	"unicode"

	"github.com/aristath/smartwealth/internal/domain"
)

// EarningsWindow returns events with from <= event_date <= to, ordered by
// event_date then symbol. Bounds are ISO dates.
func EarningsWindow(rows []domain.Row, from, to string) []domain.Row {
	out := make([]domain.Row, 0)
	for _, row := range rows {
		date, ok := row["event_date"].(string)
		if !ok || date < from || date > to {
			continue
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i]["event_date"].(string), out[j]["event_date"].(string)
		if di != dj {
			return di < dj
		}
		si, _ := domain.Text(out[i]["symbol"])
		sj, _ := domain.Text(out[j]["symbol"])
		return si < sj
	})
	return out
}

// Company is one entry of the vendor network directory
type Company struct {
	Company string `json:"company"`
	Ticker  string `json:"ticker"`
	Count   int    `json:"count"`
}

// VendorCompanies dedupes companies by (company, ticker) and counts their
// relationships, ordered by company then ticker.
func VendorCompanies(rows []domain.Row) []Company {
	type key struct{ company, ticker string }
	seen := make(map[key]*Company)
	for _, row := range rows {
		company, _ := domain.Text(row["company"])
		ticker, _ := domain.Text(row["ticker"])
		k := key{strings.TrimSpace(company), strings.ToUpper(strings.TrimSpace(ticker))}
		c, ok := seen[k]
		if !ok {
			c = &Company{Company: k.company, Ticker: k.ticker}
			seen[k] = c
		}
		c.Count++
	}

	out := make([]Company, 0, len(seen))
	for _, c := range seen {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Company != out[j].Company {
			return out[i].Company < out[j].Company
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out
}

// RankedScores keeps rows whose sector matches case-insensitively (all rows
// when sector is blank) and orders them by overall_score descending.
func RankedScores(rows []domain.Row, sector string) []domain.Row {
	want := strings.ToLower(strings.TrimSpace(sector))
	out := make([]domain.Row, 0, len(rows))
	for _, row := range rows {
		if want != "" {
			got, _ := domain.Text(row["sector"])
			if strings.ToLower(strings.TrimSpace(got)) != want {
				continue
			}
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, okA := domain.Float(out[i]["overall_score"])
		b, okB := domain.Float(out[j]["overall_score"])
		if okA != okB {
			return okA
		}
		return okA && a > b
	})
	return out
}

// SearchProfiles matches q as a case-insensitive substring of the symbol,
// company name or sector. A blank query returns every row.
func SearchProfiles(rows []domain.Row, q string) []domain.Row {
	needle := strings.ToLower(strings.TrimSpace(q))
	if needle == "" {
		return rows
	}
	out := make([]domain.Row, 0)
	for _, row := range rows {
		for _, col := range []string{"symbol", "companyName", "sector"} {
			text, _ := domain.Text(row[col])
			if strings.Contains(strings.ToLower(text), needle) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// Slugify lower-cases a word and strips everything but letters and digits
func Slugify(word string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(word) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NameIndex maps company-name and ticker tokens to tickers
type NameIndex map[string]map[string]struct{}

// BuildNameIndex indexes every profile by its name tokens and its ticker
func BuildNameIndex(rows []domain.Row) NameIndex {
	index := make(NameIndex)
	for _, row := range rows {
		name, _ := domain.Text(row["companyName"])
		ticker, _ := domain.Text(row["symbol"])
		name = strings.ToLower(strings.TrimSpace(name))
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		if name == "" && ticker == "" {
			continue
		}
		tokens := make(map[string]struct{})
		for _, part := range strings.Fields(name) {
			if slug := Slugify(part); slug != "" {
				tokens[slug] = struct{}{}
			}
		}
		if slug := Slugify(ticker); slug != "" {
			tokens[slug] = struct{}{}
		}
		for token := range tokens {
			if index[token] == nil {
				index[token] = make(map[string]struct{})
			}
			index[token][ticker] = struct{}{}
		}
	}
	return index
}

// Resolve returns the tickers matching the tokens of name, best match
// first: tickers matching more tokens rank higher, ties alphabetically.
func (idx NameIndex) Resolve(name string) []string {
	hits := make(map[string]int)
	for _, part := range strings.Fields(name) {
		slug := Slugify(part)
		if slug == "" {
			continue
		}
		for ticker := range idx[slug] {
			if ticker != "" {
				hits[ticker]++
			}
		}
	}

	out := make([]string, 0, len(hits))
	for ticker := range hits {
		out = append(out, ticker)
	}
	sort.Slice(out, func(i, j int) bool {
		if hits[out[i]] != hits[out[j]] {
			return hits[out[i]] > hits[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
