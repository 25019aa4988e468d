package schema

import "github.com/aristath/smartwealth/internal/domain"

// Default warehouse table names, overridable through configuration
const (
	DefaultProfilesTable = "nyse_profiles"
	DefaultScoresTable   = "scores"
	DefaultEarningsTable = "earnings_calendar_new"
	DefaultVendorsTable  = "vendor_customer_network"
)

// Tables maps dataset keys to warehouse table names
type Tables map[string]string

func (t Tables) get(key, fallback string) string {
	if name := t[key]; name != "" {
		return name
	}
	return fallback
}

// commonAliases is shared by every dataset. Entries whose target is not a
// column of a given dataset are ignored for that dataset.
var commonAliases = map[string]string{
	"market cap":              "marketCap",
	"market_cap":              "marketCap",
	"market capitalization":   "marketCap",
	"marketcapitalization":    "marketCap",
	"company name":            "companyName",
	"ticker":                  "symbol",
	"share price":             "price",
	"stock price":             "price",
	"price per share":         "price",
	"avg volume":              "averageVolume",
	"average volume":          "averageVolume",
	"volume average":          "averageVolume",
	"avg trading volume":      "averageVolume",
	"trading volume":          "volume",
	"change percent":          "changePercentage",
	"percent change":          "changePercentage",
	"percentage change":       "changePercentage",
	"day change":              "change",
	"price change":            "change",
	"employees":               "fullTimeEmployees",
	"headcount":               "fullTimeEmployees",
	"workforce":               "fullTimeEmployees",
	"employee count":          "fullTimeEmployees",
	"employees count":         "fullTimeEmployees",
	"staff count":             "fullTimeEmployees",
	"workforce size":          "fullTimeEmployees",
	"people":                  "fullTimeEmployees",
	"chief executive":         "ceo",
	"ceo name":                "ceo",
	"chief executive officer": "ceo",
	"leadership":              "ceo",
	"exchange name":           "exchangeFullName",
	"listing":                 "exchangeFullName",
	"listed exchange":         "exchangeFullName",
	"listing venue":           "exchangeFullName",
	"location":                "address",
	"headquarters":            "address",
	"headquarter":             "address",
	"hq":                      "address",
	"office":                  "address",
	"offices":                 "address",
	"corporate office":        "address",
	"main office":             "address",
	"primary location":        "address",
	"campus":                  "address",
	"home base":               "address",
	"address line":            "address",
	"phone number":            "phone",
	"contact number":          "phone",
	"telephone":               "phone",
	"cik number":              "cik",
	"isin number":             "isin",
	"cusip number":            "cusip",
	"ipo":                     "ipoDate",
	"ipo date":                "ipoDate",
	"ipo year":                "ipoDate",
	"ipo listing":             "ipoDate",
	"actively traded":         "isActivelyTrading",
	"actively trading":        "isActivelyTrading",
	"adr":                     "isAdr",
	"etf":                     "isEtf",
	"fund":                    "isFund",
	"image url":               "image",
	"logo":                    "image",
	"picture":                 "image",
	"symbol queried":          "symbol_queried",
	"symbol original":         "symbol_original",
	"summary":                 "description",
	"overview":                "description",
	"webpage":                 "website",
	"link":                    "website",
	"trading range":           "range",
	"52 week range":           "range",
	"52w range":               "range",
	"volatility":              "beta",
	"payout":                  "lastDividend",
	"dividend":                "lastDividend",
	"overall score":           "overall_score",
	"overallscore":            "overall_score",
	"total score":             "overall_score",
	"fundamental score":       "score_fundamentals",
	"quality score":           "score_fundamentals",
	"valuation score":         "score_valuation",
	"value score":             "score_valuation",
	"sentiment score":         "score_sentiment",
	"innovation score":        "score_innovation",
	"innovation":              "score_innovation",
	"macro score":             "score_macro",
	"macro":                   "score_macro",
	"rank":                    "rank_overall",
	"ranking":                 "rank_overall",
	"position":                "rank_overall",
	"score date":              "as_of",
	"last updated":            "as_of",
	"earnings per share":      "eps",
	"reported eps":            "eps",
	"eps estimate":            "epsEstimated",
	"estimated eps":           "epsEstimated",
	"eps forecast":            "epsEstimated",
	"eps estimated":           "epsEstimated",
	"consensus eps":           "consensusEPS",
	"guidance":                "guidanceEPS",
	"earnings guidance":       "guidanceEPS",
	"revenue guidance":        "guidanceRevenue",
	"guidance revenue":        "guidanceRevenue",
	"revenue estimate":        "revenueEstimated",
	"estimated revenue":       "revenueEstimated",
	"revenue forecast":        "revenueEstimated",
	"sales":                   "revenue",
	"top line":                "revenue",
	"session":                 "time_hint",
	"time":                    "time_hint",
	"pre-market":              "time_hint",
	"after hours":             "time_hint",
	"status":                  "eventStatus",
	"event status":            "eventStatus",
	"event type":              "event_type",
	"call":                    "event_type",
	"quarter":                 "period",
	"fiscal period":           "period",
	"contract value":          "est_contract_value_usd_m",
	"deal size":               "est_contract_value_usd_m",
	"relationship strength":   "relationship_strength",
	"relationship score":      "relationship_strength",
	"relationship rating":     "relationship_strength",
	"start year":              "start_year",
	"since":                   "start_year",
	"comment":                 "notes",
	"details":                 "notes",
}

func aliasesWith(extra map[string]string) map[string]string {
	out := make(map[string]string, len(commonAliases)+len(extra))
	for k, v := range commonAliases {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Catalog returns the definitions of the four built-in datasets
func Catalog(tables Tables) []Definition {
	return []Definition{
		profilesDefinition(tables.get(domain.DatasetProfiles, DefaultProfilesTable)),
		scoresDefinition(tables.get(domain.DatasetScores, DefaultScoresTable)),
		earningsDefinition(tables.get(domain.DatasetEarnings, DefaultEarningsTable)),
		vendorsDefinition(tables.get(domain.DatasetVendors, DefaultVendorsTable)),
	}
}

func profilesDefinition(table string) Definition {
	return Definition{
		Key:   domain.DatasetProfiles,
		Table: table,
		Mode:  domain.ModeSQL,
		Allowed: []string{
			"symbol", "companyName", "sector", "industry", "country", "currency",
			"price", "marketCap", "beta", "lastDividend", "change", "changePercentage",
			"volume", "averageVolume", "ceo", "website", "description", "exchangeFullName",
			"exchange", "ipoDate", "fullTimeEmployees", "address", "city", "state", "zip",
			"phone", "cik", "isin", "cusip", "image", "range", "defaultImage", "isEtf",
			"isActivelyTrading", "isAdr", "isFund", "symbol_queried", "symbol_original",
		},
		Numeric: []string{
			"price", "marketCap", "beta", "lastDividend", "change", "changePercentage",
			"volume", "averageVolume", "fullTimeEmployees",
		},
		Currency:       []string{"price", "marketCap", "lastDividend", "change"},
		Percent:        []string{"changePercentage"},
		Date:           []string{"ipoDate"},
		TickerColumn:   "symbol",
		BaseColumns:    []string{"symbol", "companyName"},
		DefaultMetrics: []string{"marketCap", "price"},
		DefaultInclude: []string{"sector", "industry"},
		MaxColumns:     18,
		Labels: map[string]string{
			"symbol":            "Ticker",
			"companyName":       "Company",
			"marketCap":         "Market Cap",
			"price":             "Price",
			"beta":              "Beta",
			"lastDividend":      "Last Dividend",
			"change":            "Change",
			"changePercentage":  "Change %",
			"volume":            "Volume",
			"averageVolume":     "Avg Volume",
			"sector":            "Sector",
			"industry":          "Industry",
			"country":           "Country",
			"currency":          "Currency",
			"ceo":               "CEO",
			"website":           "Website",
			"description":       "Description",
			"exchangeFullName":  "Exchange",
			"exchange":          "Exchange Code",
			"ipoDate":           "IPO Date",
			"fullTimeEmployees": "Employees",
			"address":           "Address",
			"city":              "City",
			"state":             "State",
			"zip":               "ZIP",
			"phone":             "Phone",
			"cik":               "CIK",
			"isin":              "ISIN",
			"cusip":             "CUSIP",
			"image":             "Logo",
			"range":             "52W Range",
			"defaultImage":      "Default Image",
			"isEtf":             "ETF?",
			"isActivelyTrading": "Actively Trading",
			"isAdr":             "ADR?",
			"isFund":            "Fund?",
			"symbol_queried":    "Symbol Queried",
			"symbol_original":   "Symbol Original",
		},
		Aliases: aliasesWith(nil),
	}
}

func scoresDefinition(table string) Definition {
	numeric := []string{
		"px", "ev_ebitda", "score_fundamentals", "score_valuation", "score_sentiment",
		"score_innovation", "score_macro", "overall_score", "rank_overall",
	}
	return Definition{
		Key:            domain.DatasetScores,
		Table:          table,
		Mode:           domain.ModeSQL,
		Allowed:        append([]string{"symbol", "as_of", "sector", "industry"}, numeric...),
		Numeric:        numeric,
		Currency:       []string{"px"},
		Date:           []string{"as_of"},
		TickerColumn:   "symbol",
		BaseColumns:    []string{"symbol", "as_of"},
		DefaultMetrics: []string{"overall_score", "px"},
		DefaultInclude: []string{"sector", "industry"},
		DefaultSort:    &Sort{Column: "overall_score", Direction: Desc},
		MaxColumns:     12,
		Labels: map[string]string{
			"symbol":             "Ticker",
			"as_of":              "As Of",
			"sector":             "Sector",
			"industry":           "Industry",
			"px":                 "Price",
			"ev_ebitda":          "EV/EBITDA",
			"score_fundamentals": "Fundamentals",
			"score_valuation":    "Valuation",
			"score_sentiment":    "Sentiment",
			"score_innovation":   "Innovation",
			"score_macro":        "Macro",
			"overall_score":      "Overall Score",
			"rank_overall":       "Rank",
		},
		Aliases: aliasesWith(map[string]string{
			"price": "px",
			"date":  "as_of",
		}),
	}
}

func earningsDefinition(table string) Definition {
	numeric := []string{
		"estimateEPS", "epsEstimated", "consensusEPS", "eps", "epsActual", "surprise",
		"surprisePercent", "revenue", "revenueEstimate", "revenueEstimated",
		"guidanceEPS", "guidanceRevenue",
	}
	allowed := append([]string{
		"symbol", "company_name", "event_date", "time_hint", "period",
		"fiscalDateEnding", "event_type", "eventStatus",
	}, numeric...)
	return Definition{
		Key:     domain.DatasetEarnings,
		Table:   table,
		Mode:    domain.ModeCache,
		Allowed: allowed,
		Numeric: numeric,
		Currency: []string{
			"estimateEPS", "epsEstimated", "consensusEPS", "eps", "epsActual",
			"revenue", "revenueEstimate", "revenueEstimated", "guidanceEPS", "guidanceRevenue",
		},
		Percent:        []string{"surprisePercent"},
		Date:           []string{"event_date", "fiscalDateEnding"},
		TickerColumn:   "symbol",
		BaseColumns:    []string{"symbol", "company_name", "event_date"},
		DefaultMetrics: []string{"event_date", "epsEstimated"},
		DefaultInclude: []string{"period", "time_hint"},
		DefaultSort:    &Sort{Column: "event_date", Direction: Asc},
		MaxColumns:     12,
		Labels: map[string]string{
			"symbol":           "Ticker",
			"company_name":     "Company",
			"event_date":       "Event Date",
			"time_hint":        "Session",
			"period":           "Period",
			"estimateEPS":      "Est. EPS",
			"epsEstimated":     "Est. EPS",
			"consensusEPS":     "Consensus EPS",
			"eps":              "Reported EPS",
			"epsActual":        "Actual EPS",
			"surprise":         "Surprise",
			"surprisePercent":  "Surprise %",
			"revenue":          "Revenue",
			"revenueEstimate":  "Revenue Est.",
			"revenueEstimated": "Revenue Est.",
			"fiscalDateEnding": "Fiscal Date",
			"event_type":       "Event Type",
			"eventStatus":      "Status",
			"guidanceEPS":      "Guidance EPS",
			"guidanceRevenue":  "Guidance Revenue",
		},
		Aliases: aliasesWith(map[string]string{
			"date":          "event_date",
			"earnings date": "event_date",
			"report date":   "event_date",
			"company":       "company_name",
		}),
	}
}

func vendorsDefinition(table string) Definition {
	return Definition{
		Key:   domain.DatasetVendors,
		Table: table,
		Mode:  domain.ModeCache,
		Allowed: []string{
			"company", "ticker", "relation_type", "counterparty_name", "counterparty_type",
			"tier", "category", "component_or_product", "region", "relationship_strength",
			"est_contract_value_usd_m", "start_year", "notes", "is_dummy",
		},
		Numeric:        []string{"relationship_strength", "est_contract_value_usd_m", "start_year"},
		Currency:       []string{"est_contract_value_usd_m"},
		TickerColumn:   "ticker",
		BaseColumns:    []string{"company", "ticker", "relation_type", "counterparty_name"},
		DefaultMetrics: []string{"relationship_strength", "est_contract_value_usd_m"},
		DefaultInclude: []string{"counterparty_type", "region"},
		DefaultSort:    &Sort{Column: "relationship_strength", Direction: Desc},
		MaxColumns:     12,
		Labels: map[string]string{
			"company":                  "Company",
			"ticker":                   "Ticker",
			"relation_type":            "Relation",
			"counterparty_name":        "Counterparty",
			"counterparty_type":        "Counterparty Type",
			"tier":                     "Tier",
			"category":                 "Category",
			"component_or_product":     "Component/Product",
			"region":                   "Region",
			"relationship_strength":    "Strength",
			"est_contract_value_usd_m": "Contract Value (USDm)",
			"start_year":               "Start Year",
			"notes":                    "Notes",
			"is_dummy":                 "Dummy",
		},
		Aliases: aliasesWith(map[string]string{
			"symbol":       "ticker",
			"counterparty": "counterparty_name",
			"relation":     "relation_type",
			"product":      "component_or_product",
		}),
	}
}
