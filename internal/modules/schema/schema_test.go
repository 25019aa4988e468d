package schema

import (
	"testing"

	"github.com/aristath/smartwealth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewDefaultRegistry(nil)
	require.NoError(t, err)
	return reg
}

func TestResolveColumn_Aliases(t *testing.T) {
	profiles := newTestRegistry(t).Lookup(domain.DatasetProfiles)

	a, ok := profiles.ResolveColumn("market cap")
	require.True(t, ok)
	b, ok := profiles.ResolveColumn("Market Cap")
	require.True(t, ok)
	c, ok := profiles.ResolveColumn("  MARKET CAP ")
	require.True(t, ok)

	assert.Equal(t, "marketCap", a)
	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestResolveColumn_DirectMatch(t *testing.T) {
	reg := newTestRegistry(t)
	profiles := reg.Lookup(domain.DatasetProfiles)

	col, ok := profiles.ResolveColumn("MARKETCAP")
	assert.True(t, ok)
	assert.Equal(t, "marketCap", col)

	col, ok = profiles.ResolveColumn("ticker")
	assert.True(t, ok)
	assert.Equal(t, "symbol", col)
}

func TestResolveColumn_AliasOutsideDatasetFallsBackToDirectMatch(t *testing.T) {
	vendors := newTestRegistry(t).Lookup(domain.DatasetVendors)

	// "ticker" aliases to symbol elsewhere, but vendors has its own ticker column
	col, ok := vendors.ResolveColumn("Ticker")
	assert.True(t, ok)
	assert.Equal(t, "ticker", col)

	col, ok = vendors.ResolveColumn("symbol")
	assert.True(t, ok)
	assert.Equal(t, "ticker", col)

	// marketCap belongs to profiles only
	_, ok = vendors.ResolveColumn("market cap")
	assert.False(t, ok)
}

func TestResolveColumn_Unresolvable(t *testing.T) {
	profiles := newTestRegistry(t).Lookup(domain.DatasetProfiles)

	for _, name := range []string{"", "   ", "no such column", "symbol; DROP TABLE x", "\x00"} {
		col, ok := profiles.ResolveColumn(name)
		assert.False(t, ok, name)
		assert.Empty(t, col, name)
	}
}

func TestSchema_Kinds(t *testing.T) {
	reg := newTestRegistry(t)
	profiles := reg.Lookup(domain.DatasetProfiles)
	earnings := reg.Lookup(domain.DatasetEarnings)

	assert.Equal(t, KindCurrency, profiles.Kind("marketCap"))
	assert.Equal(t, KindPercent, profiles.Kind("changePercentage"))
	assert.Equal(t, KindNumeric, profiles.Kind("beta"))
	assert.Equal(t, KindDate, profiles.Kind("ipoDate"))
	assert.Equal(t, KindText, profiles.Kind("sector"))

	assert.True(t, profiles.IsNumeric("marketCap"))
	assert.True(t, profiles.IsText("sector"))
	assert.False(t, profiles.IsText("nope"))
	assert.Equal(t, FormatCurrency, profiles.FormatHint("price"))
	assert.Equal(t, FormatPercent, earnings.FormatHint("surprisePercent"))
	assert.Equal(t, FormatNumber, earnings.FormatHint("surprise"))
	assert.True(t, earnings.IsDate("event_date"))
}

func TestSchema_Labels(t *testing.T) {
	profiles := newTestRegistry(t).Lookup(domain.DatasetProfiles)

	assert.Equal(t, "Market Cap", profiles.Label("marketCap"))
	assert.Equal(t, "unlabelled", profiles.Label("unlabelled"))
}

func TestSchema_AccessorsReturnCopies(t *testing.T) {
	profiles := newTestRegistry(t).Lookup(domain.DatasetProfiles)

	base := profiles.BaseColumns()
	base[0] = "mutated"

	assert.Equal(t, []string{"symbol", "companyName"}, profiles.BaseColumns())
}

func TestNew_ValidatesSubsets(t *testing.T) {
	valid := Definition{
		Key:         "things",
		Table:       "things",
		Mode:        domain.ModeSQL,
		Allowed:     []string{"id", "amount"},
		Numeric:     []string{"amount"},
		BaseColumns: []string{"id"},
		MaxColumns:  4,
	}
	_, err := New(valid)
	require.NoError(t, err)

	testCases := []struct {
		name   string
		mutate func(d *Definition)
	}{
		{"numeric not allowed", func(d *Definition) { d.Numeric = []string{"missing"} }},
		{"ticker not allowed", func(d *Definition) { d.TickerColumn = "missing" }},
		{"base not allowed", func(d *Definition) { d.BaseColumns = []string{"missing"} }},
		{"sort not allowed", func(d *Definition) { d.DefaultSort = &Sort{Column: "missing"} }},
		{"label not allowed", func(d *Definition) { d.Labels = map[string]string{"missing": "M"} }},
		{"bad table name", func(d *Definition) { d.Table = "things; DROP" }},
		{"sql without table", func(d *Definition) { d.Table = "" }},
		{"bad mode", func(d *Definition) { d.Mode = "stream" }},
		{"zero max columns", func(d *Definition) { d.MaxColumns = 0 }},
		{"case collision", func(d *Definition) { d.Allowed = []string{"id", "ID"} }},
		{"date and numeric", func(d *Definition) { d.Date = []string{"amount"} }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			def := valid
			tc.mutate(&def)
			_, err := New(def)
			require.Error(t, err)
			var cfgErr *domain.ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestRegistry_LookupDefaultsToProfiles(t *testing.T) {
	reg := newTestRegistry(t)

	assert.Equal(t, domain.DatasetProfiles, reg.Lookup("").Key())
	assert.Equal(t, domain.DatasetProfiles, reg.Lookup("unknown").Key())
	assert.Equal(t, domain.DatasetScores, reg.Lookup(" Scores ").Key())

	_, ok := reg.Get("unknown")
	assert.False(t, ok)
}

func TestRegistry_Modes(t *testing.T) {
	reg := newTestRegistry(t)

	var cacheKeys []string
	for _, s := range reg.ByMode(domain.ModeCache) {
		cacheKeys = append(cacheKeys, s.Key())
	}
	assert.Equal(t, []string{domain.DatasetEarnings, domain.DatasetVendors}, cacheKeys)
	assert.Equal(t, []string{"profiles", "scores", "earnings", "vendors"}, reg.Keys())
}

func TestRegistry_TableOverrides(t *testing.T) {
	reg, err := NewDefaultRegistry(Tables{domain.DatasetProfiles: "warehouse.gold.profiles"})
	require.NoError(t, err)

	assert.Equal(t, "warehouse.gold.profiles", reg.Lookup(domain.DatasetProfiles).Table())
	assert.Equal(t, DefaultScoresTable, reg.Lookup(domain.DatasetScores).Table())
}

func TestRegistry_RequiresDefaultDataset(t *testing.T) {
	defs := Catalog(nil)[1:]
	_, err := NewRegistry(defs...)
	require.Error(t, err)
}

func TestDescribe(t *testing.T) {
	scores := newTestRegistry(t).Lookup(domain.DatasetScores)

	d := scores.Describe()
	assert.Equal(t, "scores", d.Key)
	require.NotNil(t, d.DefaultSort)
	assert.Equal(t, Sort{Column: "overall_score", Direction: Desc}, *d.DefaultSort)
	assert.Len(t, d.Columns, 13)
}
