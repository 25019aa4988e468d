// Package schema provides the static per-dataset column catalogs used to bind and validate query plans.
package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/aristath/smartwealth/internal/domain"
)

// Kind classifies a column for filter coercion and display formatting
type Kind string

const (
	KindText     Kind = "text"
	KindNumeric  Kind = "numeric"
	KindCurrency Kind = "currency"
	KindPercent  Kind = "percent"
	KindDate     Kind = "date"
)

// Format hints attached to chart axes
const (
	FormatNumber   = "number"
	FormatCurrency = "currency"
	FormatPercent  = "percent"
)

// Direction is a sort direction
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort is a column/direction pair
type Sort struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}

// Definition is the mutable input used to build a Schema
type Definition struct {
	Key            string
	Table          string
	Mode           domain.ExecutionMode
	Allowed        []string
	Numeric        []string
	Currency       []string
	Percent        []string
	Date           []string
	TickerColumn   string
	BaseColumns    []string
	DefaultMetrics []string
	DefaultInclude []string
	DefaultSort    *Sort
	MaxColumns     int
	Labels         map[string]string
	Aliases        map[string]string
}

// Schema is an immutable dataset descriptor.
// All accessors return copies; a Schema is safe for concurrent use.
type Schema struct {
	key            string
	table          string
	mode           domain.ExecutionMode
	allowed        map[string]struct{}
	columns        []string
	byLower        map[string]string
	kinds          map[string]Kind
	tickerColumn   string
	baseColumns    []string
	defaultMetrics []string
	defaultInclude []string
	defaultSort    *Sort
	maxColumns     int
	labels         map[string]string
	aliases        map[string]string
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// New validates a definition and builds a Schema from it
func New(def Definition) (*Schema, error) {
	key := strings.ToLower(strings.TrimSpace(def.Key))
	if key == "" {
		return nil, &domain.ConfigError{Field: "schema.key", Reason: "must not be empty"}
	}
	fail := func(field, format string, args ...interface{}) error {
		return &domain.ConfigError{Field: key + "." + field, Reason: fmt.Sprintf(format, args...)}
	}

	switch def.Mode {
	case domain.ModeSQL, domain.ModeCache:
	default:
		return nil, fail("mode", "unsupported execution mode %q", def.Mode)
	}
	if def.Table != "" && !tableNamePattern.MatchString(def.Table) {
		return nil, fail("table", "invalid table name %q", def.Table)
	}
	if def.Mode == domain.ModeSQL && def.Table == "" {
		return nil, fail("table", "required for sql mode")
	}
	if def.MaxColumns < 1 {
		return nil, fail("max_columns", "must be positive, got %d", def.MaxColumns)
	}
	if len(def.Allowed) == 0 {
		return nil, fail("allowed", "no columns")
	}

	s := &Schema{
		key:          key,
		table:        def.Table,
		mode:         def.Mode,
		allowed:      make(map[string]struct{}, len(def.Allowed)),
		byLower:      make(map[string]string, len(def.Allowed)),
		kinds:        make(map[string]Kind, len(def.Allowed)),
		tickerColumn: def.TickerColumn,
		maxColumns:   def.MaxColumns,
		labels:       make(map[string]string, len(def.Labels)),
		aliases:      make(map[string]string, len(def.Aliases)),
	}

	for _, col := range def.Allowed {
		if !tableNamePattern.MatchString(col) || strings.Contains(col, ".") {
			return nil, fail("allowed", "invalid column name %q", col)
		}
		lower := strings.ToLower(col)
		if prev, ok := s.byLower[lower]; ok {
			return nil, fail("allowed", "columns %q and %q collide case-insensitively", prev, col)
		}
		s.allowed[col] = struct{}{}
		s.byLower[lower] = col
		s.columns = append(s.columns, col)
		s.kinds[col] = KindText
	}
	sort.Strings(s.columns)

	subset := func(field string, cols []string) error {
		for _, col := range cols {
			if _, ok := s.allowed[col]; !ok {
				return fail(field, "column %q is not allowed", col)
			}
		}
		return nil
	}

	// Later sets win: percent and currency override plain numeric.
	for _, set := range []struct {
		field string
		cols  []string
		kind  Kind
	}{
		{"date", def.Date, KindDate},
		{"numeric", def.Numeric, KindNumeric},
		{"currency", def.Currency, KindCurrency},
		{"percent", def.Percent, KindPercent},
	} {
		if err := subset(set.field, set.cols); err != nil {
			return nil, err
		}
		for _, col := range set.cols {
			if set.kind != KindDate && s.kinds[col] == KindDate {
				return nil, fail(set.field, "column %q is already a date column", col)
			}
			s.kinds[col] = set.kind
		}
	}

	if def.TickerColumn != "" {
		if err := subset("ticker_column", []string{def.TickerColumn}); err != nil {
			return nil, err
		}
	}
	for _, check := range []struct {
		field string
		cols  []string
	}{
		{"base_columns", def.BaseColumns},
		{"default_metrics", def.DefaultMetrics},
		{"default_include", def.DefaultInclude},
	} {
		if err := subset(check.field, check.cols); err != nil {
			return nil, err
		}
	}
	if len(def.BaseColumns) > def.MaxColumns {
		return nil, fail("base_columns", "%d base columns exceed max_columns %d", len(def.BaseColumns), def.MaxColumns)
	}
	s.baseColumns = dedupe(def.BaseColumns)
	s.defaultMetrics = dedupe(def.DefaultMetrics)
	s.defaultInclude = dedupe(def.DefaultInclude)

	if def.DefaultSort != nil {
		if err := subset("default_sort", []string{def.DefaultSort.Column}); err != nil {
			return nil, err
		}
		dir := def.DefaultSort.Direction
		if dir != Asc {
			dir = Desc
		}
		s.defaultSort = &Sort{Column: def.DefaultSort.Column, Direction: dir}
	}

	for col, label := range def.Labels {
		if err := subset("labels", []string{col}); err != nil {
			return nil, err
		}
		s.labels[col] = label
	}

	// Aliases pointing outside this dataset are skipped so they never
	// shadow a direct column match.
	for alias, target := range def.Aliases {
		name := strings.ToLower(strings.TrimSpace(alias))
		if name == "" {
			continue
		}
		if _, ok := s.allowed[target]; !ok {
			continue
		}
		s.aliases[name] = target
	}

	return s, nil
}

func dedupe(cols []string) []string {
	out := make([]string, 0, len(cols))
	seen := make(map[string]struct{}, len(cols))
	for _, col := range cols {
		if _, ok := seen[col]; ok {
			continue
		}
		seen[col] = struct{}{}
		out = append(out, col)
	}
	return out
}

// ResolveColumn maps a user-supplied name to an allowed column.
// The alias table is consulted first, then a case-insensitive direct match.
func (s *Schema) ResolveColumn(name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", false
	}
	if target, ok := s.aliases[key]; ok {
		return target, true
	}
	col, ok := s.byLower[key]
	return col, ok
}

// Allows reports whether col is an allowed column (exact match)
func (s *Schema) Allows(col string) bool {
	_, ok := s.allowed[col]
	return ok
}

// Kind returns the classification of col; unknown columns are text
func (s *Schema) Kind(col string) Kind {
	if k, ok := s.kinds[col]; ok {
		return k
	}
	return KindText
}

// IsNumeric reports whether col is numeric, currency or percent
func (s *Schema) IsNumeric(col string) bool {
	switch s.Kind(col) {
	case KindNumeric, KindCurrency, KindPercent:
		return true
	}
	return false
}

// IsDate reports whether col is a date column
func (s *Schema) IsDate(col string) bool {
	return s.Kind(col) == KindDate
}

// IsText reports whether col is an allowed column outside every typed set
func (s *Schema) IsText(col string) bool {
	return s.Allows(col) && s.Kind(col) == KindText
}

// FormatHint returns the display format for a numeric column
func (s *Schema) FormatHint(col string) string {
	switch s.Kind(col) {
	case KindCurrency:
		return FormatCurrency
	case KindPercent:
		return FormatPercent
	default:
		return FormatNumber
	}
}

// Label returns the display label for col, falling back to the column name
func (s *Schema) Label(col string) string {
	if label, ok := s.labels[col]; ok && label != "" {
		return label
	}
	return col
}

func (s *Schema) Key() string                { return s.key }
func (s *Schema) Table() string              { return s.table }
func (s *Schema) Mode() domain.ExecutionMode { return s.mode }
func (s *Schema) TickerColumn() string       { return s.tickerColumn }
func (s *Schema) MaxColumns() int            { return s.maxColumns }
func (s *Schema) Columns() []string          { return append([]string(nil), s.columns...) }
func (s *Schema) BaseColumns() []string      { return append([]string(nil), s.baseColumns...) }
func (s *Schema) DefaultMetrics() []string   { return append([]string(nil), s.defaultMetrics...) }
func (s *Schema) DefaultInclude() []string   { return append([]string(nil), s.defaultInclude...) }

// DefaultSort returns the dataset's default ordering, if any
func (s *Schema) DefaultSort() (Sort, bool) {
	if s.defaultSort == nil {
		return Sort{}, false
	}
	return *s.defaultSort, true
}

// ColumnInfo describes a single column for catalog listings
type ColumnInfo struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Kind  Kind   `json:"kind"`
}

// Descriptor is the serialisable view of a Schema
type Descriptor struct {
	Key            string               `json:"key"`
	Mode           domain.ExecutionMode `json:"mode"`
	TickerColumn   string               `json:"ticker_column,omitempty"`
	BaseColumns    []string             `json:"base_columns"`
	DefaultMetrics []string             `json:"default_metrics"`
	DefaultInclude []string             `json:"default_include"`
	DefaultSort    *Sort                `json:"default_sort,omitempty"`
	MaxColumns     int                  `json:"max_columns"`
	Columns        []ColumnInfo         `json:"columns"`
}

// Describe returns the catalog view of the schema. The table name is omitted.
func (s *Schema) Describe() Descriptor {
	d := Descriptor{
		Key:            s.key,
		Mode:           s.mode,
		TickerColumn:   s.tickerColumn,
		BaseColumns:    s.BaseColumns(),
		DefaultMetrics: s.DefaultMetrics(),
		DefaultInclude: s.DefaultInclude(),
		MaxColumns:     s.maxColumns,
		Columns:        make([]ColumnInfo, 0, len(s.columns)),
	}
	if ds, ok := s.DefaultSort(); ok {
		d.DefaultSort = &ds
	}
	for _, col := range s.columns {
		d.Columns = append(d.Columns, ColumnInfo{Name: col, Label: s.Label(col), Kind: s.Kind(col)})
	}
	return d
}
