// Package domain provides core domain models and types shared by the query engine.
package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Dataset keys known to the engine.
const (
	DatasetProfiles = "profiles"
	DatasetScores   = "scores"
	DatasetEarnings = "earnings"
	DatasetVendors  = "vendors"
)

// DefaultDataset is used whenever an intent names no dataset or an unknown one.
const DefaultDataset = DatasetProfiles

// ExecutionMode selects how a dataset is queried.
type ExecutionMode string

const (
	// ModeSQL queries the live warehouse with a parameterized statement
	ModeSQL ExecutionMode = "sql"
	// ModeCache filters and sorts an in-memory snapshot
	ModeCache ExecutionMode = "cache"
)

// DateLayout is the ISO date format used for every date value the engine emits.
const DateLayout = "2006-01-02"

// Row is a single untyped record keyed by column name.
type Row map[string]interface{}

// Project returns a new row holding only the given columns.
// Columns absent from the source row are present with a nil value.
func (r Row) Project(columns []string) Row {
	out := make(Row, len(columns))
	for _, col := range columns {
		out[col] = r[col]
	}
	return out
}

// Float converts a row value to a finite float64.
// Numeric kinds, json.Number and numeric strings convert; bools, nil and
// anything non-finite do not.
func Float(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case []byte:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Text renders a row value as a string. The second result is false for nil.
// Times render as ISO dates.
func Text(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case []byte:
		return string(t), true
	case time.Time:
		return t.Format(DateLayout), true
	case *time.Time:
		if t == nil {
			return "", false
		}
		return t.Format(DateLayout), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}
