// Package query executes validated plans, either as parameterized SQL against
// the warehouse or as an in-memory filter/sort over a cached snapshot.
package query

import (
	"strconv"
	"strings"

	"github.com/aristath/smartwealth/internal/modules/schema"
)

// Dialect describes the SQL flavour of the warehouse
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// keywords collide with column names in the built-in catalogs
var keywords = map[string]struct{}{
	"asc":    {},
	"change": {},
	"desc":   {},
	"group":  {},
	"index":  {},
	"key":    {},
	"limit":  {},
	"order":  {},
	"range":  {},
	"rank":   {},
	"table":  {},
	"values": {},
}

// DialectFor maps a driver name to its dialect, defaulting to SQLite
func DialectFor(driver string) Dialect {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pgx":
		return DialectPostgres
	case "mysql":
		return DialectMySQL
	default:
		return DialectSQLite
	}
}

// placeholder returns the bind marker for the n-th (1-based) argument
func (d Dialect) placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Ident quotes a schema-validated identifier where the dialect needs it.
// Postgres folds unquoted names to lower case, so it always quotes.
func (d Dialect) Ident(name string) string {
	switch d {
	case DialectPostgres:
		return `"` + name + `"`
	case DialectMySQL:
		if _, ok := keywords[strings.ToLower(name)]; ok {
			return "`" + name + "`"
		}
		return name
	default:
		if _, ok := keywords[strings.ToLower(name)]; ok {
			return `"` + name + `"`
		}
		return name
	}
}

// Table quotes each dotted part of a table name
func (d Dialect) Table(name string) string {
	if d != DialectPostgres {
		return name
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.Ident(p)
	}
	return strings.Join(parts, ".")
}

// foldUpper mirrors the dialect's UPPER(). SQLite without ICU folds ASCII only.
func (d Dialect) foldUpper(text string) string {
	if d == DialectSQLite {
		return strings.Map(func(r rune) rune {
			if r >= 'a' && r <= 'z' {
				return r - ('a' - 'A')
			}
			return r
		}, text)
	}
	return strings.ToUpper(text)
}

// foldLower mirrors the dialect's LOWER()
func (d Dialect) foldLower(text string) string {
	if d == DialectSQLite {
		return strings.Map(func(r rune) rune {
			if r >= 'A' && r <= 'Z' {
				return r + ('a' - 'A')
			}
			return r
		}, text)
	}
	return strings.ToLower(text)
}

// numeric renders a numeric column for comparison and ordering. SQLite
// compares TEXT-affinity values as text, so they are cast first.
func (d Dialect) numeric(col string) string {
	if d == DialectSQLite {
		return "CAST(" + col + " AS REAL)"
	}
	return col
}

// orderBy renders one ORDER BY term. Missing values sort first ascending
// and last descending, which is the SQLite and MySQL default.
func (d Dialect) orderBy(s schema.Sort, numeric bool) string {
	term := d.Ident(s.Column)
	if numeric {
		term = d.numeric(term)
	}
	if s.Direction == schema.Asc {
		term += " ASC"
		if d == DialectPostgres {
			term += " NULLS FIRST"
		}
		return term
	}
	term += " DESC"
	if d == DialectPostgres {
		term += " NULLS LAST"
	}
	return term
}
