package query

import (
	"time"

	"github.com/aristath/smartwealth/internal/domain"
	"github.com/aristath/smartwealth/internal/modules/schema"
)

// Normalize converts values to the shapes callers rely on regardless of
// source: numeric columns become float64 where convertible, date columns
// become ISO date strings and byte slices become strings. The row is
// modified in place and returned.
func Normalize(s *schema.Schema, row domain.Row) domain.Row {
	for col, v := range row {
		switch {
		case v == nil:
		case s.IsNumeric(col):
			if _, isBool := v.(bool); isBool {
				continue
			}
			if f, ok := domain.Float(v); ok {
				row[col] = f
			}
		case s.IsDate(col):
			switch t := v.(type) {
			case time.Time:
				row[col] = t.Format(domain.DateLayout)
			case []byte:
				row[col] = string(t)
			}
		default:
			if b, ok := v.([]byte); ok {
				row[col] = string(b)
			}
		}
	}
	return row
}
