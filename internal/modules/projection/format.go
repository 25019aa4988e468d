// Package projection turns executed rows into table and chart payloads.
package projection

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/aristath/smartwealth/internal/domain"
	"github.com/aristath/smartwealth/internal/modules/schema"
)

const groupedFormat = "#,###.##"

// FormatValue renders a value for display using the column's kind.
// Percent columns get two decimals and a % sign, currency columns a $ sign
// with B/M/K suffixes, other numbers two grouped decimals. Non-numeric
// values are rendered as text and nil as an empty string.
func FormatValue(s *schema.Schema, col string, v interface{}) string {
	if _, isBool := v.(bool); !isBool {
		if num, ok := domain.Float(v); ok {
			switch s.Kind(col) {
			case schema.KindPercent:
				return fmt.Sprintf("%.2f%%", num)
			case schema.KindCurrency:
				return formatCurrency(num)
			case schema.KindNumeric:
				return humanize.FormatFloat(groupedFormat, num)
			}
		}
	}
	text, _ := domain.Text(v)
	return text
}

func formatCurrency(num float64) string {
	sign := ""
	if num < 0 {
		sign = "-"
	}
	abs := math.Abs(num)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%s$%.2fB", sign, abs/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%s$%.2fM", sign, abs/1e6)
	case abs >= 1e4:
		return fmt.Sprintf("%s$%.1fK", sign, abs/1e3)
	default:
		return sign + "$" + humanize.FormatFloat(groupedFormat, abs)
	}
}
