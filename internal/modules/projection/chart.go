package projection

import (
	"fmt"

	"github.com/aristath/smartwealth/internal/domain"
	"github.com/aristath/smartwealth/internal/modules/plan"
	"github.com/aristath/smartwealth/internal/modules/schema"
)

// Chart types
const (
	ChartScatter = "scatter"
	ChartBar     = "bar"
)

const (
	breakdownMetric = "multi"
	maxBreakdown    = 4
)

// AxisFormats carries per-axis format hints for scatter charts
type AxisFormats struct {
	X    string  `json:"x"`
	Y    string  `json:"y"`
	Size *string `json:"size"`
}

// ScatterPoint is one scatter chart point
type ScatterPoint struct {
	Label string   `json:"label"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Size  *float64 `json:"size,omitempty"`
}

// BarPoint is one bar; Key is set for metric breakdowns
type BarPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Key   string  `json:"key,omitempty"`
}

// Chart is the chart payload. Format is an AxisFormats for scatter charts
// and a format string for bar charts; Data is []ScatterPoint or []BarPoint.
type Chart struct {
	Type    string      `json:"type"`
	Title   string      `json:"title"`
	XKey    string      `json:"xKey,omitempty"`
	YKey    string      `json:"yKey,omitempty"`
	SizeKey string      `json:"sizeKey,omitempty"`
	Metric  string      `json:"metric,omitempty"`
	Format  interface{} `json:"format"`
	Data    interface{} `json:"data"`
}

var labelCandidates = []string{"symbol", "companyName", "company", "company_name", "counterparty_name", "period"}

var titleCandidates = []string{"symbol", "companyName", "company", "company_name"}

// BuildChart picks the first chart shape that yields at least two data
// points: a scatter of the first two numeric metrics, a bar comparison of
// the first numeric metric, or a single-row metric breakdown.
func BuildChart(p *plan.Plan, rows []domain.Row) *Chart {
	if len(rows) == 0 {
		return nil
	}
	numeric := p.NumericMetrics()
	triggered := p.NeedsChart() || len(p.Tickers()) >= 2 || (len(numeric) >= 2 && len(rows) == 1)
	if !triggered || len(numeric) == 0 {
		return nil
	}

	s := p.Schema()
	top := topRows(p, rows)
	labels := make([]string, len(top))
	for i, row := range top {
		labels[i] = firstText(row, s.TickerColumn(), labelCandidates)
		if labels[i] == "" {
			labels[i] = fmt.Sprintf("Item %d", i+1)
		}
	}

	if len(numeric) >= 2 && len(top) >= 2 {
		if chart := scatter(s, numeric, top, labels); chart != nil {
			return chart
		}
	}
	if chart := comparison(s, numeric[0], top, labels); chart != nil {
		return chart
	}
	if len(top) == 1 && len(numeric) >= 2 {
		return breakdown(s, numeric, top[0])
	}
	return nil
}

func scatter(s *schema.Schema, numeric []string, rows []domain.Row, labels []string) *Chart {
	x, y := numeric[0], numeric[1]
	var size string
	if len(numeric) >= 3 {
		size = numeric[2]
	}

	points := make([]ScatterPoint, 0, len(rows))
	for i, row := range rows {
		xv, okX := number(row[x])
		yv, okY := number(row[y])
		if !okX || !okY {
			continue
		}
		pt := ScatterPoint{Label: labels[i], X: xv, Y: yv}
		if size != "" {
			if sv, ok := number(row[size]); ok {
				pt.Size = &sv
			}
		}
		points = append(points, pt)
	}
	if len(points) < 2 {
		return nil
	}

	formats := AxisFormats{X: s.FormatHint(x), Y: s.FormatHint(y)}
	if size != "" && s.Kind(size) == schema.KindCurrency {
		hint := schema.FormatCurrency
		formats.Size = &hint
	}
	return &Chart{
		Type:    ChartScatter,
		Title:   fmt.Sprintf("%s vs %s", s.Label(x), s.Label(y)),
		XKey:    x,
		YKey:    y,
		SizeKey: size,
		Format:  formats,
		Data:    points,
	}
}

func comparison(s *schema.Schema, metric string, rows []domain.Row, labels []string) *Chart {
	bars := make([]BarPoint, 0, len(rows))
	for i, row := range rows {
		if v, ok := number(row[metric]); ok {
			bars = append(bars, BarPoint{Label: labels[i], Value: v})
		}
	}
	if len(bars) < 2 {
		return nil
	}
	return &Chart{
		Type:   ChartBar,
		Title:  s.Label(metric) + " comparison",
		Metric: metric,
		Format: s.FormatHint(metric),
		Data:   bars,
	}
}

func breakdown(s *schema.Schema, numeric []string, row domain.Row) *Chart {
	if len(numeric) > maxBreakdown {
		numeric = numeric[:maxBreakdown]
	}
	bars := make([]BarPoint, 0, len(numeric))
	for _, metric := range numeric {
		if v, ok := number(row[metric]); ok {
			bars = append(bars, BarPoint{Label: s.Label(metric), Value: v, Key: metric})
		}
	}
	if len(bars) < 2 {
		return nil
	}
	title := firstText(row, s.TickerColumn(), titleCandidates)
	if title == "" {
		title = "Company"
	}
	return &Chart{
		Type:   ChartBar,
		Title:  title + " - metric breakdown",
		Metric: breakdownMetric,
		Format: schema.FormatNumber,
		Data:   bars,
	}
}

// number accepts numeric values only; numeric strings are not chart data
func number(v interface{}) (float64, bool) {
	switch v.(type) {
	case nil, bool, string, []byte:
		return 0, false
	}
	return domain.Float(v)
}

func firstText(row domain.Row, first string, candidates []string) string {
	if first != "" {
		if text, ok := domain.Text(row[first]); ok && text != "" {
			return text
		}
	}
	for _, col := range candidates {
		if text, ok := domain.Text(row[col]); ok && text != "" {
			return text
		}
	}
	return ""
}
