package projection

import (
	"github.com/aristath/smartwealth/internal/domain"
	"github.com/aristath/smartwealth/internal/modules/plan"
)

// Column describes one table column
type Column struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Format string `json:"format,omitempty"`
}

// Table is the tabular payload. Display holds the formatted rendering of
// Rows, index for index.
type Table struct {
	Columns []Column            `json:"columns"`
	Rows    []domain.Row        `json:"rows"`
	Display []map[string]string `json:"display"`
}

// BuildTable returns nil when the plan does not want a table or there are no rows
func BuildTable(p *plan.Plan, rows []domain.Row) *Table {
	if !p.NeedsTable() || len(rows) == 0 {
		return nil
	}
	s := p.Schema()
	cols := p.FinalColumns()

	t := &Table{Columns: make([]Column, len(cols))}
	for i, col := range cols {
		t.Columns[i] = Column{Key: col, Label: s.Label(col)}
		if s.IsNumeric(col) {
			t.Columns[i].Format = s.FormatHint(col)
		}
	}

	rows = topRows(p, rows)
	t.Rows = make([]domain.Row, len(rows))
	t.Display = make([]map[string]string, len(rows))
	for i, row := range rows {
		t.Rows[i] = row.Project(cols)
		display := make(map[string]string, len(cols))
		for _, col := range cols {
			display[col] = FormatValue(s, col, row[col])
		}
		t.Display[i] = display
	}
	return t
}

func topRows(p *plan.Plan, rows []domain.Row) []domain.Row {
	if len(rows) > p.Limit() {
		return rows[:p.Limit()]
	}
	return rows
}
