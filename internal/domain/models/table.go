package models

import (
	"math"
	"time"
)

// PeriodColumn identifies one reporting period of a statement table.
// End is the period end date when the upstream supplies one; Label is the
// raw column label and is used when End is unknown.
type PeriodColumn struct {
	End   time.Time
	Label string
}

// ISO returns the period label as an ISO calendar date, falling back to the
// raw label truncated to 10 characters.
func (p PeriodColumn) ISO() string {
	if !p.End.IsZero() {
		return p.End.Format("2006-01-02")
	}
	if len(p.Label) > 10 {
		return p.Label[:10]
	}
	return p.Label
}

// StatementTable is a raw financial statement as returned by the upstream
// provider: named line items by reporting period, most recent period first.
// Absent cells are stored as NaN; Value never leaks them out.
type StatementTable struct {
	Columns []PeriodColumn
	Rows    map[string][]float64
}

// NewStatementTable creates an empty table for the given periods.
func NewStatementTable(cols []PeriodColumn) *StatementTable {
	return &StatementTable{Columns: cols, Rows: make(map[string][]float64)}
}

// SetCell stores a value for (row, col), growing the row as needed.
func (t *StatementTable) SetCell(row string, col int, v float64) {
	if col < 0 || col >= len(t.Columns) {
		return
	}
	cells, ok := t.Rows[row]
	if !ok {
		cells = make([]float64, len(t.Columns))
		for i := range cells {
			cells[i] = math.NaN()
		}
		t.Rows[row] = cells
	}
	cells[col] = v
}

// Empty reports whether the table holds no usable data.
func (t *StatementTable) Empty() bool {
	return t == nil || len(t.Columns) == 0 || len(t.Rows) == 0
}

// NumPeriods returns the number of reporting periods.
func (t *StatementTable) NumPeriods() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// Value returns the cell at (row, col) if present and finite.
// Missing rows, out-of-range columns and NaN/Inf cells all degrade to
// (0, false) rather than an error.
func (t *StatementTable) Value(row string, col int) (float64, bool) {
	if t == nil || col < 0 || col >= len(t.Columns) {
		return 0, false
	}
	cells, ok := t.Rows[row]
	if !ok || col >= len(cells) {
		return 0, false
	}
	v := cells[col]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Latest returns the most recent period's value for row.
func (t *StatementTable) Latest(row string) (float64, bool) {
	return t.Value(row, 0)
}

// RowValues returns the finite values of a row in column order
// (most recent first), skipping absent cells.
func (t *StatementTable) RowValues(row string) []float64 {
	if t == nil {
		return nil
	}
	cells, ok := t.Rows[row]
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(cells))
	for _, v := range cells {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// InfoRecord is a scalar key/value record (the upstream "info" blob).
type InfoRecord map[string]any

// Empty reports whether the record holds no data.
func (r InfoRecord) Empty() bool { return len(r) == 0 }

// Float returns the value for key when it is present, numeric and finite.
func (r InfoRecord) Float(key string) (float64, bool) {
	if r == nil {
		return 0, false
	}
	raw, ok := r[key]
	if !ok || raw == nil {
		return 0, false
	}
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// String returns the value for key when it is a non-empty string.
func (r InfoRecord) String(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	s, ok := r[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// KeyedTable is a record-of-records container: named rows of scalar fields
// (analyst estimates keyed by "Current Year"/"Next Year", earnings history
// keyed by quarter, price target summaries).
type KeyedTable map[string]InfoRecord

// Empty reports whether the table holds no rows.
func (t KeyedTable) Empty() bool { return len(t) == 0 }

// Row returns the named row; missing rows yield a nil record whose
// accessors all report absent.
func (t KeyedTable) Row(name string) InfoRecord {
	if t == nil {
		return nil
	}
	return t[name]
}

// Float returns a field of a named row if present and finite.
func (t KeyedTable) Float(row, field string) (float64, bool) {
	return t.Row(row).Float(field)
}

// PricePoint is one close observation of a historical price series.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is a time-ordered (oldest first) close price history.
type PriceSeries struct {
	Points []PricePoint
}

// Empty reports whether the series holds no observations.
func (s *PriceSeries) Empty() bool { return s == nil || len(s.Points) == 0 }

// Performance returns the percentage change from the first to the last
// observation.
func (s *PriceSeries) Performance() (float64, bool) {
	if s.Empty() || len(s.Points) < 2 {
		return 0, false
	}
	first := s.Points[0].Close
	last := s.Points[len(s.Points)-1].Close
	if first == 0 || math.IsNaN(first) || math.IsNaN(last) {
		return 0, false
	}
	return (last - first) / first * 100, true
}
