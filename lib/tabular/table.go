// Package tabular holds the in-memory table passed between the pipeline
// stages: an ordered set of named columns over an ordered list of rows.
// Cell values are one of string, int64 or float64, and every row carries
// exactly one value per declared column.
package tabular

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrNoSuchColumn = errors.New("no such column")
	ErrNotNumeric   = errors.New("value is not numeric")
)

type Column struct {
	Name string
	// Precision is the number of decimal places used to render float cells
	// of this column; -1 renders the shortest exact representation.
	Precision int
}

type Row []any

type Table struct {
	Columns []Column
	Rows    []Row
}

// New returns an empty table with one column per name, rendered at the
// default precision.
func New(names ...string) *Table {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n, Precision: -1}
	}
	return &Table{Columns: cols}
}

func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func (t *Table) AppendRow(row Row) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// AppendColumn adds a column holding one value per existing row.
func (t *Table) AppendColumn(col Column, values []any) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values, table has %d rows", col.Name, len(values), len(t.Rows))
	}
	if t.ColumnIndex(col.Name) >= 0 {
		return fmt.Errorf("column %q already exists", col.Name)
	}
	t.Columns = append(t.Columns, col)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], values[i])
	}
	return nil
}

// NumericColumn returns the values of the named column widened to float64.
func (t *Table) NumericColumn(name string) ([]float64, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchColumn, name)
	}
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		switch v := row[idx].(type) {
		case int64:
			out[i] = float64(v)
		case float64:
			out[i] = v
		default:
			return nil, fmt.Errorf("%w: column %q row %d holds %q", ErrNotNumeric, name, i, fmt.Sprint(v))
		}
	}
	return out, nil
}

var thousandsGroups = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// Coerce converts cell text to int64 or float64 when the entire string
// parses as a number, the way pandas reads HTML tables: well-formed comma
// thousands groups count as numeric. Anything else stays text.
func Coerce(text string) any {
	s := strings.TrimSpace(text)
	if s == "" {
		return text
	}
	if thousandsGroups.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return text
}

func formatCell(v any, precision int) string {
	switch v := v.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', precision, 64)
	default:
		return fmt.Sprint(v)
	}
}
