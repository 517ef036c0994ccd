package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// WriteCSV serializes the table to path, overwriting any existing file.
// The first line holds the column names; every later line holds one row
// with cells rendered at the column precision.
func WriteCSV(t *Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write csv %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.ColumnNames()); err != nil {
		f.Close()
		return fmt.Errorf("write csv %s: %w", path, err)
	}
	for _, row := range t.Rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = formatCell(cell, t.Columns[i].Precision)
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return fmt.Errorf("write csv %s: %w", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write csv %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write csv %s: %w", path, err)
	}
	return nil
}

// ReadCSV parses a file written by WriteCSV back into a table, re-coercing
// cells to their scalar types.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read csv %s: file is empty", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}

	t := New(header...)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv %s: %w", path, err)
		}
		row := make(Row, len(record))
		for i, cell := range record {
			row[i] = Coerce(cell)
		}
		if err := t.AppendRow(row); err != nil {
			return nil, fmt.Errorf("read csv %s: %w", path, err)
		}
	}
	return t, nil
}
