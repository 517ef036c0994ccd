package tabular

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Render writes the table to w as a rounded-style text table.
func Render(w io.Writer, t *Table) {
	pretty := table.NewWriter()
	pretty.SetStyle(table.StyleRounded)
	pretty.SetOutputMirror(w)

	header := make(table.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Name
	}
	pretty.AppendHeader(header)

	for _, row := range t.Rows {
		rendered := make(table.Row, len(row))
		for i, cell := range row {
			rendered[i] = formatCell(cell, t.Columns[i].Precision)
		}
		pretty.AppendRow(rendered)
	}
	pretty.Render()
}
