package tabular

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVRoundTrip(t *testing.T) {
	tbl := New("Rank", "Bank name", "Market cap (US$ billion)")
	require.NoError(t, tbl.AppendRow(Row{int64(1), "ExampleBank", 432.92}))
	require.NoError(t, tbl.AppendRow(Row{int64(2), "OtherBank", 231.52}))
	require.NoError(t, tbl.AppendColumn(
		Column{Name: "MC_GBP_Billion", Precision: 2},
		[]any{346.34, 185.22},
	))

	path := filepath.Join(t.TempDir(), "banks.csv")
	require.NoError(t, WriteCSV(tbl, path))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	require.Equal(t, tbl.ColumnNames(), got.ColumnNames())
	require.Equal(t, tbl.Rows, got.Rows)
}

func TestWriteCSVPrecision(t *testing.T) {
	tbl := New("Name")
	require.NoError(t, tbl.AppendRow(Row{"ExampleBank"}))
	require.NoError(t, tbl.AppendColumn(Column{Name: "MC_EUR_Billion", Precision: 2}, []any{93.0}))

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteCSV(tbl, path))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Name,MC_EUR_Billion\nExampleBank,93.00\n", string(contents))
}

func TestReadCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := ReadCSV(path)
	require.Error(t, err)
}
