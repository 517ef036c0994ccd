package etl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bankcap-etl/lib/fetch"
	"bankcap-etl/lib/htmltable"
	"bankcap-etl/lib/sqliteutil"
	"bankcap-etl/lib/tabular"
	"bankcap-etl/lib/telemetry"
	"bankcap-etl/lib/testutil"

	"github.com/stretchr/testify/require"
)

const banksPage = `<!DOCTYPE html>
<html>
<body>
<h2><span class="mw-headline">By market capitalization</span></h2>
<table class="wikitable">
<tr><th>Rank</th><th>Bank name</th><th>Market cap (US$ billion)</th></tr>
<tr><td>1</td><td><a href="/wiki/ExampleBank">ExampleBank</a></td><td>100.0</td></tr>
</table>
</body>
</html>`

func testConfig(t *testing.T, url string) Config {
	dir := t.TempDir()
	return Config{
		Url:          url,
		Anchor:       "By market capitalization",
		SourceColumn: "Market cap (US$ billion)",
		RatesCsv:     "exchange_rate.csv",
		OutputCsv:    filepath.Join(dir, "Largest_banks_data.csv"),
		Database:     filepath.Join(dir, "Banks.db"),
		TableName:    "Largest_banks",
	}
}

func TestServiceRun(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:etl")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(banksPage))
	}))
	defer server.Close()

	config := testConfig(t, server.URL)
	var out strings.Builder
	service := NewService(config, specimenRates(t), fetch.NewClient(), &out)

	err := service.Run(context.Background())
	require.NoError(t, err)

	{
		contents, err := os.ReadFile(config.OutputCsv)
		require.NoError(t, err)
		require.Equal(t,
			"Rank,Bank name,Market cap (US$ billion),MC_EUR_Billion,MC_GBP_Billion\n"+
				"1,ExampleBank,100,93.00,80.00\n",
			string(contents),
		)
	}
	{
		db, err := sqliteutil.OpenDB(config.Database)
		require.NoError(t, err)
		defer db.Close()

		got, err := tabular.Query(context.Background(), db,
			`SELECT AVG(MC_GBP_Billion) FROM Largest_banks`)
		require.NoError(t, err)
		require.Equal(t, tabular.Row{80.0}, got.Rows[0])

		got, err = tabular.Query(context.Background(), db,
			`SELECT "Bank name" FROM Largest_banks LIMIT 5`)
		require.NoError(t, err)
		require.Equal(t, tabular.Row{"ExampleBank"}, got.Rows[0])
	}

	rendered := out.String()
	require.Contains(t, rendered, `SELECT * FROM "Largest_banks" LIMIT 5`)
	require.Contains(t, rendered, `SELECT AVG("MC_GBP_Billion") FROM "Largest_banks"`)
	require.Contains(t, rendered, `SELECT "Bank name" FROM "Largest_banks" LIMIT 5`)
	require.Contains(t, rendered, "ExampleBank")
}

func TestServiceRunAnchorMissing(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:etl")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>nothing here</p></body></html>`))
	}))
	defer server.Close()

	config := testConfig(t, server.URL)
	service := NewService(config, specimenRates(t), fetch.NewClient(), nil)

	err := service.Run(context.Background())
	require.ErrorIs(t, err, htmltable.ErrAnchorNotFound)

	// nothing may be written when extraction fails
	_, statErr := os.Stat(config.OutputCsv)
	require.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(config.Database)
	require.True(t, os.IsNotExist(statErr))
}

func TestServiceRunFetchFailure(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:etl")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	config := testConfig(t, server.URL)
	service := NewService(config, specimenRates(t), fetch.NewClient(), nil)

	err := service.Run(context.Background())
	require.Error(t, err)

	var statusErr fetch.StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusGone, statusErr.Code)
}

func TestVerificationQueriesAgainstStore(t *testing.T) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{Name: "etl"})
	defer cleanup()

	tbl := specimenTable(t)
	require.NoError(t, AddCurrencyColumns(tbl, "Market cap (US$ billion)", specimenRates(t)))

	ctx := context.Background()
	require.NoError(t, tabular.Replace(ctx, res.DB, "Largest_banks", tbl))

	config := testConfig(t, "https://example.com")
	service := NewService(config, specimenRates(t), fetch.NewClient(), nil)

	queries := service.VerificationQueries()
	require.Len(t, queries, 3)

	{
		got, err := tabular.Query(ctx, res.DB, queries[0])
		require.NoError(t, err)
		require.Equal(t, []string{
			"Rank", "Bank name", "Market cap (US$ billion)",
			"MC_EUR_Billion", "MC_GBP_Billion",
		}, got.ColumnNames())
	}
	{
		got, err := tabular.Query(ctx, res.DB, queries[1])
		require.NoError(t, err)
		require.Equal(t, []tabular.Row{{80.0}}, got.Rows)
	}
	{
		got, err := tabular.Query(ctx, res.DB, queries[2])
		require.NoError(t, err)
		require.Equal(t, []tabular.Row{{"ExampleBank"}}, got.Rows)
	}
}

func TestConfigValidate(t *testing.T) {
	config := testConfig(t, "https://example.com")
	require.NoError(t, config.Validate())

	config.Url = "not a url"
	require.Error(t, config.Validate())

	config = testConfig(t, "https://example.com")
	config.TableName = ""
	require.Error(t, config.Validate())
}
