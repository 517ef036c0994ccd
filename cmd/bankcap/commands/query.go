package commands

import (
	"log/slog"
	"os"

	"bankcap-etl/lib/serviceutil"
	"bankcap-etl/lib/sqliteutil"
	"bankcap-etl/lib/tabular"

	"github.com/spf13/cobra"
)

var queryDb *string
var queryCsv *string

func init() {
	queryDb = queryCmd.Flags().String("db", "Banks.db", "The database to query.")
	queryCsv = queryCmd.Flags().String("csv", "", "Also write the result to a csv file.")
	rootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query <sql> [--db <path/to/Banks.db>] [--csv <path/to/out.csv>]",
	Short: "Runs a sql statement against a loaded database and renders the result.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		db, err := sqliteutil.OpenDB(*queryDb)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer db.Close()

		result, err := tabular.Query(cmd.Context(), db, args[0])
		if err != nil {
			serviceutil.Fatal("query failed", err)
		}
		tabular.Render(os.Stdout, result)

		if *queryCsv != "" {
			err = tabular.WriteCSV(result, *queryCsv)
			if err != nil {
				serviceutil.Fatal("failed to write csv", err)
			}
			slog.Info("result written to csv", "path", *queryCsv)
		}
	},
}
