package commands

import (
	"bankcap-etl/lib/configutil"
	"bankcap-etl/lib/fetch"
	"bankcap-etl/lib/rates"
	"bankcap-etl/lib/serviceutil"
	"bankcap-etl/services/etl"

	"github.com/spf13/cobra"
)

var runConfig *string
var runDb *string

func init() {
	runConfig = runCmd.Flags().String("config", "config.json5", "The pipeline config file.")
	runDb = runCmd.Flags().String("db", "", "Override the database path from the config.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--config <path/to/config.json5>] [--db <path/to/Banks.db>]",
	Short: "Runs the pipeline once: fetch, transform, load, then the verification queries.",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := configutil.ReadConfig[etl.Config](*runConfig)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if *runDb != "" {
			config.Database = *runDb
		}
		err = config.Validate()
		if err != nil {
			serviceutil.Fatal("failed to validate config", err)
		}

		rm, err := rates.Load(config.RatesCsv)
		if err != nil {
			serviceutil.Fatal("failed to load exchange rates", err)
		}

		service := etl.NewService(config, rm, fetch.NewClient(), nil)
		err = service.Run(cmd.Context())
		if err != nil {
			serviceutil.Fatal("pipeline run failed", err)
		}
	},
}
