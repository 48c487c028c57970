package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"dataviews/internal/app"
	"dataviews/internal/etl"
	_ "dataviews/internal/etl/sources" // register all sources via init()
)

var (
	importDelimiter string
	importDataPath  string
	importDedupe    string
	importLimit     int
	importDryRun    bool
	importNoHeader  bool
)

var importCmd = &cobra.Command{
	Use:   "import <file|url>",
	Short: "Create records from a CSV/TSV/JSON file or a JSON URL",
	Long: `Reads rows from a file or URL and creates one record per row. Columns are
matched to schema fields by id or name and converted to each field's type.
Rows that end up empty, or repeat the --dedupe field, are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.Backend.Latency = 0

		job, err := etl.JobFor(args[0], etl.SourceConfig{
			"delimiter": importDelimiter,
			"dataPath":  importDataPath,
		})
		if err != nil {
			return err
		}
		if importNoHeader {
			job.SourceCfg["hasHeader"] = "false"
		}
		job.DedupeKey = importDedupe
		job.Limit = importLimit
		job.DryRun = importDryRun

		a, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		svc := a.Service()
		res, err := etl.NewEngine(logger).Run(cmd.Context(), svc.Schema(), svc, job)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		if res.RowsFailed > 0 {
			return fmt.Errorf("%d of %d rows failed", res.RowsFailed, res.RowsRead)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importDelimiter, "delimiter", "", "CSV column delimiter (default comma, tab for .tsv)")
	importCmd.Flags().BoolVar(&importNoHeader, "no-header", false, "the CSV has no header row")
	importCmd.Flags().StringVar(&importDataPath, "data-path", "", "dot-separated path to the rows in a JSON document")
	importCmd.Flags().StringVar(&importDedupe, "dedupe", "", "skip rows repeating an earlier value of this field id")
	importCmd.Flags().IntVar(&importLimit, "limit", 0, "import at most this many rows")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "print the mapped records without creating them")

	RootCmd.AddCommand(importCmd)
}
