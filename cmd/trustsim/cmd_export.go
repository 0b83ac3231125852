package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JaneXU85/pension-trust-abm/internal/models"
	"github.com/JaneXU85/pension-trust-abm/internal/store"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored runs as CSV or JSONL",
		Long: `Export run records from the results database.

Examples:
  trustsim export --sweep 3f2a9c1e-... -o results.csv
  trustsim export --format jsonl > runs.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			sweepID, _ := cmd.Flags().GetString("sweep")
			output, _ := cmd.Flags().GetString("output")

			var export func(io.Writer, []models.RunRecord) error
			switch format {
			case "csv":
				export = store.ExportCSV
			case "jsonl":
				export = store.ExportJSONL
			default:
				return fmt.Errorf("invalid format: %s (valid: csv, jsonl)", format)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			records, err := s.ListRuns(cmd.Context(), store.RunFilter{SweepID: sweepID})
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			if output == "" {
				return export(cmd.OutOrStdout(), records)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := export(f, records); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to close %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d runs to %s\n", len(records), output)
			return nil
		},
	}

	cmd.Flags().String("format", "csv", "Output format: csv, jsonl")
	cmd.Flags().String("sweep", "", "Only runs of this sweep")
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")

	return cmd
}
