package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/JaneXU85/pension-trust-abm/internal/models"
	"github.com/JaneXU85/pension-trust-abm/internal/store"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs",
		Long: `List run records from the results database.

Examples:
  trustsim runs
  trustsim runs --sweep 3f2a9c1e-... --label "Full Spillover"
  trustsim runs --limit 0 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			sweepID, _ := cmd.Flags().GetString("sweep")
			label, _ := cmd.Flags().GetString("label")
			limit, _ := cmd.Flags().GetInt("limit")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			records, err := s.ListRuns(cmd.Context(), store.RunFilter{
				SweepID: sweepID,
				Label:   label,
				Limit:   limit,
			})
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			if jsonOut {
				if records == nil {
					records = []models.RunRecord{}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"runs":  records,
					"count": len(records),
				})
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No runs stored.")
				return nil
			}

			fmt.Fprintf(out, "%-8s %-8s %-20s %6s %8s %8s %8s  %s\n",
				"ID", "SWEEP", "CONDITION", "TRUST", "FINAL", "PART.", "COOP.", "CREATED")
			for _, rec := range records {
				sweep := shortID(rec.SweepID)
				if sweep == "" {
					sweep = "-"
				}
				label := rec.Label
				if label == "" {
					label = "-"
				}
				fmt.Fprintf(out, "%-8s %-8s %-20s %6.2f %8.4f %8.4f %8.4f  %s\n",
					shortID(rec.ID), sweep, label, rec.InitialTrust,
					rec.FinalTrust, rec.ParticipationRate, rec.FinalCooperation,
					humanize.Time(rec.CreatedAt))
			}
			fmt.Fprintf(out, "\n%s runs\n", humanize.Comma(int64(len(records))))
			return nil
		},
	}

	cmd.Flags().String("sweep", "", "Only runs of this sweep")
	cmd.Flags().String("label", "", "Only runs with this condition label")
	cmd.Flags().Int("limit", 20, "Maximum number of runs (0 for all)")

	return cmd
}
