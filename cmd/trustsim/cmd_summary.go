package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaneXU85/pension-trust-abm/internal/experiment"
	"github.com/JaneXU85/pension-trust-abm/internal/store"
)

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary [sweep-id]",
		Short: "Summarize a stored sweep",
		Long: `Print mean and standard deviation of final trust, participation and
cooperation per spillover condition and initial trust level.

Without an argument the most recent sweep is summarized.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			var sweepID string
			if len(args) == 1 {
				sweep, err := s.GetSweep(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to get sweep: %w", err)
				}
				sweepID = sweep.ID
			} else {
				sweeps, err := s.ListSweeps(ctx)
				if err != nil {
					return fmt.Errorf("failed to list sweeps: %w", err)
				}
				if len(sweeps) == 0 {
					return errors.New("no sweeps stored; run 'trustsim sweep' first")
				}
				sweepID = sweeps[0].ID
			}

			records, err := s.ListRuns(ctx, store.RunFilter{SweepID: sweepID})
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
			summaries := experiment.Summarize(records)

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"sweep_id":  sweepID,
					"runs":      len(records),
					"summaries": summaries,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Sweep %s: %d runs\n\n", sweepID, len(records))
			printSummaries(cmd, summaries)
			return nil
		},
	}
}

func printSummaries(cmd *cobra.Command, summaries []experiment.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-20s %6s %5s %-17s %-17s %-17s %9s\n",
		"CONDITION", "TRUST", "RUNS", "FINAL TRUST", "PARTICIPATION", "COOPERATION", "COLLAPSED")
	for _, s := range summaries {
		fmt.Fprintf(out, "%-20s %6.2f %5d %-17s %-17s %-17s %8.0f%%\n",
			s.Label, s.InitialTrust, s.Runs,
			formatStat(s.FinalTrust), formatStat(s.Participation), formatStat(s.Cooperation),
			s.CollapseRate*100,
		)
	}
}

func formatStat(s experiment.Stat) string {
	return fmt.Sprintf("%.3f ± %.3f", s.Mean, s.Std)
}
