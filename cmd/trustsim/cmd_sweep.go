package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/JaneXU85/pension-trust-abm/internal/experiment"
	"github.com/JaneXU85/pension-trust-abm/internal/models"
	"github.com/JaneXU85/pension-trust-abm/internal/store"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the experiment design and summarize it",
		Long: `Run every combination of initial trust and spillover condition in the
sweep section of the config, replicated with independent seeds.

Records are stored in the results database under a new sweep id unless
--no-save is given.

Examples:
  trustsim sweep
  trustsim sweep --replications 5 --workers 4 --csv results.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			noSave, _ := cmd.Flags().GetBool("no-save")
			csvPath, _ := cmd.Flags().GetString("csv")
			quiet, _ := cmd.Flags().GetBool("quiet")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			design := cfg.Sweep.Design
			workers := cfg.Sweep.Workers
			if cmd.Flags().Changed("replications") {
				design.Replications, _ = cmd.Flags().GetInt("replications")
			}
			if cmd.Flags().Changed("steps") {
				design.Steps, _ = cmd.Flags().GetInt("steps")
			}
			if cmd.Flags().Changed("seed-base") {
				design.SeedBase, _ = cmd.Flags().GetInt64("seed-base")
			}
			if cmd.Flags().Changed("workers") {
				workers, _ = cmd.Flags().GetInt("workers")
			}
			if err := design.Validate(); err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			runner := experiment.NewRunner(workers, logger)
			if !quiet && !jsonOut {
				runner.OnResult = progressPrinter(cmd, design.Size())
			}

			sweep, err := runner.Run(ctx, design)
			if err != nil {
				return fmt.Errorf("sweep failed: %w", err)
			}

			if !noSave {
				if err := saveSweep(cmd, cfg.Store.Path, sweep); err != nil {
					return err
				}
				logger.Info("sweep saved", "id", sweep.ID, "runs", len(sweep.Records), "db", cfg.Store.Path)
			}

			if csvPath != "" {
				if err := writeCSV(csvPath, sweep.Records); err != nil {
					return err
				}
				logger.Info("records written", "path", csvPath)
			}

			summaries := experiment.Summarize(sweep.Records)
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"sweep_id":  sweep.ID,
					"runs":      len(sweep.Records),
					"elapsed":   sweep.FinishedAt.Sub(sweep.StartedAt).String(),
					"summaries": summaries,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Sweep %s: %s runs in %s\n\n",
				sweep.ID, humanize.Comma(int64(len(sweep.Records))),
				sweep.FinishedAt.Sub(sweep.StartedAt).Round(time.Millisecond))
			printSummaries(cmd, summaries)
			return nil
		},
	}

	cmd.Flags().Int("replications", 0, "Replications per condition (overrides config)")
	cmd.Flags().Int("steps", 0, "Steps per run (overrides config)")
	cmd.Flags().Int64("seed-base", 0, "Seed base; run n uses seed base+n (overrides config)")
	cmd.Flags().Int("workers", 0, "Parallel workers, 0 for one per CPU (overrides config)")
	cmd.Flags().String("csv", "", "Also write run records to this CSV file")
	cmd.Flags().Bool("no-save", false, "Do not store the sweep in the results database")
	cmd.Flags().BoolP("quiet", "q", false, "Suppress progress output")

	return cmd
}

// progressPrinter reports progress on stderr roughly every tenth of the sweep.
func progressPrinter(cmd *cobra.Command, size int) experiment.ProgressFunc {
	every := max(size/10, 1)
	return func(done, total int, _ models.RunRecord) {
		if done%every == 0 || done == total {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s / %s runs\n",
				humanize.Comma(int64(done)), humanize.Comma(int64(total)))
		}
	}
}

func saveSweep(cmd *cobra.Command, dbPath string, sweep *experiment.Sweep) error {
	design, err := json.Marshal(sweep.Design)
	if err != nil {
		return fmt.Errorf("failed to encode design: %w", err)
	}

	s, err := store.NewSQLiteResultStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open results store: %w", err)
	}
	defer s.Close()

	ctx := cmd.Context()
	if err := s.SaveRuns(ctx, sweep.Records); err != nil {
		return fmt.Errorf("failed to save runs: %w", err)
	}
	if err := s.SaveSweep(ctx, store.SweepInfo{
		ID:         sweep.ID,
		Runs:       len(sweep.Records),
		Design:     design,
		StartedAt:  sweep.StartedAt,
		FinishedAt: sweep.FinishedAt,
	}); err != nil {
		return fmt.Errorf("failed to save sweep: %w", err)
	}
	return nil
}

func writeCSV(path string, records []models.RunRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := store.ExportCSV(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
